package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/models"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/utils"
)

// ProductRepository handles plain (non-transactional) data access for
// products. Engine operations that must be atomic with tag state go through
// SyncStore instead.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// ListPaged returns products with optional search (ILIKE on name, barcode or
// SKU) and pagination, plus the total count. Page begins at 1.
func (r *ProductRepository) ListPaged(search string, page, limit int) ([]models.Product, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	offset := (page - 1) * limit

	const baseWhere = `WHERE ($1 = ''
        OR name ILIKE '%%' || $1 || '%%'
        OR barcode ILIKE '%%' || $1 || '%%'
        OR sku ILIKE '%%' || $1 || '%%')`

	var total int
	if err := r.db.Get(&total, `SELECT COUNT(1) FROM products `+baseWhere, search); err != nil {
		return nil, 0, err
	}

	listQuery := `SELECT * FROM products ` + baseWhere + `
        ORDER BY name, id LIMIT $2 OFFSET $3`
	var products []models.Product
	if err := r.db.Select(&products, listQuery, search, limit, offset); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// GetByID returns a single product by id.
func (r *ProductRepository) GetByID(id int64) (*models.Product, error) {
	const q = `SELECT * FROM products WHERE id = $1 LIMIT 1`

	var p models.Product
	if err := r.db.Get(&p, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetByBarcode returns a single product by barcode.
func (r *ProductRepository) GetByBarcode(barcode string) (*models.Product, error) {
	const q = `SELECT * FROM products WHERE barcode = $1 LIMIT 1`

	var p models.Product
	if err := r.db.Get(&p, q, barcode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a new product and returns it with its id populated.
func (r *ProductRepository) Create(p *models.Product) error {
	const q = `
        INSERT INTO products (barcode, name, list_price, original_price, sales_unit,
            sku, category, stock, esl_sync_enabled, preferred_tag_size,
            created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRowx(q,
		p.Barcode, p.Name, p.ListPrice, p.OriginalPrice, p.SalesUnit,
		p.SKU, p.Category, p.Stock, p.SyncEnabled, p.PreferredTagSize,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return utils.ErrDuplicateBarcode
		}
		return err
	}
	return nil
}

// Delete removes a product.
func (r *ProductRepository) Delete(id int64) error {
	res, err := r.db.Exec(`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return utils.ErrProductNotFound
	}
	return nil
}

// ListSyncEnabled returns the ids of all products flagged for ESL sync.
func (r *ProductRepository) ListSyncEnabled() ([]int64, error) {
	var ids []int64
	if err := r.db.Select(&ids, `SELECT id FROM products WHERE esl_sync_enabled = true ORDER BY id`); err != nil {
		return nil, err
	}
	return ids, nil
}

// ListWithoutBarcode returns products missing a barcode, oldest first.
func (r *ProductRepository) ListWithoutBarcode() ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Select(&products, `SELECT * FROM products WHERE barcode = '' ORDER BY id`); err != nil {
		return nil, err
	}
	return products, nil
}

// SetBarcode assigns a generated barcode to a product.
func (r *ProductRepository) SetBarcode(id int64, barcode string) error {
	_, err := r.db.Exec(`UPDATE products SET barcode = $1, updated_at = $2 WHERE id = $3`,
		barcode, time.Now(), id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return utils.ErrDuplicateBarcode
		}
	}
	return err
}
