package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/models"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/utils"
)

// SyncTx is the set of storage operations available inside one sync
// transaction. Everything a sync or reassignment does to products and tags
// happens through a SyncTx so bookkeeping and allocation commit atomically.
type SyncTx interface {
	ProductsByIDs(ids []int64) ([]models.Product, error)
	ProductByID(id int64) (*models.Product, error)
	SetRemoteGoods(productID int64, goodsID string) error
	ClearRemoteGoods(productID int64) error
	TouchLastSync(productID int64) error
	SetPreferredSize(productID int64, size string) error
	UpdateProduct(p *models.Product) error

	BoundTag(productID int64) (*models.Tag, error)
	ClaimFreeTag(size string) (*models.Tag, error)
	FreeTagExists(size string, productID int64) (bool, error)
	OccupiedTagsOfSize(size string, excludeProductID int64) ([]models.Tag, error)
	CountTagsBySize(size string) (total, free int, err error)
	BindTag(tagID, productID int64, goodsID, goodsName string) error
	ReleaseTag(tagID int64) error
	ClearProductBinding(productID int64) error
}

// TxRunner runs a unit of work in one database transaction.
type TxRunner interface {
	InTransaction(ctx context.Context, fn func(tx SyncTx) error) error
}

// SyncStore implements TxRunner on PostgreSQL, opening READ COMMITTED
// transactions so concurrent syncs serialize on row locks, not snapshots.
type SyncStore struct {
	db *sqlx.DB
}

// NewSyncStore creates a new SyncStore.
func NewSyncStore(db *sqlx.DB) *SyncStore {
	return &SyncStore{db: db}
}

// InTransaction runs fn inside a transaction, committing on nil and rolling
// back on error or panic.
func (s *SyncStore) InTransaction(ctx context.Context, fn func(tx SyncTx) error) error {
	txx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = txx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&syncTx{tx: txx}); err != nil {
		_ = txx.Rollback()
		return err
	}
	return txx.Commit()
}

// IsTransientLockError reports whether err is a PostgreSQL contention
// failure worth retrying: lock not available, deadlock, or serialization
// failure.
func IsTransientLockError(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code {
	case "55P03", "40P01", "40001":
		return true
	}
	return false
}

type syncTx struct {
	tx *sqlx.Tx
}

func (t *syncTx) ProductsByIDs(ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM products WHERE id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	var products []models.Product
	if err := t.tx.Select(&products, t.tx.Rebind(query), args...); err != nil {
		return nil, err
	}
	return products, nil
}

func (t *syncTx) ProductByID(id int64) (*models.Product, error) {
	var p models.Product
	if err := t.tx.Get(&p, `SELECT * FROM products WHERE id = $1 LIMIT 1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (t *syncTx) SetRemoteGoods(productID int64, goodsID string) error {
	_, err := t.tx.Exec(
		`UPDATE products SET remote_goods_id = $1, last_sync_at = $2 WHERE id = $3`,
		goodsID, time.Now(), productID)
	return err
}

func (t *syncTx) ClearRemoteGoods(productID int64) error {
	_, err := t.tx.Exec(
		`UPDATE products SET remote_goods_id = '', last_sync_at = NULL WHERE id = $1`,
		productID)
	return err
}

func (t *syncTx) TouchLastSync(productID int64) error {
	_, err := t.tx.Exec(`UPDATE products SET last_sync_at = $1 WHERE id = $2`,
		time.Now(), productID)
	return err
}

func (t *syncTx) SetPreferredSize(productID int64, size string) error {
	_, err := t.tx.Exec(`UPDATE products SET preferred_tag_size = $1, updated_at = NOW() WHERE id = $2`,
		size, productID)
	return err
}

func (t *syncTx) UpdateProduct(p *models.Product) error {
	const q = `
        UPDATE products SET barcode = $1, name = $2, list_price = $3,
            original_price = $4, sales_unit = $5, sku = $6, category = $7,
            stock = $8, esl_sync_enabled = $9, preferred_tag_size = $10,
            updated_at = NOW()
        WHERE id = $11`

	res, err := t.tx.Exec(q,
		p.Barcode, p.Name, p.ListPrice, p.OriginalPrice, p.SalesUnit,
		p.SKU, p.Category, p.Stock, p.SyncEnabled, p.PreferredTagSize, p.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return utils.ErrDuplicateBarcode
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return utils.ErrProductNotFound
	}
	return nil
}

func (t *syncTx) BoundTag(productID int64) (*models.Tag, error) {
	var tag models.Tag
	err := t.tx.Get(&tag, `SELECT * FROM esl_tags WHERE product_id = $1 ORDER BY id LIMIT 1`, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// ClaimFreeTag picks one bindable free tag of the given size and locks its
// row for the remainder of the transaction. Online tags win over offline
// ones, then lower ids. SKIP LOCKED lets concurrent syncs claim distinct
// tags instead of queueing. Returns nil when no free tag is available.
func (t *syncTx) ClaimFreeTag(size string) (*models.Tag, error) {
	const q = `
        SELECT * FROM esl_tags
        WHERE tag_size = $1
          AND product_id IS NULL
          AND template_id <> ''
          AND station_id <> ''
        ORDER BY status ASC, id ASC
        LIMIT 1
        FOR UPDATE SKIP LOCKED`

	var tag models.Tag
	err := t.tx.Get(&tag, q, size)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func (t *syncTx) FreeTagExists(size string, productID int64) (bool, error) {
	const q = `
        SELECT EXISTS (
            SELECT 1 FROM esl_tags
            WHERE tag_size = $1
              AND template_id <> ''
              AND station_id <> ''
              AND (product_id IS NULL OR product_id = $2))`

	var exists bool
	err := t.tx.Get(&exists, q, size, productID)
	return exists, err
}

func (t *syncTx) OccupiedTagsOfSize(size string, excludeProductID int64) ([]models.Tag, error) {
	const q = `
        SELECT t.*, p.name AS owner_name
        FROM esl_tags t
        JOIN products p ON p.id = t.product_id
        WHERE t.tag_size = $1 AND t.product_id <> $2
        ORDER BY t.status ASC, t.id ASC`

	var tags []models.Tag
	if err := t.tx.Select(&tags, q, size, excludeProductID); err != nil {
		return nil, err
	}
	return tags, nil
}

func (t *syncTx) CountTagsBySize(size string) (int, int, error) {
	const q = `
        SELECT COUNT(1) AS total,
               COUNT(1) FILTER (WHERE product_id IS NULL) AS free
        FROM esl_tags WHERE tag_size = $1`

	var row struct {
		Total int `db:"total"`
		Free  int `db:"free"`
	}
	if err := t.tx.Get(&row, q, size); err != nil {
		return 0, 0, err
	}
	return row.Total, row.Free, nil
}

// BindTag records the allocation on both sides, updating the tag's snapshot
// of what the vendor now shows on it.
func (t *syncTx) BindTag(tagID, productID int64, goodsID, goodsName string) error {
	if _, err := t.tx.Exec(
		`UPDATE esl_tags SET product_id = $1, current_goods_id = $2, current_goods_name = $3
         WHERE id = $4`, productID, goodsID, goodsName, tagID); err != nil {
		return err
	}
	_, err := t.tx.Exec(`UPDATE products SET bound_tag_id = $1, updated_at = NOW() WHERE id = $2`, tagID, productID)
	return err
}

// ReleaseTag frees the tag and clears the owner's back-reference.
func (t *syncTx) ReleaseTag(tagID int64) error {
	if _, err := t.tx.Exec(
		`UPDATE products SET bound_tag_id = NULL, updated_at = NOW()
         WHERE bound_tag_id = $1`, tagID); err != nil {
		return err
	}
	_, err := t.tx.Exec(`UPDATE esl_tags SET product_id = NULL WHERE id = $1`, tagID)
	return err
}

// ClearProductBinding detaches the product from any tag it owns.
func (t *syncTx) ClearProductBinding(productID int64) error {
	if _, err := t.tx.Exec(`UPDATE esl_tags SET product_id = NULL WHERE product_id = $1`, productID); err != nil {
		return err
	}
	_, err := t.tx.Exec(`UPDATE products SET bound_tag_id = NULL, updated_at = NOW() WHERE id = $1`, productID)
	return err
}
