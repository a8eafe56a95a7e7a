package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/models"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/utils"
)

// TagRepository handles data access for the local mirror of vendor tags.
type TagRepository struct {
	db *sqlx.DB
}

// NewTagRepository creates a new TagRepository.
func NewTagRepository(db *sqlx.DB) *TagRepository {
	return &TagRepository{db: db}
}

// ListPaged returns tags with optional filters and pagination, joined with
// the owning product's name. size and status are ignored when empty;
// freeOnly restricts to unallocated tags.
func (r *TagRepository) ListPaged(size, status string, freeOnly bool, page, limit int) ([]models.Tag, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	offset := (page - 1) * limit

	const baseWhere = `WHERE ($1 = '' OR t.tag_size = $1)
        AND ($2 = '' OR t.status = $2)
        AND (NOT $3 OR t.product_id IS NULL)`

	var total int
	if err := r.db.Get(&total, `SELECT COUNT(1) FROM esl_tags t `+baseWhere, size, status, freeOnly); err != nil {
		return nil, 0, err
	}

	listQuery := `
        SELECT t.*, p.name AS owner_name
        FROM esl_tags t
        LEFT JOIN products p ON p.id = t.product_id ` + baseWhere + `
        ORDER BY t.status, t.id LIMIT $4 OFFSET $5`
	var tags []models.Tag
	if err := r.db.Select(&tags, listQuery, size, status, freeOnly, limit, offset); err != nil {
		return nil, 0, err
	}
	return tags, total, nil
}

// GetByID returns a single tag by local id.
func (r *TagRepository) GetByID(id int64) (*models.Tag, error) {
	const q = `SELECT * FROM esl_tags WHERE id = $1 LIMIT 1`

	var t models.Tag
	if err := r.db.Get(&t, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrTagNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Upsert inserts or refreshes one tag keyed by its vendor tag_id, preserving
// any existing product allocation. Returns true when the tag was new.
func (r *TagRepository) Upsert(t *models.Tag) (bool, error) {
	const q = `
        INSERT INTO esl_tags (tag_id, tag_code, station_id, station_name,
            template_id, template_name, resolution_id, resolution_desc,
            tag_size, status, bind_mode, current_goods_id, current_goods_name,
            fetched_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
        ON CONFLICT (tag_id) DO UPDATE SET
            tag_code = EXCLUDED.tag_code,
            station_id = EXCLUDED.station_id,
            station_name = EXCLUDED.station_name,
            template_id = EXCLUDED.template_id,
            template_name = EXCLUDED.template_name,
            resolution_id = EXCLUDED.resolution_id,
            resolution_desc = EXCLUDED.resolution_desc,
            tag_size = EXCLUDED.tag_size,
            status = EXCLUDED.status,
            bind_mode = EXCLUDED.bind_mode,
            current_goods_id = EXCLUDED.current_goods_id,
            current_goods_name = EXCLUDED.current_goods_name,
            fetched_at = EXCLUDED.fetched_at
        RETURNING id, (xmax = 0) AS inserted`

	var inserted bool
	err := r.db.QueryRowx(q,
		t.TagID, t.TagCode, t.StationID, t.StationName,
		t.TemplateID, t.TemplateName, t.ResolutionID, t.ResolutionDesc,
		t.TagSize, t.Status, t.BindMode, t.CurrentGoodsID, t.CurrentGoodsName,
	).Scan(&t.ID, &inserted)
	return inserted, err
}

// CountBySize returns the number of tags and free tags per size.
func (r *TagRepository) CountBySize() (map[string][2]int, error) {
	const q = `
        SELECT tag_size,
               COUNT(1) AS total,
               COUNT(1) FILTER (WHERE product_id IS NULL) AS free
        FROM esl_tags GROUP BY tag_size`

	rows, err := r.db.Queryx(q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string][2]int)
	for rows.Next() {
		var size string
		var total, free int
		if err := rows.Scan(&size, &total, &free); err != nil {
			return nil, err
		}
		counts[size] = [2]int{total, free}
	}
	return counts, rows.Err()
}
