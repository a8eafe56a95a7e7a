package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/models"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/utils"
)

// AdminUserRepository handles data access for operator accounts.
type AdminUserRepository struct {
	db *sqlx.DB
}

// NewAdminUserRepository creates a new AdminUserRepository.
func NewAdminUserRepository(db *sqlx.DB) *AdminUserRepository {
	return &AdminUserRepository{db: db}
}

// GetByUsername returns an active operator account by username.
func (r *AdminUserRepository) GetByUsername(username string) (*models.AdminUser, error) {
	const q = `SELECT * FROM admin_users WHERE username = $1 AND is_active = true LIMIT 1`

	var u models.AdminUser
	if err := r.db.Get(&u, q, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrInvalidCredentials
		}
		return nil, err
	}
	return &u, nil
}

// Upsert creates or refreshes an operator account, keyed by username. Used
// to seed the configured admin at boot.
func (r *AdminUserRepository) Upsert(username, passwordHash string) error {
	const q = `
        INSERT INTO admin_users (username, password_hash, is_active, created_at, updated_at)
        VALUES ($1, $2, true, NOW(), NOW())
        ON CONFLICT (username) DO UPDATE SET
            password_hash = EXCLUDED.password_hash,
            is_active = true,
            updated_at = NOW()`

	_, err := r.db.Exec(q, username, passwordHash)
	return err
}
