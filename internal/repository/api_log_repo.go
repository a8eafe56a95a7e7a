package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/models"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/pkg/sunlux"
)

// maxLoggedBody caps stored request/response payloads so a large batch does
// not bloat the audit table.
const maxLoggedBody = 8192

// APILogRepository persists the vendor call audit trail. It doubles as the
// sunlux.CallLogger wired into the vendor client.
type APILogRepository struct {
	db *sqlx.DB
}

// NewAPILogRepository creates a new APILogRepository.
func NewAPILogRepository(db *sqlx.DB) *APILogRepository {
	return &APILogRepository{db: db}
}

// LogCall records one vendor call. Implements sunlux.CallLogger; failures
// are logged and swallowed so auditing never breaks a sync.
func (r *APILogRepository) LogCall(ctx context.Context, entry sunlux.CallLog) {
	status := models.APILogSuccess
	switch {
	case entry.ErrorMessage != "":
		status = models.APILogError
	case entry.EnvelopeCode != 0 && entry.EnvelopeCode != 200:
		status = models.APILogWarning
	}

	var respCode *int
	if entry.ResponseCode != 0 {
		respCode = &entry.ResponseCode
	}

	const q = `
        INSERT INTO esl_api_logs (operation, product_id, product_name, endpoint,
            request_data, response_code, response_data, status, error_message,
            duration_ms, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())`

	_, err := r.db.ExecContext(ctx, q,
		entry.Operation, entry.ProductID, entry.ProductName, entry.Endpoint,
		truncate(entry.RequestBody), respCode, truncate(entry.ResponseBody),
		status, entry.ErrorMessage, entry.Duration.Milliseconds(),
	)
	if err != nil {
		log.Error().Err(err).Str("operation", entry.Operation).Msg("failed to persist API call log")
	}
}

// ListPaged returns audit records newest first, with optional operation and
// status filters.
func (r *APILogRepository) ListPaged(operation, status string, page, limit int) ([]models.APICallLog, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	offset := (page - 1) * limit

	const baseWhere = `WHERE ($1 = '' OR operation = $1) AND ($2 = '' OR status = $2)`

	var total int
	if err := r.db.Get(&total, `SELECT COUNT(1) FROM esl_api_logs `+baseWhere, operation, status); err != nil {
		return nil, 0, err
	}

	listQuery := `SELECT * FROM esl_api_logs ` + baseWhere + `
        ORDER BY id DESC LIMIT $3 OFFSET $4`
	var logs []models.APICallLog
	if err := r.db.Select(&logs, listQuery, operation, status, limit, offset); err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func truncate(body []byte) string {
	if len(body) > maxLoggedBody {
		return string(body[:maxLoggedBody])
	}
	return string(body)
}
