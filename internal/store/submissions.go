package store

import (
	"context"
	"fmt"
	"time"

	"invoice-desk/internal/models"
)

// SaveSubmission journals one submission attempt
func (s *Store) SaveSubmission(ctx context.Context, rec *models.SubmissionRecord) error {
	query := `
		INSERT INTO submissions (session_id, idempotency_key, customer_name, line_count,
			subtotal, total, outcome, invoice_id, bill_number, error_message, pdf_warning)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`

	row := s.db.QueryRowxContext(ctx, query,
		rec.SessionID, rec.IdempotencyKey, rec.CustomerName, rec.LineCount,
		rec.Subtotal, rec.Total, rec.Outcome, rec.InvoiceID, rec.BillNumber,
		rec.ErrorMessage, rec.PDFWarning)

	if err := row.Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}
	return nil
}

// ListSubmissions returns a session's most recent attempts, newest first
func (s *Store) ListSubmissions(ctx context.Context, sessionID string, limit int) ([]models.SubmissionRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	records := []models.SubmissionRecord{}
	err := s.db.SelectContext(ctx, &records,
		"SELECT * FROM submissions WHERE session_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2",
		sessionID, limit)
	return records, err
}

// CountByOutcome counts attempts since the given time grouped by outcome
func (s *Store) CountByOutcome(ctx context.Context, since time.Time) (map[string]int, error) {
	rows := []struct {
		Outcome string `db:"outcome"`
		Count   int    `db:"count"`
	}{}
	err := s.db.SelectContext(ctx, &rows,
		"SELECT outcome, COUNT(*) AS count FROM submissions WHERE created_at >= $1 GROUP BY outcome",
		since)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Outcome] = r.Count
	}
	return counts, nil
}
