package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/hlxtech/licitacost/internal/report"
)

// SavedReport is a compiled report snapshot kept for audit. The body holds
// the full report JSON as it was at compile time, so later rate changes
// never rewrite history.
type SavedReport struct {
	ID            string          `json:"id"`
	ProjectNumber string          `json:"project_number"`
	CreatedAt     string          `json:"created_at"`
	Body          json.RawMessage `json:"body"`
}

// SaveReport persists a compiled report snapshot and returns its ID.
func (s *Store) SaveReport(ctx context.Context, rep *report.Report) (*SavedReport, error) {
	body, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}

	saved := &SavedReport{
		ID:            uuid.NewString(),
		ProjectNumber: rep.ProjectNumber,
		CreatedAt:     rep.CreatedAt,
		Body:          body,
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (id, project_number, created_at, body_json)
		VALUES (?, ?, ?, ?)
	`, saved.ID, saved.ProjectNumber, saved.CreatedAt, string(body))
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}
	return saved, nil
}

// ListReports returns saved report snapshots for a project, newest first.
func (s *Store) ListReports(ctx context.Context, projectNumber string) ([]SavedReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_number, created_at, body_json
		FROM reports
		WHERE project_number = ?
		ORDER BY datetime(created_at) DESC, id
	`, projectNumber)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	reports := make([]SavedReport, 0)
	for rows.Next() {
		var r SavedReport
		var body string
		if err := rows.Scan(&r.ID, &r.ProjectNumber, &r.CreatedAt, &body); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r.Body = json.RawMessage(body)
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}
