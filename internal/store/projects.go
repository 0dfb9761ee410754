package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hlxtech/licitacost/internal/report"
	"github.com/hlxtech/licitacost/pkg/constants"
)

// ErrDuplicateProject is returned when a project number is already taken.
var ErrDuplicateProject = errors.New("project number already exists")

// ProjectHeader is the project row without its owned items.
type ProjectHeader struct {
	ID            int64   `json:"id"`
	ProjectNumber string  `json:"project_number"`
	ClientName    string  `json:"client_name"`
	GrossSale     float64 `json:"gross_sale"`
	PurchaseState string  `json:"purchase_state"`
	SaleState     string  `json:"sale_state"`
	SimplesRate   float64 `json:"simples_rate"`
	CreatedAt     string  `json:"created_at"`
}

// ProductRow is a stored product with its row ID.
type ProductRow struct {
	ID int64 `json:"id"`
	report.Product
}

// OtherCostRow is a stored overhead entry with its row ID.
type OtherCostRow struct {
	ID int64 `json:"id"`
	report.OtherCost
}

// ProjectDetail is a project with all of its owned items, as edited through
// the API.
type ProjectDetail struct {
	ProjectHeader
	Products   []ProductRow   `json:"products"`
	OtherCosts []OtherCostRow `json:"other_costs"`
}

// CreateProject inserts a new project identified by its number. The number
// and client name are required; everything else starts at its default.
func (s *Store) CreateProject(ctx context.Context, projectNumber, clientName string) (*ProjectHeader, error) {
	projectNumber = strings.TrimSpace(projectNumber)
	clientName = strings.TrimSpace(clientName)
	if projectNumber == "" {
		return nil, errors.New("project number is required")
	}
	if clientName == "" {
		return nil, errors.New("client name is required")
	}

	createdAt := time.Now().UTC().Format(time.RFC3339)
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (project_number, client_name, created_at)
		VALUES (?, ?, ?)
	`, projectNumber, clientName, createdAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrDuplicateProject
		}
		return nil, fmt.Errorf("insert project: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read project id: %w", err)
	}

	return &ProjectHeader{
		ID:            id,
		ProjectNumber: projectNumber,
		ClientName:    clientName,
		SimplesRate:   constants.DefaultSimplesRate,
		CreatedAt:     createdAt,
	}, nil
}

// UpdateProject rewrites a project's header fields. State codes are
// uppercased before storage so lookups never depend on input casing.
func (s *Store) UpdateProject(ctx context.Context, projectNumber string, header ProjectHeader) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET
			project_number = ?,
			client_name = ?,
			gross_sale = ?,
			purchase_state = ?,
			sale_state = ?,
			simples_rate = ?
		WHERE project_number = ?
	`,
		strings.TrimSpace(header.ProjectNumber),
		strings.TrimSpace(header.ClientName),
		header.GrossSale,
		nullableState(header.PurchaseState),
		nullableState(header.SaleState),
		header.SimplesRate,
		projectNumber,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return ErrDuplicateProject
		}
		return fmt.Errorf("update project: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if affected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// DeleteProject removes a project; its products and other costs go with it.
func (s *Store) DeleteProject(ctx context.Context, projectNumber string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM projects WHERE project_number = ?
	`, projectNumber)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if affected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// ListProjects returns all project headers, newest first.
func (s *Store) ListProjects(ctx context.Context) ([]ProjectHeader, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_number, client_name, gross_sale,
		       COALESCE(purchase_state, ''), COALESCE(sale_state, ''),
		       simples_rate, created_at
		FROM projects
		ORDER BY datetime(created_at) DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	headers := make([]ProjectHeader, 0)
	for rows.Next() {
		var h ProjectHeader
		if err := rows.Scan(&h.ID, &h.ProjectNumber, &h.ClientName, &h.GrossSale,
			&h.PurchaseState, &h.SaleState, &h.SimplesRate, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		headers = append(headers, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return headers, nil
}

// GetProject loads a project with all of its owned items.
func (s *Store) GetProject(ctx context.Context, projectNumber string) (*ProjectDetail, error) {
	var detail ProjectDetail
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_number, client_name, gross_sale,
		       COALESCE(purchase_state, ''), COALESCE(sale_state, ''),
		       simples_rate, created_at
		FROM projects
		WHERE project_number = ?
	`, projectNumber).Scan(&detail.ID, &detail.ProjectNumber, &detail.ClientName,
		&detail.GrossSale, &detail.PurchaseState, &detail.SaleState,
		&detail.SimplesRate, &detail.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query project: %w", err)
	}

	detail.Products, err = s.listProducts(ctx, detail.ID)
	if err != nil {
		return nil, err
	}
	detail.OtherCosts, err = s.listOtherCosts(ctx, detail.ID)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// LoadProject materializes the engine input for a stored project. Absent
// values arrive as their documented defaults, so the engine never sees a
// NULL.
func (s *Store) LoadProject(ctx context.Context, projectNumber string) (*report.Project, error) {
	detail, err := s.GetProject(ctx, projectNumber)
	if err != nil {
		return nil, err
	}

	project := &report.Project{
		ProjectNumber: detail.ProjectNumber,
		ClientName:    detail.ClientName,
		GrossSale:     detail.GrossSale,
		PurchaseState: detail.PurchaseState,
		SaleState:     detail.SaleState,
		SimplesRate:   detail.SimplesRate,
		Products:      make([]report.Product, 0, len(detail.Products)),
		OtherCosts:    make([]report.OtherCost, 0, len(detail.OtherCosts)),
	}
	for _, row := range detail.Products {
		project.Products = append(project.Products, row.Product)
	}
	for _, row := range detail.OtherCosts {
		project.OtherCosts = append(project.OtherCosts, row.OtherCost)
	}
	return project, nil
}

func (s *Store) projectID(ctx context.Context, projectNumber string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM projects WHERE project_number = ?
	`, projectNumber).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrProjectNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("query project id: %w", err)
	}
	return id, nil
}

// nullableState stores empty state codes as NULL, matching the schema's
// optional columns.
func nullableState(state string) any {
	state = strings.ToUpper(strings.TrimSpace(state))
	if state == "" {
		return nil
	}
	return state
}
