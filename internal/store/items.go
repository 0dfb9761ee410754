package store

import (
	"context"
	"fmt"

	"github.com/hlxtech/licitacost/internal/report"
)

// AddProduct appends a product line to a project.
func (s *Store) AddProduct(ctx context.Context, projectNumber string, product report.Product) (*ProductRow, error) {
	projectID, err := s.projectID(ctx, projectNumber)
	if err != nil {
		return nil, err
	}

	if product.Qty < 1 {
		product.Qty = 1
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO products (project_id, description, purchase_cost, sale_price, qty, purchase_state, sale_state)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, projectID, product.Description, product.PurchaseCost, product.SalePrice,
		product.Qty, nullableState(product.PurchaseState), nullableState(product.SaleState))
	if err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read product id: %w", err)
	}
	return &ProductRow{ID: id, Product: product}, nil
}

// UpdateProduct rewrites a product line in place.
func (s *Store) UpdateProduct(ctx context.Context, projectNumber string, productID int64, product report.Product) error {
	projectID, err := s.projectID(ctx, projectNumber)
	if err != nil {
		return err
	}

	if product.Qty < 1 {
		product.Qty = 1
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET description = ?, purchase_cost = ?, sale_price = ?, qty = ?,
		    purchase_state = ?, sale_state = ?
		WHERE id = ? AND project_id = ?
	`, product.Description, product.PurchaseCost, product.SalePrice, product.Qty,
		nullableState(product.PurchaseState), nullableState(product.SaleState),
		productID, projectID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return requireAffected(result.RowsAffected())
}

// DeleteProduct removes a product line from a project.
func (s *Store) DeleteProduct(ctx context.Context, projectNumber string, productID int64) error {
	projectID, err := s.projectID(ctx, projectNumber)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM products WHERE id = ? AND project_id = ?
	`, productID, projectID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return requireAffected(result.RowsAffected())
}

// AddOtherCost appends an overhead entry to a project.
func (s *Store) AddOtherCost(ctx context.Context, projectNumber string, cost report.OtherCost) (*OtherCostRow, error) {
	projectID, err := s.projectID(ctx, projectNumber)
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO other_costs (project_id, description, cost)
		VALUES (?, ?, ?)
	`, projectID, cost.Description, cost.Cost)
	if err != nil {
		return nil, fmt.Errorf("insert other cost: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read other cost id: %w", err)
	}
	return &OtherCostRow{ID: id, OtherCost: cost}, nil
}

// UpdateOtherCost rewrites an overhead entry in place.
func (s *Store) UpdateOtherCost(ctx context.Context, projectNumber string, costID int64, cost report.OtherCost) error {
	projectID, err := s.projectID(ctx, projectNumber)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE other_costs
		SET description = ?, cost = ?
		WHERE id = ? AND project_id = ?
	`, cost.Description, cost.Cost, costID, projectID)
	if err != nil {
		return fmt.Errorf("update other cost: %w", err)
	}
	return requireAffected(result.RowsAffected())
}

// DeleteOtherCost removes an overhead entry from a project.
func (s *Store) DeleteOtherCost(ctx context.Context, projectNumber string, costID int64) error {
	projectID, err := s.projectID(ctx, projectNumber)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM other_costs WHERE id = ? AND project_id = ?
	`, costID, projectID)
	if err != nil {
		return fmt.Errorf("delete other cost: %w", err)
	}
	return requireAffected(result.RowsAffected())
}

func (s *Store) listProducts(ctx context.Context, projectID int64) ([]ProductRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, purchase_cost, sale_price, qty,
		       COALESCE(purchase_state, ''), COALESCE(sale_state, '')
		FROM products
		WHERE project_id = ?
		ORDER BY id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]ProductRow, 0)
	for rows.Next() {
		var p ProductRow
		if err := rows.Scan(&p.ID, &p.Description, &p.PurchaseCost, &p.SalePrice,
			&p.Qty, &p.PurchaseState, &p.SaleState); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func (s *Store) listOtherCosts(ctx context.Context, projectID int64) ([]OtherCostRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, cost
		FROM other_costs
		WHERE project_id = ?
		ORDER BY id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query other costs: %w", err)
	}
	defer rows.Close()

	costs := make([]OtherCostRow, 0)
	for rows.Next() {
		var c OtherCostRow
		if err := rows.Scan(&c.ID, &c.Description, &c.Cost); err != nil {
			return nil, fmt.Errorf("scan other cost: %w", err)
		}
		costs = append(costs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate other costs: %w", err)
	}
	return costs, nil
}

func requireAffected(affected int64, err error) error {
	if err != nil {
		return fmt.Errorf("check affected rows: %w", err)
	}
	if affected == 0 {
		return ErrItemNotFound
	}
	return nil
}
