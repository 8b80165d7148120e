package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"inventory-alert-service/internal/models"
)

// GetProduct fetches a product by id. Returns pgx.ErrNoRows when absent; the
// pipeline substitutes a placeholder name rather than failing.
func (s *Store) GetProduct(ctx context.Context, id string) (models.Product, error) {
	var p models.Product
	err := s.Pool.QueryRow(ctx, `
	SELECT id, name, category, sub_category, current_stock, reorder_level, COALESCE(image_url, '')
	FROM products WHERE id = $1`, id).Scan(
		&p.ID, &p.Name, &p.Category, &p.SubCategory, &p.CurrentStock, &p.ReorderLevel, &p.ImageURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Product{}, err
		}
		return models.Product{}, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	return p, nil
}

// ListProducts enumerates every product for the periodic sweep.
func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.Pool.Query(ctx, `
	SELECT id, name, category, sub_category, current_stock, reorder_level, COALESCE(image_url, '')
	FROM products`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var list []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.SubCategory,
			&p.CurrentStock, &p.ReorderLevel, &p.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// ListBatches enumerates every batch for the periodic sweep.
func (s *Store) ListBatches(ctx context.Context) ([]models.Batch, error) {
	rows, err := s.Pool.Query(ctx, `
	SELECT id, product_id, batch_number, expiry_date FROM batches`)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	defer rows.Close()

	var list []models.Batch
	for rows.Next() {
		var b models.Batch
		if err := rows.Scan(&b.ID, &b.ProductID, &b.BatchNumber, &b.ExpiryDate); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}
