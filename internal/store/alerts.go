package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"inventory-alert-service/internal/models"
)

const alertColumns = `
	id, subject_id, product_id, condition_type, stage,
	product_name, category, sub_category, batch_number,
	current_stock, reorder_level, risk_score,
	is_read, is_done, is_notified,
	notified_at, resolved_at, resolved_reason`

// HasOpenAlert reports whether an open alert exists for the dedup tuple.
func (s *Store) HasOpenAlert(ctx context.Context, subjectID string, condition models.ConditionType, stage string) (bool, error) {
	var exists bool
	err := s.Pool.QueryRow(ctx, `
	SELECT EXISTS (
		SELECT 1 FROM alerts
		WHERE subject_id = $1 AND condition_type = $2 AND stage = $3 AND is_done = false
	)`, subjectID, string(condition), stage).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check open alert for %s/%s/%s: %w", subjectID, condition, stage, err)
	}
	return exists, nil
}

// CreateAlert inserts a new open alert, enforcing the at-most-one-open
// invariant. The existence check and the insert run inside one transaction
// holding a transaction-scoped advisory lock on the dedup key, so two
// concurrent triggers for the same tuple serialize instead of racing
// read-then-write.
func (s *Store) CreateAlert(ctx context.Context, a models.Alert) (string, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, a.DedupKey()); err != nil {
		return "", fmt.Errorf("failed to take dedup lock: %w", err)
	}

	var exists bool
	err = tx.QueryRow(ctx, `
	SELECT EXISTS (
		SELECT 1 FROM alerts
		WHERE subject_id = $1 AND condition_type = $2 AND stage = $3 AND is_done = false
	)`, a.SubjectID, string(a.ConditionType), a.Stage).Scan(&exists)
	if err != nil {
		return "", fmt.Errorf("failed to check open alert: %w", err)
	}
	if exists {
		return "", models.ErrDuplicateAlert
	}

	id := uuid.New().String()
	_, err = tx.Exec(ctx, `
	INSERT INTO alerts (
		id, subject_id, product_id, condition_type, stage,
		product_name, category, sub_category, batch_number,
		current_stock, reorder_level, risk_score,
		is_read, is_done, is_notified, notified_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		false, false, true, NOW()
	)`,
		id, a.SubjectID, a.ProductID, string(a.ConditionType), a.Stage,
		a.ProductName, a.Category, a.SubCategory, a.BatchNumber,
		a.CurrentStock, a.ReorderLevel, a.RiskScore,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert alert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit alert: %w", err)
	}
	return id, nil
}

// ResolveOpenAlerts transitions every open alert for the subject and condition
// to done in a single statement, so readers see either all of them resolved or
// none. Returns the number of alerts resolved.
func (s *Store) ResolveOpenAlerts(ctx context.Context, subjectID string, condition models.ConditionType, reason string) (int, error) {
	tag, err := s.Pool.Exec(ctx, `
	UPDATE alerts
	SET is_done = true, resolved_at = NOW(), resolved_reason = $3
	WHERE subject_id = $1 AND condition_type = $2 AND is_done = false`,
		subjectID, string(condition), reason)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve alerts for %s/%s: %w", subjectID, condition, err)
	}
	return int(tag.RowsAffected()), nil
}

// MarkRead flags consumer acknowledgment. Idempotent.
func (s *Store) MarkRead(ctx context.Context, id string) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE alerts SET is_read = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark alert %s read: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// MarkDone manually resolves a single alert. Resolving an already-done alert
// is a no-op (is_done is terminal).
func (s *Store) MarkDone(ctx context.Context, id, reason string) error {
	_, err := s.Pool.Exec(ctx, `
	UPDATE alerts
	SET is_done = true, resolved_at = NOW(), resolved_reason = $2
	WHERE id = $1 AND is_done = false`, id, reason)
	if err != nil {
		return fmt.Errorf("failed to mark alert %s done: %w", id, err)
	}
	return nil
}

// GetAlert fetches a single alert by id.
func (s *Store) GetAlert(ctx context.Context, id string) (models.Alert, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = $1`, id)
	a, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Alert{}, err
		}
		return models.Alert{}, fmt.Errorf("failed to get alert %s: %w", id, err)
	}
	return a, nil
}

// AlertFilter narrows ListAlerts. Zero values mean "no filter".
type AlertFilter struct {
	Done      *bool
	Condition models.ConditionType
	SubjectID string
	Limit     int
	Offset    int
}

// ListAlerts returns alerts newest first, with the total count before paging.
func (s *Store) ListAlerts(ctx context.Context, f AlertFilter) ([]models.Alert, int, error) {
	where := ` WHERE true`
	args := []interface{}{}
	if f.Done != nil {
		args = append(args, *f.Done)
		where += fmt.Sprintf(" AND is_done = $%d", len(args))
	}
	if f.Condition != "" {
		args = append(args, string(f.Condition))
		where += fmt.Sprintf(" AND condition_type = $%d", len(args))
	}
	if f.SubjectID != "" {
		args = append(args, f.SubjectID)
		where += fmt.Sprintf(" AND subject_id = $%d", len(args))
	}

	var total int
	if err := s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM alerts`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	args = append(args, f.Limit, f.Offset)
	query := `SELECT ` + alertColumns + ` FROM alerts` + where +
		fmt.Sprintf(" ORDER BY notified_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var list []models.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan alert: %w", err)
		}
		list = append(list, a)
	}
	return list, total, rows.Err()
}

func scanAlert(row pgx.Row) (models.Alert, error) {
	var a models.Alert
	var resolvedAt *time.Time
	var resolvedReason *string
	err := row.Scan(
		&a.ID, &a.SubjectID, &a.ProductID, &a.ConditionType, &a.Stage,
		&a.ProductName, &a.Category, &a.SubCategory, &a.BatchNumber,
		&a.CurrentStock, &a.ReorderLevel, &a.RiskScore,
		&a.IsRead, &a.IsDone, &a.IsNotified,
		&a.NotifiedAt, &resolvedAt, &resolvedReason,
	)
	if err != nil {
		return models.Alert{}, err
	}
	a.ResolvedAt = resolvedAt
	if resolvedReason != nil {
		a.ResolvedReason = *resolvedReason
	}
	return a, nil
}
