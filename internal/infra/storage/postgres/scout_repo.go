package postgres

import (
	"context"
	"fmt"

	"github.com/vietddude/dbguard/internal/core/domain"
)

// ScoutRepo implements storage.ScoutRepository using PostgreSQL.
type ScoutRepo struct {
	db *DB
}

// NewScoutRepo creates a new PostgreSQL scout repository.
func NewScoutRepo(db *DB) *ScoutRepo {
	return &ScoutRepo{db: db}
}

// Create saves a scout.
func (r *ScoutRepo) Create(ctx context.Context, s *domain.Scout) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO scouts (id, name, level, total_reports, created_at)
		VALUES (:id, :name, :level, :total_reports, :created_at)`, s)
	return err
}

// GetByID retrieves a scout by ID.
func (r *ScoutRepo) GetByID(ctx context.Context, id string) (*domain.Scout, error) {
	var s domain.Scout
	if err := r.db.GetContext(ctx, &s, `SELECT * FROM scouts WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &s, nil
}

// AddReport inserts the report and increments the scout's counter in one transaction.
func (r *ScoutRepo) AddReport(ctx context.Context, rep *domain.Report) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO reports (id, scout_id, player_id, rating, notes, created_at)
		VALUES (:id, :scout_id, :player_id, :rating, :notes, :created_at)`, rep); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE scouts SET total_reports = total_reports + 1 WHERE id = $1`, rep.ScoutID); err != nil {
		return fmt.Errorf("failed to bump report count: %w", err)
	}

	return tx.Commit()
}

// ListReports retrieves a scout's reports, newest first.
func (r *ScoutRepo) ListReports(ctx context.Context, scoutID string) ([]*domain.Report, error) {
	reports := []*domain.Report{}
	err := r.db.SelectContext(ctx, &reports,
		`SELECT * FROM reports WHERE scout_id = $1 ORDER BY created_at DESC`, scoutID)
	if err != nil {
		return nil, err
	}
	return reports, nil
}
