package postgres

import (
	"context"
	"database/sql"

	"github.com/vietddude/dbguard/internal/core/domain"
)

// PlayerRepo implements storage.PlayerRepository using PostgreSQL.
// Driver errors are returned as-is.
type PlayerRepo struct {
	db *DB
}

// NewPlayerRepo creates a new PostgreSQL player repository.
func NewPlayerRepo(db *DB) *PlayerRepo {
	return &PlayerRepo{db: db}
}

// Create saves a player to the database.
func (r *PlayerRepo) Create(ctx context.Context, p *domain.Player) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO players (id, name, position, team_name, rating, created_at, updated_at)
		VALUES (:id, :name, :position, :team_name, :rating, :created_at, :updated_at)`, p)
	return err
}

// GetByID retrieves a player by ID.
func (r *PlayerRepo) GetByID(ctx context.Context, id string) (*domain.Player, error) {
	var p domain.Player
	if err := r.db.GetContext(ctx, &p, `SELECT * FROM players WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// List retrieves players, highest rated first.
func (r *PlayerRepo) List(ctx context.Context, limit, offset int) ([]*domain.Player, error) {
	players := []*domain.Player{}
	err := r.db.SelectContext(ctx, &players,
		`SELECT * FROM players ORDER BY rating DESC, name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	return players, nil
}

// Delete removes a player. Deleting a missing player reports not found.
func (r *PlayerRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
