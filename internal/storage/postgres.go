package storage

import (
	"context"
	"errors"
	"fmt"
	"pokedex/internal/models"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS teams (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	trainer    TEXT NOT NULL,
	email      TEXT NOT NULL DEFAULT '',
	members    JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_teams_created_at ON teams (created_at);
`

const postgresSelectTeam = `SELECT id, name, trainer, email, members, created_at, updated_at FROM teams`

// PostgresStorage implements the Storage interface using PostgreSQL.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage creates a new PostgreSQL storage instance and ensures
// the teams table exists.
func NewPostgresStorage(config Config) (*PostgresStorage, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required for PostgreSQL storage")
	}

	poolConfig, err := pgxpool.ParseConfig(config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if config.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(min(config.MaxIdleConns, int(poolConfig.MaxConns)))
	}
	if config.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = config.ConnMaxLifetime
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresStorage{pool: pool}, nil
}

// Teams returns all teams, oldest first.
func (ps *PostgresStorage) Teams(ctx context.Context) ([]*models.Team, error) {
	rows, err := ps.pool.Query(ctx, postgresSelectTeam+` ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get teams: %w", err)
	}
	defer rows.Close()

	teams := []*models.Team{}
	for rows.Next() {
		team, err := scanPgTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate teams: %w", err)
	}
	return teams, nil
}

// GetTeam retrieves a team by its ID.
func (ps *PostgresStorage) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	team, err := scanPgTeam(ps.pool.QueryRow(ctx, postgresSelectTeam+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrTeamNotFound, id)
		}
		return nil, err
	}
	return team, nil
}

// SaveTeam stores or updates a team (upsert pattern).
func (ps *PostgresStorage) SaveTeam(ctx context.Context, team *models.Team) error {
	if team == nil || team.ID == "" {
		return fmt.Errorf("team ID is required")
	}

	members, err := marshalMembers(team.Members)
	if err != nil {
		return err
	}

	_, err = ps.pool.Exec(ctx, `
		INSERT INTO teams (id, name, trainer, email, members, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			trainer = EXCLUDED.trainer,
			email = EXCLUDED.email,
			members = EXCLUDED.members,
			updated_at = EXCLUDED.updated_at`,
		team.ID, team.Name, team.Trainer, team.Email, string(members), team.CreatedAt, team.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save team %s: %w", team.ID, err)
	}
	return nil
}

// DeleteTeam removes a team by its ID.
func (ps *PostgresStorage) DeleteTeam(ctx context.Context, id string) error {
	tag, err := ps.pool.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete team %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrTeamNotFound, id)
	}
	return nil
}

// Ping checks database connectivity.
func (ps *PostgresStorage) Ping(ctx context.Context) error {
	return ps.pool.Ping(ctx)
}

// Close closes the connection pool.
func (ps *PostgresStorage) Close() error {
	ps.pool.Close()
	return nil
}

func scanPgTeam(row pgx.Row) (*models.Team, error) {
	var (
		team    models.Team
		members []byte
	)
	err := row.Scan(&team.ID, &team.Name, &team.Trainer, &team.Email, &members, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan team: %w", err)
	}

	if team.Members, err = unmarshalMembers(members); err != nil {
		return nil, fmt.Errorf("failed to convert team %s: %w", team.ID, err)
	}
	team.CreatedAt = team.CreatedAt.UTC()
	team.UpdatedAt = team.UpdatedAt.UTC()
	return &team, nil
}
