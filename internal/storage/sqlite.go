package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"pokedex/internal/models"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS teams (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	trainer    TEXT NOT NULL,
	email      TEXT NOT NULL DEFAULT '',
	members    TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_teams_created_at ON teams (created_at);
`

// SQLiteStorage stores teams in a SQLite database through the pure-Go
// modernc.org/sqlite driver. Members are kept as a JSON column.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens the database and creates the schema if needed.
func NewSQLiteStorage(config Config) (*SQLiteStorage, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required for SQLite storage")
	}

	db, err := sql.Open("sqlite", config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func (ss *SQLiteStorage) Teams(ctx context.Context) ([]*models.Team, error) {
	rows, err := ss.db.QueryContext(ctx,
		`SELECT id, name, trainer, email, members, created_at, updated_at FROM teams ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	teams := []*models.Team{}
	for rows.Next() {
		team, err := scanSQLiteTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate teams: %w", err)
	}
	sortTeams(teams)
	return teams, nil
}

func (ss *SQLiteStorage) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	row := ss.db.QueryRowContext(ctx,
		`SELECT id, name, trainer, email, members, created_at, updated_at FROM teams WHERE id = ?`, id)

	team, err := scanSQLiteTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTeamNotFound, id)
	}
	return team, err
}

func (ss *SQLiteStorage) SaveTeam(ctx context.Context, team *models.Team) error {
	if team == nil || team.ID == "" {
		return fmt.Errorf("team ID is required")
	}

	members, err := marshalMembers(team.Members)
	if err != nil {
		return err
	}

	_, err = ss.db.ExecContext(ctx, `
		INSERT INTO teams (id, name, trainer, email, members, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			trainer = excluded.trainer,
			email = excluded.email,
			members = excluded.members,
			updated_at = excluded.updated_at`,
		team.ID, team.Name, team.Trainer, team.Email, string(members),
		formatSQLiteTime(team.CreatedAt), formatSQLiteTime(team.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save team %s: %w", team.ID, err)
	}
	return nil
}

func (ss *SQLiteStorage) DeleteTeam(ctx context.Context, id string) error {
	res, err := ss.db.ExecContext(ctx, `DELETE FROM teams WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete team %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete team %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrTeamNotFound, id)
	}
	return nil
}

func (ss *SQLiteStorage) Ping(ctx context.Context) error {
	return ss.db.PingContext(ctx)
}

func (ss *SQLiteStorage) Close() error {
	return ss.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteTeam(row rowScanner) (*models.Team, error) {
	var (
		team                 models.Team
		members              string
		createdAt, updatedAt string
	)
	if err := row.Scan(&team.ID, &team.Name, &team.Trainer, &team.Email, &members, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan team: %w", err)
	}

	var err error
	if team.Members, err = unmarshalMembers([]byte(members)); err != nil {
		return nil, err
	}
	if team.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at for team %s: %w", team.ID, err)
	}
	if team.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("invalid updated_at for team %s: %w", team.ID, err)
	}
	return &team, nil
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
