package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/canonica-labs/esql/pkg/models"
)

// SQLiteRepository implements ProfileRepository on a SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ProfileRepository = (*SQLiteRepository)(nil)

// OpenSQLite opens (creating if needed) the database at path and runs the
// pending migrations. ":memory:" opens a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile store: %w", err)
	}
	// one connection keeps :memory: databases alive and serializes writers
	db.SetMaxOpenConns(1)

	if err := NewMigrationRunner(db).Run(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return NewSQLiteRepository(db), nil
}

// NewSQLiteRepository wraps an already migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Close closes the database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Create registers a new profile.
func (r *SQLiteRepository) Create(ctx context.Context, p *models.ConnectionProfile) error {
	if err := p.Validate(); err != nil {
		return invalidProfile("add profile", err)
	}

	exists, err := r.Exists(ctx, p.Name)
	if err != nil {
		return err
	}
	if exists {
		return alreadyExists(p.Name)
	}

	now := formatTime(time.Now())
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO profiles (name, endpoint, auth_mode, username, header_name, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Endpoint, string(authMode(p)), p.Username, p.HeaderName, p.Version, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

// Get retrieves a profile by name.
func (r *SQLiteRepository) Get(ctx context.Context, name string) (*models.ConnectionProfile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT name, endpoint, auth_mode, username, header_name, version, created_at, updated_at
		 FROM profiles WHERE name = ?`,
		name,
	)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// Update modifies an existing profile.
func (r *SQLiteRepository) Update(ctx context.Context, p *models.ConnectionProfile) error {
	if err := p.Validate(); err != nil {
		return invalidProfile("update profile", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET endpoint = ?, auth_mode = ?, username = ?, header_name = ?, version = ?, updated_at = ?
		 WHERE name = ?`,
		p.Endpoint, string(authMode(p)), p.Username, p.HeaderName, p.Version, formatTime(time.Now()), p.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return requireAffected(res, p.Name)
}

// Delete removes a profile by name.
func (r *SQLiteRepository) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return requireAffected(res, name)
}

// List returns all profiles ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]*models.ConnectionProfile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, endpoint, auth_mode, username, header_name, version, created_at, updated_at
		 FROM profiles ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	out := make([]*models.ConnectionProfile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}
	return out, nil
}

// Exists checks if a profile exists.
func (r *SQLiteRepository) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM profiles WHERE name = ?)`, name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check profile existence: %w", err)
	}
	return exists, nil
}

// CheckConnectivity verifies the database is reachable.
func (r *SQLiteRepository) CheckConnectivity(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(s scanner) (*models.ConnectionProfile, error) {
	var (
		p                    models.ConnectionProfile
		mode                 string
		createdAt, updatedAt string
	)
	if err := s.Scan(&p.Name, &p.Endpoint, &mode, &p.Username, &p.HeaderName, &p.Version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.AuthMode = models.AuthMode(mode)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

func requireAffected(res sql.Result, name string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(name)
	}
	return nil
}

func authMode(p *models.ConnectionProfile) models.AuthMode {
	if strings.TrimSpace(string(p.AuthMode)) == "" {
		return models.AuthNone
	}
	return p.AuthMode
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
