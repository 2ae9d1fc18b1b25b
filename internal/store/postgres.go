package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"docugen/api/internal/model"
)

const pgUniqueViolation = "23505"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetProjects returns every project owned by userID, newest update first.
func (s *PostgresStore) GetProjects(ctx context.Context, userID string) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, type, main_topic, sections, created_at, updated_at
		FROM projects
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, storeErr("list projects", err)
	}
	defer rows.Close()

	items := make([]model.Project, 0)
	for rows.Next() {
		var row projectRow
		if err := rows.Scan(&row.ID, &row.UserID, &row.Title, &row.Type, &row.MainTopic, &row.Sections, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, storeErr("scan project", err)
		}
		project, err := projectFromRow(row)
		if err != nil {
			return nil, storeErr("map project", err)
		}
		items = append(items, project)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate projects", err)
	}
	return items, nil
}

func (s *PostgresStore) GetProject(ctx context.Context, projectID, userID string) (model.Project, error) {
	var row projectRow
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, type, main_topic, sections, created_at, updated_at
		FROM projects
		WHERE id = $1 AND user_id = $2
	`, projectID, userID).Scan(&row.ID, &row.UserID, &row.Title, &row.Type, &row.MainTopic, &row.Sections, &row.CreatedAt, &row.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, storeErr("get project", ErrNotFound)
	}
	if err != nil {
		return model.Project{}, storeErr("get project", err)
	}
	project, err := projectFromRow(row)
	if err != nil {
		return model.Project{}, storeErr("map project", err)
	}
	return project, nil
}

// CreateProject inserts one row keyed by the project's own id.
func (s *PostgresStore) CreateProject(ctx context.Context, project model.Project, userID string) error {
	row, err := rowFromProject(project, userID)
	if err != nil {
		return storeErr("create project", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (id, user_id, title, type, main_topic, sections, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, row.ID, row.UserID, row.Title, row.Type, row.MainTopic, row.Sections, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return storeErr("create project", ErrDuplicateID)
		}
		return storeErr("create project", err)
	}
	return nil
}

// UpdateProject rewrites title and the whole section sequence. updated_at is
// server-assigned, never the caller's value; the stored shape is returned so
// callers can observe the new timestamp.
func (s *PostgresStore) UpdateProject(ctx context.Context, project model.Project) (model.Project, error) {
	sections, err := encodeSections(project.Sections)
	if err != nil {
		return model.Project{}, storeErr("update project", err)
	}
	var row projectRow
	err = s.db.QueryRowContext(ctx, `
		UPDATE projects
		SET title = $2, sections = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, user_id, title, type, main_topic, sections, created_at, updated_at
	`, project.ID, project.Title, sections).Scan(&row.ID, &row.UserID, &row.Title, &row.Type, &row.MainTopic, &row.Sections, &row.CreatedAt, &row.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, storeErr("update project", ErrNotFound)
	}
	if err != nil {
		return model.Project{}, storeErr("update project", err)
	}
	updated, err := projectFromRow(row)
	if err != nil {
		return model.Project{}, storeErr("map project", err)
	}
	return updated, nil
}

// UpsertProfile writes the denormalized profile row keyed by user id.
// Duplicate upserts are harmless; the same id wins every time.
func (s *PostgresStore) UpsertProfile(ctx context.Context, profile Profile) error {
	updatedAt := profile.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, email, full_name, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, full_name = EXCLUDED.full_name, updated_at = EXCLUDED.updated_at
	`, profile.ID, profile.Email, profile.FullName, updatedAt)
	if err != nil {
		return storeErr("upsert profile", err)
	}
	return nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, userID string) (Profile, error) {
	var profile Profile
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, full_name, updated_at FROM profiles WHERE id = $1
	`, userID).Scan(&profile.ID, &profile.Email, &profile.FullName, &profile.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, storeErr("get profile", ErrNotFound)
	}
	if err != nil {
		return Profile{}, storeErr("get profile", fmt.Errorf("query profile: %w", err))
	}
	return profile, nil
}
