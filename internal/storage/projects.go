package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
)

const sqlSelectProject = `
	SELECT id, name, description, language, target, objectives, blog_url,
	       main_site_url, competitor_urls, keyword_seeds, knowledge_base,
	       first_publish_date, avoid_cannibalization, status, archived,
	       archived_at, created_at, updated_at
	FROM projects
`

func errProjectNotFound() error {
	return coreerrors.New(coreerrors.CodeProjectNotFound, "project not found")
}

// CreateProject inserts a project. A missing status defaults to DRAFT.
func (db *DB) CreateProject(ctx context.Context, p *domain.Project) error {
	id := toUUID(p.ID)
	if !id.Valid {
		id = newID()
	}

	if p.Status == "" {
		p.Status = domain.ProjectDraft
	}

	err := db.Pool.QueryRow(ctx, `
		INSERT INTO projects (id, name, description, language, target, objectives,
		                      blog_url, main_site_url, competitor_urls, keyword_seeds,
		                      knowledge_base, first_publish_date, avoid_cannibalization,
		                      status, archived)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at
	`, id, SanitizeUTF8(p.Name), SanitizeUTF8(p.Description), p.Language, p.Target, SanitizeUTF8(p.Objectives),
		p.BlogURL, p.MainSiteURL, nonNilStrings(p.CompetitorURLs), nonNilStrings(p.KeywordSeeds),
		SanitizeUTF8(p.KnowledgeBase), toTimestamptzPtr(p.FirstPublishDate), p.AvoidCannibalization,
		string(p.Status), p.Archived).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}

	p.ID = fromUUID(id)

	return nil
}

// GetProject loads a project by id.
func (db *DB) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	p, err := scanProject(db.Pool.QueryRow(ctx, sqlSelectProject+" WHERE id = $1", toUUID(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errProjectNotFound()
		}

		return nil, fmt.Errorf("get project: %w", err)
	}

	return p, nil
}

// UpdateProjectStatus sets the project status.
func (db *DB) UpdateProjectStatus(ctx context.Context, id string, status domain.ProjectStatus) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE projects SET status = $2, updated_at = NOW() WHERE id = $1
	`, toUUID(id), string(status))
	if err != nil {
		return fmt.Errorf("update project status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return errProjectNotFound()
	}

	return nil
}

// ListProjects returns projects newest first, skipping archived ones unless
// includeArchived is set.
func (db *DB) ListProjects(ctx context.Context, includeArchived bool) ([]*domain.Project, error) {
	rows, err := db.Pool.Query(ctx, sqlSelectProject+" WHERE $1 OR NOT archived ORDER BY created_at DESC", includeArchived)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*domain.Project

	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}

		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}

	return projects, nil
}

// UpdateProject stores the editable fields of a project.
func (db *DB) UpdateProject(ctx context.Context, p *domain.Project) error {
	err := db.Pool.QueryRow(ctx, `
		UPDATE projects
		SET name = $2, description = $3, language = $4, target = $5, objectives = $6,
		    blog_url = $7, main_site_url = $8, competitor_urls = $9, keyword_seeds = $10,
		    knowledge_base = $11, first_publish_date = $12, avoid_cannibalization = $13,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, toUUID(p.ID), SanitizeUTF8(p.Name), SanitizeUTF8(p.Description), p.Language, p.Target,
		SanitizeUTF8(p.Objectives), p.BlogURL, p.MainSiteURL, nonNilStrings(p.CompetitorURLs),
		nonNilStrings(p.KeywordSeeds), SanitizeUTF8(p.KnowledgeBase), toTimestamptzPtr(p.FirstPublishDate),
		p.AvoidCannibalization).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errProjectNotFound()
		}

		return fmt.Errorf("update project: %w", err)
	}

	return nil
}

// ArchiveProject marks a project archived.
func (db *DB) ArchiveProject(ctx context.Context, id string, at time.Time) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE projects SET archived = TRUE, archived_at = $2, updated_at = NOW() WHERE id = $1
	`, toUUID(id), at)
	if err != nil {
		return fmt.Errorf("archive project: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return errProjectNotFound()
	}

	return nil
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var (
		p         domain.Project
		id        pgtype.UUID
		status    string
		firstDate pgtype.Timestamptz
		archived  pgtype.Timestamptz
	)

	err := row.Scan(&id, &p.Name, &p.Description, &p.Language, &p.Target, &p.Objectives,
		&p.BlogURL, &p.MainSiteURL, &p.CompetitorURLs, &p.KeywordSeeds, &p.KnowledgeBase,
		&firstDate, &p.AvoidCannibalization, &status, &p.Archived, &archived, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context
	}

	p.ID = fromUUID(id)
	p.Status = domain.ProjectStatus(status)
	p.FirstPublishDate = fromTimestamptzPtr(firstDate)
	p.ArchivedAt = fromTimestamptzPtr(archived)

	return &p, nil
}
