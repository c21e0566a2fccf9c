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
	"github.com/lueurxax/editorial-planner/internal/core/ports"
)

const (
	sqlSelectSession = `
	SELECT id, project_id, research_run_id, status, completed_at, created_at
	FROM strategy_sessions
`

	sqlSelectVersion = `
	SELECT id, session_id, version_number, is_active, global_rationale,
	       identified_gaps, activated_at, replaced_by_id, replaced_at, created_at
	FROM strategy_versions
`

	sqlSelectItem = `
	SELECT id, version_id, pillar_id, order_index, title, primary_keyword,
	       secondary_keywords, intent, funnel, publish_date, rationale, metrics,
	       internal_links, external_links, status, approved_at, rejection_reason,
	       manually_edited, confidence, warnings, validated_at, kb_snapshot,
	       created_at, updated_at
	FROM content_items
`
)

// queryer is satisfied by both the pool and a transaction.
type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func errSessionNotFound() error {
	return coreerrors.New(coreerrors.CodeSessionNotFound, "strategy session not found")
}

func errVersionNotFound() error {
	return coreerrors.New(coreerrors.CodeStrategyNotFound, "strategy version not found")
}

func errItemNotFound() error {
	return coreerrors.New(coreerrors.CodePostNotFound, "content item not found")
}

// CreateSession inserts an ACTIVE session for a project.
func (db *DB) CreateSession(ctx context.Context, s *domain.StrategySession) error {
	id := newID()

	err := db.Pool.QueryRow(ctx, `
		INSERT INTO strategy_sessions (id, project_id, research_run_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, id, toUUID(s.ProjectID), toUUID(s.ResearchRunID), string(domain.SessionActive)).Scan(&s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, constraintOneOpenSession) {
			return coreerrors.New(coreerrors.CodeInvalidInput, "project already has an open strategy session")
		}

		return fmt.Errorf("insert strategy session: %w", err)
	}

	s.ID = fromUUID(id)
	s.Status = domain.SessionActive

	return nil
}

// GetSession loads a session by id.
func (db *DB) GetSession(ctx context.Context, id string) (*domain.StrategySession, error) {
	s, err := scanSession(db.Pool.QueryRow(ctx, sqlSelectSession+" WHERE id = $1", toUUID(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errSessionNotFound()
		}

		return nil, fmt.Errorf("get strategy session: %w", err)
	}

	return s, nil
}

// GetOpenSession returns the project's ACTIVE session or nil.
func (db *DB) GetOpenSession(ctx context.Context, projectID string) (*domain.StrategySession, error) {
	s, err := scanSession(db.Pool.QueryRow(ctx, sqlSelectSession+" WHERE project_id = $1 AND status = $2",
		toUUID(projectID), string(domain.SessionActive)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil //nolint:nilnil // nil,nil indicates no open session
		}

		return nil, fmt.Errorf("get open strategy session: %w", err)
	}

	return s, nil
}

// CreateVersion numbers the version after the session's highest one and
// stores it with its pillars and items in one transaction.
func (db *DB) CreateVersion(ctx context.Context, v *domain.StrategyVersion) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf(errFmtBeginTx, err)
	}

	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // rollback after commit returns error, this is best-effort cleanup
	}()

	var locked pgtype.UUID

	// The session row lock serializes version numbering.
	if err := tx.QueryRow(ctx, `
		SELECT id FROM strategy_sessions WHERE id = $1 FOR UPDATE
	`, toUUID(v.SessionID)).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errSessionNotFound()
		}

		return fmt.Errorf("lock strategy session: %w", err)
	}

	var maxVersion int

	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(version_number), 0) FROM strategy_versions WHERE session_id = $1
	`, locked).Scan(&maxVersion); err != nil {
		return fmt.Errorf("read max version number: %w", err)
	}

	versionID := newID()
	v.VersionNumber = maxVersion + 1
	v.IsActive = maxVersion == 0

	var activatedAt pgtype.Timestamptz

	err = tx.QueryRow(ctx, `
		INSERT INTO strategy_versions (id, session_id, version_number, is_active,
		                               global_rationale, identified_gaps, activated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CASE WHEN $4 THEN NOW() END)
		RETURNING created_at, activated_at
	`, versionID, locked, v.VersionNumber, v.IsActive, SanitizeUTF8(v.GlobalRationale),
		SanitizeUTF8(v.IdentifiedGaps)).Scan(&v.CreatedAt, &activatedAt)
	if err != nil {
		return fmt.Errorf("insert strategy version: %w", err)
	}

	v.ID = fromUUID(versionID)
	v.ActivatedAt = fromTimestamptzPtr(activatedAt)

	if err := insertPillars(ctx, tx, v); err != nil {
		return err
	}

	if err := insertItems(ctx, tx, v); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf(errFmtCommitTx, err)
	}

	return nil
}

func insertPillars(ctx context.Context, tx pgx.Tx, v *domain.StrategyVersion) error {
	for i := range v.Pillars {
		p := &v.Pillars[i]
		id := newID()

		if _, err := tx.Exec(ctx, `
			INSERT INTO pillars (id, version_id, name, description, rationale, color, order_index)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, id, toUUID(v.ID), SanitizeUTF8(p.Name), SanitizeUTF8(p.Description),
			SanitizeUTF8(p.Rationale), p.Color, p.OrderIndex); err != nil {
			return fmt.Errorf("insert pillar %q: %w", p.Name, err)
		}

		p.ID = fromUUID(id)
		p.VersionID = v.ID
	}

	return nil
}

func insertItems(ctx context.Context, tx pgx.Tx, v *domain.StrategyVersion) error {
	for i := range v.Items {
		item := &v.Items[i]
		id := newID()

		if item.PillarIndex >= 0 && item.PillarIndex < len(v.Pillars) {
			item.PillarID = v.Pillars[item.PillarIndex].ID
		}

		if item.Status == "" {
			item.Status = domain.ItemProposed
		}

		if item.Confidence == "" {
			item.Confidence = domain.ConfidenceHigh
		}

		err := tx.QueryRow(ctx, `
			INSERT INTO content_items (id, version_id, pillar_id, order_index, title,
			                           primary_keyword, secondary_keywords, intent, funnel,
			                           publish_date, rationale, metrics, internal_links,
			                           external_links, status, confidence)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			RETURNING created_at, updated_at
		`, id, toUUID(v.ID), toUUID(item.PillarID), item.OrderIndex, SanitizeUTF8(item.Title),
			SanitizeUTF8(item.PrimaryKeyword), nonNilStrings(item.SecondaryKeywords), string(item.Intent),
			string(item.Funnel), item.PublishDate, SanitizeUTF8(item.Rationale), item.Metrics,
			nonNilStrings(item.InternalLinks), nonNilStrings(item.ExternalLinks), string(item.Status),
			string(item.Confidence)).Scan(&item.CreatedAt, &item.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err, constraintPrimaryKeywordIdx) {
				return coreerrors.Newf(coreerrors.CodeDuplicateKeyword, "primary keyword %q is used twice", item.PrimaryKeyword)
			}

			return fmt.Errorf("insert content item %q: %w", item.Title, err)
		}

		item.ID = fromUUID(id)
		item.VersionID = v.ID
	}

	return nil
}

// GetVersion loads a version with its pillars and items.
func (db *DB) GetVersion(ctx context.Context, id string) (*domain.StrategyVersion, error) {
	v, err := loadVersion(ctx, db.Pool, sqlSelectVersion+" WHERE id = $1", toUUID(id))
	if err != nil {
		return nil, err
	}

	if v == nil {
		return nil, errVersionNotFound()
	}

	return v, nil
}

// GetActiveVersion returns the session's active version or nil.
func (db *DB) GetActiveVersion(ctx context.Context, sessionID string) (*domain.StrategyVersion, error) {
	return loadVersion(ctx, db.Pool, sqlSelectVersion+" WHERE session_id = $1 AND is_active", toUUID(sessionID))
}

// ListVersions returns the session's versions by version number.
func (db *DB) ListVersions(ctx context.Context, sessionID string) ([]*domain.StrategyVersion, error) {
	rows, err := db.Pool.Query(ctx, sqlSelectVersion+" WHERE session_id = $1 ORDER BY version_number", toUUID(sessionID))
	if err != nil {
		return nil, fmt.Errorf("query strategy versions: %w", err)
	}
	defer rows.Close()

	var versions []*domain.StrategyVersion

	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan strategy version row: %w", err)
		}

		versions = append(versions, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate strategy version rows: %w", err)
	}

	for _, v := range versions {
		if err := loadVersionChildren(ctx, db.Pool, v); err != nil {
			return nil, err
		}
	}

	return versions, nil
}

// loadVersion returns nil, nil when no row matches.
func loadVersion(ctx context.Context, q queryer, query string, args ...any) (*domain.StrategyVersion, error) {
	v, err := scanVersion(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil //nolint:nilnil // nil,nil indicates no matching version
		}

		return nil, fmt.Errorf("get strategy version: %w", err)
	}

	if err := loadVersionChildren(ctx, q, v); err != nil {
		return nil, err
	}

	return v, nil
}

func loadVersionChildren(ctx context.Context, q queryer, v *domain.StrategyVersion) error {
	pillars, err := queryPillars(ctx, q, v.ID)
	if err != nil {
		return err
	}

	items, err := queryItems(ctx, q, sqlSelectItem+" WHERE version_id = $1 ORDER BY order_index, publish_date", toUUID(v.ID))
	if err != nil {
		return err
	}

	pillarIndex := make(map[string]int, len(pillars))
	for i, p := range pillars {
		pillarIndex[p.ID] = i
	}

	for i := range items {
		if idx, ok := pillarIndex[items[i].PillarID]; ok {
			items[i].PillarIndex = idx
		}
	}

	v.Pillars = pillars
	v.Items = items

	return nil
}

func queryPillars(ctx context.Context, q queryer, versionID string) ([]domain.Pillar, error) {
	rows, err := q.Query(ctx, `
		SELECT id, version_id, name, description, rationale, color, order_index
		FROM pillars
		WHERE version_id = $1
		ORDER BY order_index
	`, toUUID(versionID))
	if err != nil {
		return nil, fmt.Errorf("query pillars: %w", err)
	}
	defer rows.Close()

	var pillars []domain.Pillar

	for rows.Next() {
		var (
			p         domain.Pillar
			id        pgtype.UUID
			versionID pgtype.UUID
		)

		if err := rows.Scan(&id, &versionID, &p.Name, &p.Description, &p.Rationale, &p.Color, &p.OrderIndex); err != nil {
			return nil, fmt.Errorf("scan pillar row: %w", err)
		}

		p.ID = fromUUID(id)
		p.VersionID = fromUUID(versionID)
		pillars = append(pillars, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pillar rows: %w", err)
	}

	return pillars, nil
}

func queryItems(ctx context.Context, q queryer, query string, args ...any) ([]domain.ContentItem, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query content items: %w", err)
	}
	defer rows.Close()

	var items []domain.ContentItem

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan content item row: %w", err)
		}

		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content item rows: %w", err)
	}

	return items, nil
}

// ApproveSession approves the active version's PROPOSED items, completes
// the session and activates the project.
func (db *DB) ApproveSession(ctx context.Context, sessionID string, at time.Time) (int, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf(errFmtBeginTx, err)
	}

	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // rollback after commit returns error, this is best-effort cleanup
	}()

	var projectID pgtype.UUID

	if err := tx.QueryRow(ctx, `
		SELECT project_id FROM strategy_sessions WHERE id = $1 FOR UPDATE
	`, toUUID(sessionID)).Scan(&projectID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errSessionNotFound()
		}

		return 0, fmt.Errorf("lock strategy session: %w", err)
	}

	var versionID pgtype.UUID

	if err := tx.QueryRow(ctx, `
		SELECT id FROM strategy_versions WHERE session_id = $1 AND is_active FOR UPDATE
	`, toUUID(sessionID)).Scan(&versionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, coreerrors.New(coreerrors.CodeNoActiveStrategy, "session has no active strategy")
		}

		return 0, fmt.Errorf("lock active strategy version: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE content_items
		SET status = $3, approved_at = $4, updated_at = NOW()
		WHERE version_id = $1 AND status = $2
	`, versionID, string(domain.ItemProposed), string(domain.ItemApproved), at)
	if err != nil {
		return 0, fmt.Errorf("approve content items: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE strategy_sessions SET status = $2, completed_at = $3 WHERE id = $1
	`, toUUID(sessionID), string(domain.SessionCompleted), at); err != nil {
		return 0, fmt.Errorf("complete strategy session: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE projects SET status = $2, updated_at = NOW() WHERE id = $1
	`, projectID, string(domain.ProjectActive)); err != nil {
		return 0, fmt.Errorf("update project status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf(errFmtCommitTx, err)
	}

	return int(tag.RowsAffected()), nil
}

// InReplaceTx runs fn in one transaction and commits only when fn succeeds.
func (db *DB) InReplaceTx(ctx context.Context, fn func(tx ports.ReplaceTx) error) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf(errFmtBeginTx, err)
	}

	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // rollback after commit returns error, this is best-effort cleanup
	}()

	if err := fn(&replaceTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf(errFmtCommitTx, err)
	}

	return nil
}

type replaceTx struct {
	tx pgx.Tx
}

func (r *replaceTx) LockActiveVersion(ctx context.Context, sessionID string) (*domain.StrategyVersion, error) {
	return loadVersion(ctx, r.tx, sqlSelectVersion+" WHERE session_id = $1 AND is_active FOR UPDATE", toUUID(sessionID))
}

func (r *replaceTx) LockVersion(ctx context.Context, id string) (*domain.StrategyVersion, error) {
	return loadVersion(ctx, r.tx, sqlSelectVersion+" WHERE id = $1 FOR UPDATE", toUUID(id))
}

func (r *replaceTx) DeactivateVersion(ctx context.Context, id, replacedByID string, at time.Time) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE strategy_versions
		SET is_active = FALSE, replaced_by_id = $2, replaced_at = $3
		WHERE id = $1
	`, toUUID(id), toUUID(replacedByID), at)
	if err != nil {
		return fmt.Errorf("deactivate strategy version: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return errVersionNotFound()
	}

	return nil
}

func (r *replaceTx) ActivateVersion(ctx context.Context, id string, at time.Time) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE strategy_versions SET is_active = TRUE, activated_at = $2 WHERE id = $1
	`, toUUID(id), at)
	if err != nil {
		return fmt.Errorf("activate strategy version: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return errVersionNotFound()
	}

	return nil
}

func (r *replaceTx) RejectItems(ctx context.Context, ids []string, reason string) error {
	if len(ids) == 0 {
		return nil
	}

	if _, err := r.tx.Exec(ctx, `
		UPDATE content_items
		SET status = $2, rejection_reason = $3, updated_at = NOW()
		WHERE id = ANY($1)
	`, toUUIDs(ids), string(domain.ItemRejected), reason); err != nil {
		return fmt.Errorf("reject orphaned content items: %w", err)
	}

	return nil
}

// GetContentItem loads a content item by id.
func (db *DB) GetContentItem(ctx context.Context, id string) (*domain.ContentItem, error) {
	item, err := scanItem(db.Pool.QueryRow(ctx, sqlSelectItem+" WHERE id = $1", toUUID(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errItemNotFound()
		}

		return nil, fmt.Errorf("get content item: %w", err)
	}

	return item, nil
}

// UpdateContentItem stores the editable fields of an item.
func (db *DB) UpdateContentItem(ctx context.Context, item *domain.ContentItem) error {
	err := db.Pool.QueryRow(ctx, `
		UPDATE content_items
		SET title = $2, primary_keyword = $3, secondary_keywords = $4, intent = $5,
		    funnel = $6, publish_date = $7, rationale = $8, status = $9,
		    manually_edited = $10, rejection_reason = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, toUUID(item.ID), SanitizeUTF8(item.Title), SanitizeUTF8(item.PrimaryKeyword),
		nonNilStrings(item.SecondaryKeywords), string(item.Intent), string(item.Funnel),
		item.PublishDate, SanitizeUTF8(item.Rationale), string(item.Status), item.ManuallyEdited,
		item.RejectionReason).Scan(&item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errItemNotFound()
		}

		if isUniqueViolation(err, constraintPrimaryKeywordIdx) {
			return coreerrors.Newf(coreerrors.CodeDuplicateKeyword, "primary keyword %q is already used", item.PrimaryKeyword)
		}

		return fmt.Errorf("update content item: %w", err)
	}

	return nil
}

// UpdatePublishDates moves every item in one transaction, marking each
// MODIFIED and manually edited. An unknown item rolls the whole move back.
func (db *DB) UpdatePublishDates(ctx context.Context, dates map[string]time.Time) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf(errFmtBeginTx, err)
	}

	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // rollback after commit returns error, this is best-effort cleanup
	}()

	for id, date := range dates {
		tag, err := tx.Exec(ctx, `
			UPDATE content_items
			SET publish_date = $2, status = $3, manually_edited = TRUE, updated_at = NOW()
			WHERE id = $1
		`, toUUID(id), date, string(domain.ItemModified))
		if err != nil {
			return fmt.Errorf("update publish date: %w", err)
		}

		if tag.RowsAffected() == 0 {
			return errItemNotFound()
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf(errFmtCommitTx, err)
	}

	return nil
}

// SaveValidation stores a validation verdict on its item.
func (db *DB) SaveValidation(ctx context.Context, result domain.ValidationResult) error {
	warnings := result.Warnings
	if warnings == nil {
		warnings = []domain.Warning{}
	}

	tag, err := db.Pool.Exec(ctx, `
		UPDATE content_items
		SET confidence = $2, warnings = $3, kb_snapshot = $4, validated_at = $5, updated_at = NOW()
		WHERE id = $1
	`, toUUID(result.ItemID), string(result.Confidence), warnings, SanitizeUTF8(result.KBSnapshot), result.ValidatedAt)
	if err != nil {
		return fmt.Errorf("save validation result: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return errItemNotFound()
	}

	return nil
}

func scanSession(row pgx.Row) (*domain.StrategySession, error) {
	var (
		s         domain.StrategySession
		id        pgtype.UUID
		projectID pgtype.UUID
		runID     pgtype.UUID
		status    string
		completed pgtype.Timestamptz
	)

	if err := row.Scan(&id, &projectID, &runID, &status, &completed, &s.CreatedAt); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context
	}

	s.ID = fromUUID(id)
	s.ProjectID = fromUUID(projectID)
	s.ResearchRunID = fromUUID(runID)
	s.Status = domain.SessionStatus(status)
	s.CompletedAt = fromTimestamptzPtr(completed)

	return &s, nil
}

func scanVersion(row pgx.Row) (*domain.StrategyVersion, error) {
	var (
		v          domain.StrategyVersion
		id         pgtype.UUID
		sessionID  pgtype.UUID
		replacedBy pgtype.UUID
		activated  pgtype.Timestamptz
		replaced   pgtype.Timestamptz
	)

	err := row.Scan(&id, &sessionID, &v.VersionNumber, &v.IsActive, &v.GlobalRationale,
		&v.IdentifiedGaps, &activated, &replacedBy, &replaced, &v.CreatedAt)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context
	}

	v.ID = fromUUID(id)
	v.SessionID = fromUUID(sessionID)
	v.ReplacedByID = fromUUID(replacedBy)
	v.ActivatedAt = fromTimestamptzPtr(activated)
	v.ReplacedAt = fromTimestamptzPtr(replaced)

	return &v, nil
}

func scanItem(row pgx.Row) (*domain.ContentItem, error) {
	var (
		item      domain.ContentItem
		id        pgtype.UUID
		versionID pgtype.UUID
		pillarID  pgtype.UUID
		intent    string
		funnel    string
		status    string
		conf      string
		approved  pgtype.Timestamptz
		validated pgtype.Timestamptz
	)

	err := row.Scan(&id, &versionID, &pillarID, &item.OrderIndex, &item.Title, &item.PrimaryKeyword,
		&item.SecondaryKeywords, &intent, &funnel, &item.PublishDate, &item.Rationale, &item.Metrics,
		&item.InternalLinks, &item.ExternalLinks, &status, &approved, &item.RejectionReason,
		&item.ManuallyEdited, &conf, &item.Warnings, &validated, &item.KBSnapshot,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context
	}

	item.ID = fromUUID(id)
	item.VersionID = fromUUID(versionID)
	item.PillarID = fromUUID(pillarID)
	item.Intent = domain.SearchIntent(intent)
	item.Funnel = domain.FunnelStage(funnel)
	item.Status = domain.ItemStatus(status)
	item.Confidence = domain.Confidence(conf)
	item.ApprovedAt = fromTimestamptzPtr(approved)
	item.ValidatedAt = fromTimestamptzPtr(validated)

	return &item, nil
}
