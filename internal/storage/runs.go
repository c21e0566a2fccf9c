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

const sqlSelectRun = `
	SELECT id, project_id, status, previous_project_status, total_keywords,
	       total_clusters, automatic_selected, operator_selected, selected_keywords,
	       used_premium, premium_provider, fallback_selection, error_message,
	       started_at, completed_at, approved_at, created_at, updated_at
	FROM research_runs
`

func errRunNotFound() error {
	return coreerrors.New(coreerrors.CodeResearchNotFound, "research run not found")
}

func errRunInProgress() error {
	return coreerrors.New(coreerrors.CodeResearchFailed, "research already in progress")
}

// CreateRun inserts a PENDING run and moves the project to RESEARCH_PENDING.
// The project's COMPLETED and FAILED runs are deleted with their clusters
// and keywords; an APPROVED run stays until another one is approved.
func (db *DB) CreateRun(ctx context.Context, run *domain.ResearchRun) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf(errFmtBeginTx, err)
	}

	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // rollback after commit returns error, this is best-effort cleanup
	}()

	var previous string

	err = tx.QueryRow(ctx, `
		SELECT status FROM projects WHERE id = $1 FOR UPDATE
	`, toUUID(run.ProjectID)).Scan(&previous)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errProjectNotFound()
		}

		return fmt.Errorf("lock project: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM research_runs WHERE project_id = $1 AND status IN ($2, $3)
	`, toUUID(run.ProjectID), string(domain.RunCompleted), string(domain.RunFailed)); err != nil {
		return fmt.Errorf("delete superseded research runs: %w", err)
	}

	id := newID()

	err = tx.QueryRow(ctx, `
		INSERT INTO research_runs (id, project_id, status, previous_project_status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, id, toUUID(run.ProjectID), string(domain.RunPending), previous).Scan(&run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, constraintOneActiveRun) {
			return errRunInProgress()
		}

		return fmt.Errorf("insert research run: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE projects SET status = $2, updated_at = NOW() WHERE id = $1
	`, toUUID(run.ProjectID), string(domain.ProjectResearchPending)); err != nil {
		return fmt.Errorf("update project status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf(errFmtCommitTx, err)
	}

	run.ID = fromUUID(id)
	run.Status = domain.RunPending
	run.PreviousProjectStatus = domain.ProjectStatus(previous)

	return nil
}

// GetRun loads a research run by id.
func (db *DB) GetRun(ctx context.Context, id string) (*domain.ResearchRun, error) {
	run, err := scanRun(db.Pool.QueryRow(ctx, sqlSelectRun+" WHERE id = $1", toUUID(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errRunNotFound()
		}

		return nil, fmt.Errorf("get research run: %w", err)
	}

	return run, nil
}

// GetApprovedRun returns the project's approved run or nil.
func (db *DB) GetApprovedRun(ctx context.Context, projectID string) (*domain.ResearchRun, error) {
	run, err := scanRun(db.Pool.QueryRow(ctx, sqlSelectRun+" WHERE project_id = $1 AND status = $2",
		toUUID(projectID), string(domain.RunApproved)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil //nolint:nilnil // nil,nil indicates no approved run
		}

		return nil, fmt.Errorf("get approved research run: %w", err)
	}

	return run, nil
}

// ClaimPendingRun moves the oldest PENDING run to IN_PROGRESS.
// Concurrent workers skip rows already claimed by another transaction.
func (db *DB) ClaimPendingRun(ctx context.Context) (*domain.ResearchRun, error) {
	run, err := scanRun(db.Pool.QueryRow(ctx, `
		WITH next AS (
			SELECT id FROM research_runs
			WHERE status = $1
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE research_runs r
		SET status = $2, started_at = NOW(), updated_at = NOW()
		FROM next
		WHERE r.id = next.id
		RETURNING r.id, r.project_id, r.status, r.previous_project_status, r.total_keywords,
		          r.total_clusters, r.automatic_selected, r.operator_selected, r.selected_keywords,
		          r.used_premium, r.premium_provider, r.fallback_selection, r.error_message,
		          r.started_at, r.completed_at, r.approved_at, r.created_at, r.updated_at
	`, string(domain.RunPending), string(domain.RunInProgress)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil //nolint:nilnil // nil,nil indicates no pending run
		}

		return nil, fmt.Errorf("claim pending research run: %w", err)
	}

	return run, nil
}

// StartRun moves the given PENDING run to IN_PROGRESS.
func (db *DB) StartRun(ctx context.Context, id string) (*domain.ResearchRun, error) {
	run, err := scanRun(db.Pool.QueryRow(ctx, `
		UPDATE research_runs
		SET status = $2, started_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING id, project_id, status, previous_project_status, total_keywords,
		          total_clusters, automatic_selected, operator_selected, selected_keywords,
		          used_premium, premium_provider, fallback_selection, error_message,
		          started_at, completed_at, approved_at, created_at, updated_at
	`, toUUID(id), string(domain.RunInProgress), string(domain.RunPending)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := db.GetRun(ctx, id); getErr != nil {
				return nil, getErr
			}

			return nil, coreerrors.New(coreerrors.CodeResearchFailed, "research run is not pending")
		}

		return nil, fmt.Errorf("start research run: %w", err)
	}

	return run, nil
}

// CompleteRun stores the final counters and marks the run COMPLETED.
func (db *DB) CompleteRun(ctx context.Context, run *domain.ResearchRun) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf(errFmtBeginTx, err)
	}

	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // rollback after commit returns error, this is best-effort cleanup
	}()

	var projectID pgtype.UUID

	err = tx.QueryRow(ctx, `
		UPDATE research_runs
		SET status = $2, total_keywords = $3, total_clusters = $4,
		    automatic_selected = $5, operator_selected = $6, selected_keywords = $7,
		    used_premium = $8, premium_provider = $9, fallback_selection = $10,
		    completed_at = NOW(), updated_at = NOW()
		WHERE id = $1
		RETURNING project_id
	`, toUUID(run.ID), string(domain.RunCompleted), run.TotalKeywords, run.TotalClusters,
		run.AutomaticSelected, run.OperatorSelected, run.SelectedKeywords,
		run.UsedPremium, run.PremiumProvider, run.FallbackSelection).Scan(&projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errRunNotFound()
		}

		return fmt.Errorf("complete research run: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE projects SET status = $2, updated_at = NOW() WHERE id = $1
	`, projectID, string(domain.ProjectResearchReady)); err != nil {
		return fmt.Errorf("update project status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf(errFmtCommitTx, err)
	}

	return nil
}

// FailRun marks the run FAILED and restores the project's pre-run status.
func (db *DB) FailRun(ctx context.Context, id, message string) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf(errFmtBeginTx, err)
	}

	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // rollback after commit returns error, this is best-effort cleanup
	}()

	var (
		projectID pgtype.UUID
		previous  string
	)

	err = tx.QueryRow(ctx, `
		UPDATE research_runs
		SET status = $2, error_message = $3, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1
		RETURNING project_id, previous_project_status
	`, toUUID(id), string(domain.RunFailed), SanitizeUTF8(message)).Scan(&projectID, &previous)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errRunNotFound()
		}

		return fmt.Errorf("fail research run: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE projects SET status = $2, updated_at = NOW() WHERE id = $1
	`, projectID, previous); err != nil {
		return fmt.Errorf("restore project status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf(errFmtCommitTx, err)
	}

	return nil
}

// FailStaleRuns fails every IN_PROGRESS run started before cutoff and
// restores each project's pre-run status. It returns how many runs it failed.
func (db *DB) FailStaleRuns(ctx context.Context, cutoff time.Time, message string) (int, error) {
	tag, err := db.Pool.Exec(ctx, `
		WITH stale AS (
			UPDATE research_runs
			SET status = $2, error_message = $3, completed_at = NOW(), updated_at = NOW()
			WHERE status = $1 AND started_at < $4
			RETURNING project_id, previous_project_status
		)
		UPDATE projects p
		SET status = stale.previous_project_status, updated_at = NOW()
		FROM stale
		WHERE p.id = stale.project_id
	`, string(domain.RunInProgress), string(domain.RunFailed), SanitizeUTF8(message), cutoff)
	if err != nil {
		return 0, fmt.Errorf("fail stale research runs: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// ApproveRun marks a COMPLETED run APPROVED and demotes the project's
// previously approved run.
func (db *DB) ApproveRun(ctx context.Context, id string, at time.Time) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf(errFmtBeginTx, err)
	}

	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // rollback after commit returns error, this is best-effort cleanup
	}()

	var (
		projectID pgtype.UUID
		status    string
	)

	err = tx.QueryRow(ctx, `
		SELECT project_id, status FROM research_runs WHERE id = $1 FOR UPDATE
	`, toUUID(id)).Scan(&projectID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errRunNotFound()
		}

		return fmt.Errorf("lock research run: %w", err)
	}

	if domain.RunStatus(status) != domain.RunCompleted {
		return coreerrors.Newf(coreerrors.CodeValidationFailed, "research run is %s, not COMPLETED", status)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE research_runs
		SET status = $3, approved_at = NULL, updated_at = NOW()
		WHERE project_id = $1 AND status = $2
	`, projectID, string(domain.RunApproved), string(domain.RunCompleted)); err != nil {
		return fmt.Errorf("demote approved research run: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE research_runs SET status = $2, approved_at = $3, updated_at = NOW() WHERE id = $1
	`, toUUID(id), string(domain.RunApproved), at); err != nil {
		return fmt.Errorf("approve research run: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE projects SET status = $2, updated_at = NOW() WHERE id = $1
	`, projectID, string(domain.ProjectStrategyReady)); err != nil {
		return fmt.Errorf("update project status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf(errFmtCommitTx, err)
	}

	return nil
}

// UpdateRunCounts stores selection counters.
func (db *DB) UpdateRunCounts(ctx context.Context, runID string, counts domain.SelectionCounts) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE research_runs
		SET automatic_selected = $2, operator_selected = $3, selected_keywords = $4, updated_at = NOW()
		WHERE id = $1
	`, toUUID(runID), counts.Automatic, counts.Operator, counts.Selected)
	if err != nil {
		return fmt.Errorf("update research run counts: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return errRunNotFound()
	}

	return nil
}

func scanRun(row pgx.Row) (*domain.ResearchRun, error) {
	var (
		run       domain.ResearchRun
		id        pgtype.UUID
		projectID pgtype.UUID
		status    string
		previous  string
		started   pgtype.Timestamptz
		completed pgtype.Timestamptz
		approved  pgtype.Timestamptz
	)

	err := row.Scan(&id, &projectID, &status, &previous, &run.TotalKeywords,
		&run.TotalClusters, &run.AutomaticSelected, &run.OperatorSelected, &run.SelectedKeywords,
		&run.UsedPremium, &run.PremiumProvider, &run.FallbackSelection, &run.ErrorMessage,
		&started, &completed, &approved, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context
	}

	run.ID = fromUUID(id)
	run.ProjectID = fromUUID(projectID)
	run.Status = domain.RunStatus(status)
	run.PreviousProjectStatus = domain.ProjectStatus(previous)
	run.StartedAt = fromTimestamptzPtr(started)
	run.CompletedAt = fromTimestamptzPtr(completed)
	run.ApprovedAt = fromTimestamptzPtr(approved)

	return &run, nil
}
