package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
)

const (
	sqlSelectKeyword = `
	SELECT id, run_id, cluster_id, text, free_volume, free_difficulty,
	       premium_volume, premium_difficulty, premium_cpc, premium_competition,
	       serp_features, intent, funnel, overlap, overlap_url, selection,
	       selection_rationale, source, source_url, created_at, updated_at
	FROM keywords
`

	sqlSelectCluster = `
	SELECT id, run_id, name, order_index, total_keywords, avg_difficulty,
	       total_volume, dominant_funnel, dominant_intent, priority_score,
	       selection, rationale
	FROM keyword_clusters
`

	sqlUpsertCluster = `
	INSERT INTO keyword_clusters (id, run_id, name, order_index, total_keywords,
	                              avg_difficulty, total_volume, dominant_funnel,
	                              dominant_intent, priority_score, selection, rationale)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		order_index = EXCLUDED.order_index,
		total_keywords = EXCLUDED.total_keywords,
		avg_difficulty = EXCLUDED.avg_difficulty,
		total_volume = EXCLUDED.total_volume,
		dominant_funnel = EXCLUDED.dominant_funnel,
		dominant_intent = EXCLUDED.dominant_intent,
		priority_score = EXCLUDED.priority_score,
		selection = EXCLUDED.selection,
		rationale = EXCLUDED.rationale
`

	sqlUpsertKeyword = `
	INSERT INTO keywords (id, run_id, cluster_id, text, free_volume, free_difficulty,
	                      premium_volume, premium_difficulty, premium_cpc, premium_competition,
	                      serp_features, intent, funnel, overlap, overlap_url, selection,
	                      selection_rationale, source, source_url)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	ON CONFLICT (run_id, text) DO UPDATE SET
		cluster_id = EXCLUDED.cluster_id,
		free_volume = EXCLUDED.free_volume,
		free_difficulty = EXCLUDED.free_difficulty,
		premium_volume = EXCLUDED.premium_volume,
		premium_difficulty = EXCLUDED.premium_difficulty,
		premium_cpc = EXCLUDED.premium_cpc,
		premium_competition = EXCLUDED.premium_competition,
		serp_features = EXCLUDED.serp_features,
		intent = EXCLUDED.intent,
		funnel = EXCLUDED.funnel,
		overlap = EXCLUDED.overlap,
		overlap_url = EXCLUDED.overlap_url,
		selection = EXCLUDED.selection,
		selection_rationale = EXCLUDED.selection_rationale,
		source = EXCLUDED.source,
		source_url = EXCLUDED.source_url,
		updated_at = NOW()
	RETURNING id, created_at, updated_at
`
)

// SaveClusters upserts clusters by id.
func (db *DB) SaveClusters(ctx context.Context, clusters []*domain.Cluster) error {
	if len(clusters) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	ids := make([]pgtype.UUID, len(clusters))

	for i, c := range clusters {
		ids[i] = toUUID(c.ID)
		if !ids[i].Valid {
			ids[i] = newID()
		}

		batch.Queue(sqlUpsertCluster, ids[i], toUUID(c.RunID), SanitizeUTF8(c.Name), c.OrderIndex,
			c.TotalKeywords, c.AvgDifficulty, c.TotalVolume, string(c.DominantFunnel),
			string(c.DominantIntent), c.PriorityScore, string(c.Selection), SanitizeUTF8(c.Rationale))
	}

	results := db.Pool.SendBatch(ctx, batch)

	for i := range clusters {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()

			return fmt.Errorf("upsert cluster %q: %w", clusters[i].Name, err)
		}

		clusters[i].ID = fromUUID(ids[i])
	}

	if err := results.Close(); err != nil {
		return fmt.Errorf("close cluster batch: %w", err)
	}

	return nil
}

// SaveKeywords upserts keywords by (run, text). Ids of existing rows are
// written back into the given keywords.
func (db *DB) SaveKeywords(ctx context.Context, keywords []*domain.Keyword) error {
	if len(keywords) == 0 {
		return nil
	}

	batch := &pgx.Batch{}

	for _, kw := range keywords {
		id := toUUID(kw.ID)
		if !id.Valid {
			id = newID()
		}

		batch.Queue(sqlUpsertKeyword, id, toUUID(kw.RunID), toUUID(kw.ClusterID), SanitizeUTF8(kw.Text),
			kw.FreeVolume, string(kw.FreeDifficulty), toInt4Ptr(kw.PremiumVolume), toInt4Ptr(kw.PremiumDifficulty),
			toFloat8Ptr(kw.PremiumCPC), toFloat8Ptr(kw.PremiumCompetition), kw.SERP, string(kw.Intent),
			string(kw.Funnel), kw.Overlap, kw.OverlapURL, string(kw.Selection), SanitizeUTF8(kw.SelectionRationale),
			kw.Source, kw.SourceURL)
	}

	results := db.Pool.SendBatch(ctx, batch)

	for _, kw := range keywords {
		var id pgtype.UUID

		if err := results.QueryRow().Scan(&id, &kw.CreatedAt, &kw.UpdatedAt); err != nil {
			_ = results.Close()

			return fmt.Errorf("upsert keyword %q: %w", kw.Text, err)
		}

		kw.ID = fromUUID(id)
	}

	if err := results.Close(); err != nil {
		return fmt.Errorf("close keyword batch: %w", err)
	}

	return nil
}

// ListKeywords returns the run's keywords.
func (db *DB) ListKeywords(ctx context.Context, runID string) ([]*domain.Keyword, error) {
	return db.queryKeywords(ctx, sqlSelectKeyword+" WHERE run_id = $1 ORDER BY created_at, text", toUUID(runID))
}

func (db *DB) queryKeywords(ctx context.Context, query string, args ...any) ([]*domain.Keyword, error) {
	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query keywords: %w", err)
	}
	defer rows.Close()

	var keywords []*domain.Keyword

	for rows.Next() {
		kw, err := scanKeyword(rows)
		if err != nil {
			return nil, fmt.Errorf("scan keyword row: %w", err)
		}

		keywords = append(keywords, kw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keyword rows: %w", err)
	}

	return keywords, nil
}

// ListClusters returns the run's clusters by order index with their keywords.
func (db *DB) ListClusters(ctx context.Context, runID string) ([]*domain.Cluster, error) {
	rows, err := db.Pool.Query(ctx, sqlSelectCluster+" WHERE run_id = $1 ORDER BY order_index", toUUID(runID))
	if err != nil {
		return nil, fmt.Errorf("query clusters: %w", err)
	}
	defer rows.Close()

	var clusters []*domain.Cluster

	byID := make(map[string]*domain.Cluster)

	for rows.Next() {
		c, err := scanCluster(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cluster row: %w", err)
		}

		clusters = append(clusters, c)
		byID[c.ID] = c
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cluster rows: %w", err)
	}

	keywords, err := db.ListKeywords(ctx, runID)
	if err != nil {
		return nil, err
	}

	for _, kw := range keywords {
		if c, ok := byID[kw.ClusterID]; ok {
			c.Keywords = append(c.Keywords, kw)
		}
	}

	return clusters, nil
}

// GetKeyword loads a keyword by id.
func (db *DB) GetKeyword(ctx context.Context, id string) (*domain.Keyword, error) {
	kw, err := scanKeyword(db.Pool.QueryRow(ctx, sqlSelectKeyword+" WHERE id = $1", toUUID(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coreerrors.New(coreerrors.CodeKeywordNotFound, "keyword not found")
		}

		return nil, fmt.Errorf("get keyword: %w", err)
	}

	return kw, nil
}

// GetCluster loads a cluster with its keywords.
func (db *DB) GetCluster(ctx context.Context, id string) (*domain.Cluster, error) {
	c, err := scanCluster(db.Pool.QueryRow(ctx, sqlSelectCluster+" WHERE id = $1", toUUID(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coreerrors.New(coreerrors.CodeClusterNotFound, "cluster not found")
		}

		return nil, fmt.Errorf("get cluster: %w", err)
	}

	c.Keywords, err = db.queryKeywords(ctx, sqlSelectKeyword+" WHERE cluster_id = $1 ORDER BY created_at, text", toUUID(id))
	if err != nil {
		return nil, err
	}

	return c, nil
}

// UpdateKeywordSelections sets the selection of each keyword id in one transaction.
func (db *DB) UpdateKeywordSelections(ctx context.Context, selections map[string]domain.Selection) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf(errFmtBeginTx, err)
	}

	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // rollback after commit returns error, this is best-effort cleanup
	}()

	for id, sel := range selections {
		tag, err := tx.Exec(ctx, `
			UPDATE keywords SET selection = $2, updated_at = NOW() WHERE id = $1
		`, toUUID(id), string(sel))
		if err != nil {
			return fmt.Errorf("update keyword selection: %w", err)
		}

		if tag.RowsAffected() == 0 {
			return coreerrors.New(coreerrors.CodeKeywordNotFound, "keyword not found")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf(errFmtCommitTx, err)
	}

	return nil
}

// UpdateClusterSelection sets the cluster's own selection.
func (db *DB) UpdateClusterSelection(ctx context.Context, id string, sel domain.Selection) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE keyword_clusters SET selection = $2 WHERE id = $1
	`, toUUID(id), string(sel))
	if err != nil {
		return fmt.Errorf("update cluster selection: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return coreerrors.New(coreerrors.CodeClusterNotFound, "cluster not found")
	}

	return nil
}

func scanKeyword(row pgx.Row) (*domain.Keyword, error) {
	var (
		kw             domain.Keyword
		id             pgtype.UUID
		runID          pgtype.UUID
		clusterID      pgtype.UUID
		freeDifficulty string
		volume         pgtype.Int4
		difficulty     pgtype.Int4
		cpc            pgtype.Float8
		competition    pgtype.Float8
		intent         string
		funnel         string
		selection      string
	)

	err := row.Scan(&id, &runID, &clusterID, &kw.Text, &kw.FreeVolume, &freeDifficulty,
		&volume, &difficulty, &cpc, &competition,
		&kw.SERP, &intent, &funnel, &kw.Overlap, &kw.OverlapURL, &selection,
		&kw.SelectionRationale, &kw.Source, &kw.SourceURL, &kw.CreatedAt, &kw.UpdatedAt)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context
	}

	kw.ID = fromUUID(id)
	kw.RunID = fromUUID(runID)
	kw.ClusterID = fromUUID(clusterID)
	kw.FreeDifficulty = domain.Difficulty(freeDifficulty)
	kw.PremiumVolume = fromInt4Ptr(volume)
	kw.PremiumDifficulty = fromInt4Ptr(difficulty)
	kw.PremiumCPC = fromFloat8Ptr(cpc)
	kw.PremiumCompetition = fromFloat8Ptr(competition)
	kw.Intent = domain.SearchIntent(intent)
	kw.Funnel = domain.FunnelStage(funnel)
	kw.Selection = domain.Selection(selection)

	return &kw, nil
}

func scanCluster(row pgx.Row) (*domain.Cluster, error) {
	var (
		c         domain.Cluster
		id        pgtype.UUID
		runID     pgtype.UUID
		funnel    string
		intent    string
		selection string
	)

	err := row.Scan(&id, &runID, &c.Name, &c.OrderIndex, &c.TotalKeywords, &c.AvgDifficulty,
		&c.TotalVolume, &funnel, &intent, &c.PriorityScore, &selection, &c.Rationale)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context
	}

	c.ID = fromUUID(id)
	c.RunID = fromUUID(runID)
	c.DominantFunnel = domain.FunnelStage(funnel)
	c.DominantIntent = domain.SearchIntent(intent)
	c.Selection = domain.Selection(selection)

	return &c, nil
}
