package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/fundlens/fundlens/pkg/errors"
	"github.com/fundlens/fundlens/pkg/types"
)

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates an analysis store over an existing handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// SaveAnalysis inserts the analysis, assigning an ID when absent.
func (s *PostgresStore) SaveAnalysis(ctx context.Context, a *types.Analysis) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	metricsJSON, err := json.Marshal(a.Metrics)
	if err != nil {
		return errors.NewDataIntegrity("store.save", "metrics not serializable", err)
	}
	marketJSON, err := json.Marshal(a.Market)
	if err != nil {
		return errors.NewDataIntegrity("store.save", "market data not serializable", err)
	}
	var embeddingJSON []byte
	if len(a.Embedding) > 0 {
		embeddingJSON, err = json.Marshal(a.Embedding)
		if err != nil {
			return errors.NewDataIntegrity("store.save", "embedding not serializable", err)
		}
	}

	query := `
		INSERT INTO analyses (id, session_id, fund_code, fund_name,
		                      financial_metrics, market_data, summary,
		                      risk_rating, recommendation,
		                      embedding, embedding_model, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = s.db.ExecContext(ctx, query,
		a.ID, a.SessionID, a.FundCode, nullString(a.FundName),
		metricsJSON, marketJSON, nullString(a.Summary),
		nullString(string(a.RiskRating)), nullString(string(a.Recommendation)),
		nullBytes(embeddingJSON), nullString(a.EmbeddingModel), a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// UpdateEmbedding replaces the stored embedding wholesale.
func (s *PostgresStore) UpdateEmbedding(ctx context.Context, analysisID string, vector []float64, model string) error {
	embeddingJSON, err := json.Marshal(vector)
	if err != nil {
		return errors.NewDataIntegrity("store.update_embedding", "embedding not serializable", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE analyses SET embedding = $1, embedding_model = $2 WHERE id = $3`,
		embeddingJSON, model, analysisID)
	if err != nil {
		return fmt.Errorf("update embedding: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("store.update_embedding", "analysis not found")
	}
	return nil
}

const analysisColumns = `id, session_id, fund_code, fund_name,
	financial_metrics, market_data, summary, risk_rating, recommendation,
	embedding, embedding_model, created_at`

// GetAnalysis returns the analysis, or nil when absent.
func (s *PostgresStore) GetAnalysis(ctx context.Context, analysisID string) (*types.Analysis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+analysisColumns+` FROM analyses WHERE id = $1`, analysisID)

	a, err := scanAnalysis(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query analysis: %w", err)
	}
	return a, nil
}

// ListBySession returns the session's analyses in insertion order.
func (s *PostgresStore) ListBySession(ctx context.Context, sessionID string) ([]*types.Analysis, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+analysisColumns+` FROM analyses WHERE session_id = $1 ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()
	return collectAnalyses(rows)
}

// ListEmbedded returns model-matched embedded analyses in insertion order.
func (s *PostgresStore) ListEmbedded(ctx context.Context, sessionID, model string) ([]*types.Analysis, error) {
	query := `SELECT ` + analysisColumns + ` FROM analyses
		WHERE embedding IS NOT NULL AND embedding_model = $1
		  AND ($2 = '' OR session_id = $2)
		ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, model, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query embedded analyses: %w", err)
	}
	defer rows.Close()
	return collectAnalyses(rows)
}

// DeleteBySession removes the session's analyses; ranking entries go with
// them via ON DELETE CASCADE, all inside one transaction.
func (s *PostgresStore) DeleteBySession(ctx context.Context, sessionID string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM analyses WHERE session_id = $1`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("delete analyses: %w", err)
	}
	n, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete: %w", err)
	}
	return int(n), nil
}

// ReplaceRankings swaps the whole (session, type) group in one transaction.
func (s *PostgresStore) ReplaceRankings(ctx context.Context, sessionID, rankingType string, entries []types.RankingEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace rankings: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM ranking_entries WHERE session_id = $1 AND ranking_type = $2`,
		sessionID, rankingType)
	if err != nil {
		return fmt.Errorf("delete old rankings: %w", err)
	}

	for _, e := range entries {
		detailsJSON, err := json.Marshal(e.MetricDetails)
		if err != nil {
			return errors.NewDataIntegrity("store.replace_rankings", "metric details not serializable", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO ranking_entries (session_id, ranking_type, rank_position,
			                             score, description, analysis_id,
			                             fund_code, fund_name, metric_details, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			sessionID, rankingType, e.RankPosition,
			e.Score, nullString(e.Description), e.AnalysisID,
			e.FundCode, nullString(e.FundName), detailsJSON, e.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert ranking entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rankings: %w", err)
	}
	return nil
}

// GetRankings returns the stored ranking ordered by position.
func (s *PostgresStore) GetRankings(ctx context.Context, sessionID, rankingType string) ([]types.RankingEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, ranking_type, rank_position, score, description,
		       analysis_id, fund_code, fund_name, metric_details, created_at
		FROM ranking_entries
		WHERE session_id = $1 AND ranking_type = $2
		ORDER BY rank_position`, sessionID, rankingType)
	if err != nil {
		return nil, fmt.Errorf("query rankings: %w", err)
	}
	defer rows.Close()

	var out []types.RankingEntry
	for rows.Next() {
		var e types.RankingEntry
		var description, fundName sql.NullString
		var detailsJSON []byte
		if err := rows.Scan(&e.SessionID, &e.RankingType, &e.RankPosition,
			&e.Score, &description, &e.AnalysisID, &e.FundCode, &fundName,
			&detailsJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ranking entry: %w", err)
		}
		e.Description = description.String
		e.FundName = fundName.String
		if len(detailsJSON) > 0 {
			if err := json.Unmarshal(detailsJSON, &e.MetricDetails); err != nil {
				return nil, errors.NewDataIntegrity("store.get_rankings", "corrupt metric details", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close is a no-op; the shared database handle is owned by the caller.
func (s *PostgresStore) Close() error {
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*types.Analysis, error) {
	var a types.Analysis
	var fundName, summary, riskRating, recommendation, embeddingModel sql.NullString
	var metricsJSON, marketJSON, embeddingJSON []byte

	err := row.Scan(&a.ID, &a.SessionID, &a.FundCode, &fundName,
		&metricsJSON, &marketJSON, &summary, &riskRating, &recommendation,
		&embeddingJSON, &embeddingModel, &a.CreatedAt)
	if err != nil {
		return nil, err
	}

	a.FundName = fundName.String
	a.Summary = summary.String
	a.RiskRating = types.RiskRating(riskRating.String)
	a.Recommendation = types.Recommendation(recommendation.String)
	a.EmbeddingModel = embeddingModel.String

	if len(metricsJSON) > 0 {
		if err := json.Unmarshal(metricsJSON, &a.Metrics); err != nil {
			return nil, errors.NewDataIntegrity("store.scan", "corrupt financial metrics", err)
		}
	}
	if len(marketJSON) > 0 {
		if err := json.Unmarshal(marketJSON, &a.Market); err != nil {
			return nil, errors.NewDataIntegrity("store.scan", "corrupt market data", err)
		}
	}
	if len(embeddingJSON) > 0 {
		if err := json.Unmarshal(embeddingJSON, &a.Embedding); err != nil {
			return nil, errors.NewDataIntegrity("store.scan", "corrupt embedding", err)
		}
	}
	return &a, nil
}

func collectAnalyses(rows *sql.Rows) ([]*types.Analysis, error) {
	var out []*types.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
