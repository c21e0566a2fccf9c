// Package api serves the planner over HTTP with JSON bodies and a static
// bearer token.
package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
	"github.com/lueurxax/editorial-planner/internal/process/projects"
	"github.com/lueurxax/editorial-planner/internal/process/research"
	"github.com/lueurxax/editorial-planner/internal/process/strategy"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
	bearerPrefix      = "Bearer "
)

// ProjectService creates, edits and archives projects.
type ProjectService interface {
	Create(ctx context.Context, f projects.Fields) (*domain.Project, error)
	Get(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Project, error)
	Update(ctx context.Context, id string, f projects.Fields) (*domain.Project, error)
	Archive(ctx context.Context, id string) (*domain.Project, error)
}

// ResearchService runs keyword research and records operator selections.
type ResearchService interface {
	Start(ctx context.Context, projectID string) (*domain.ResearchRun, error)
	Get(ctx context.Context, runID string) (*research.View, error)
	Approve(ctx context.Context, runID string) (*domain.ResearchRun, error)
	UpdateKeywordSelection(ctx context.Context, keywordID string, selected bool, origin domain.SelectionOrigin) (*domain.Keyword, error)
	UpdateClusterSelection(ctx context.Context, clusterID string, selected bool) (*domain.Cluster, error)
	Consolidate(ctx context.Context, runID string) (int, error)
}

// StrategyService manages strategy sessions and versions.
type StrategyService interface {
	Generate(ctx context.Context, req strategy.GenerateRequest) (*domain.StrategyVersion, error)
	ListVersions(ctx context.Context, sessionID string) ([]*domain.StrategyVersion, error)
	GetVersion(ctx context.Context, versionID string) (*domain.StrategyVersion, error)
	Replace(ctx context.Context, sessionID, versionID string) (*strategy.ReplaceResult, error)
	Approve(ctx context.Context, sessionID string) (int, error)
	UpdateContentItem(ctx context.Context, itemID string, upd strategy.ItemUpdate) (*domain.ContentItem, error)
	Extend(ctx context.Context, versionID string, days int) (*domain.StrategyVersion, error)
	UpdatePublishDates(ctx context.Context, versionID string, updates []strategy.DateUpdate) (int, error)
}

// Validator validates the items of a strategy version.
type Validator interface {
	ValidateVersion(ctx context.Context, versionID string) (int, error)
}

// Server routes authenticated JSON requests to the planner services.
type Server struct {
	projects  ProjectService
	research  ResearchService
	strategy  StrategyService
	validator Validator
	token     string
	port      int
	logger    *zerolog.Logger
}

// NewServer builds a Server. Every request must carry token as a bearer token.
func NewServer(
	ps ProjectService,
	rs ResearchService,
	ss StrategyService,
	validator Validator,
	token string,
	port int,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		projects:  ps,
		research:  rs,
		strategy:  ss,
		validator: validator,
		token:     token,
		port:      port,
		logger:    logger,
	}
}

// Handler returns the authenticated API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /projects", s.createProject)
	mux.HandleFunc("GET /projects", s.listProjects)
	mux.HandleFunc("GET /projects/{id}", s.getProject)
	mux.HandleFunc("PATCH /projects/{id}", s.updateProject)
	mux.HandleFunc("POST /projects/{id}/archive", s.archiveProject)

	mux.HandleFunc("POST /projects/{id}/research", s.startResearch)
	mux.HandleFunc("GET /research/{id}", s.getResearch)
	mux.HandleFunc("POST /research/{id}/approve", s.approveResearch)
	mux.HandleFunc("POST /research/{id}/consolidate", s.consolidate)
	mux.HandleFunc("PATCH /keywords/{id}", s.selectKeyword)
	mux.HandleFunc("PATCH /clusters/{id}", s.selectCluster)

	mux.HandleFunc("POST /projects/{id}/strategies", s.generateForProject)
	mux.HandleFunc("POST /sessions/{id}/strategies", s.generateForSession)
	mux.HandleFunc("GET /sessions/{id}/strategies", s.listVersions)
	mux.HandleFunc("POST /sessions/{id}/strategies/{versionId}/activate", s.replace)
	mux.HandleFunc("POST /sessions/{id}/approve", s.approveSession)
	mux.HandleFunc("GET /strategies/{id}", s.getVersion)
	mux.HandleFunc("POST /strategies/{id}/validate", s.validate)
	mux.HandleFunc("POST /strategies/{id}/extend", s.extend)
	mux.HandleFunc("PATCH /strategies/{id}/dates", s.updateDates)
	mux.HandleFunc("PATCH /content-items/{id}", s.updateItem)

	return s.authenticate(mux)
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, bearerPrefix)

		if !ok || s.token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) != 1 {
			writeError(w, s.logger, coreerrors.New(coreerrors.CodeUnauthorized, "missing or invalid bearer token"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Start serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		//nolint:contextcheck // the parent context is already cancelled
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Int("port", s.port).Msg("API server starting")

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server error: %w", err)
	}

	return nil
}
