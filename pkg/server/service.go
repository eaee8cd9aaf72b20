package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mikeboe/research-agent/pkg/database"
	"github.com/mikeboe/research-agent/pkg/research"
)

// ErrNoPersistence is returned by run-history lookups when the service runs
// without a database.
var ErrNoPersistence = errors.New("persistence is not configured")

type Service struct {
	DB       *database.PostgresDB // nil when running stateless
	Pipeline *research.Pipeline
	Version  string
}

func NewService(db *database.PostgresDB, pipeline *research.Pipeline, version string) *Service {
	return &Service{
		DB:       db,
		Pipeline: pipeline,
		Version:  version,
	}
}

// AskResponse is the caller-facing result of one research run.
type AskResponse struct {
	ID                 uuid.UUID               `json:"id"`
	Question           string                  `json:"question"`
	FinalAnswer        *string                 `json:"final_answer"`
	WebAnalysis        *string                 `json:"web_analysis"`
	AltWebAnalysis     *string                 `json:"alt_web_analysis"`
	DiscussionAnalysis *string                 `json:"discussion_analysis"`
	SelectedThreadURLs []string                `json:"selected_thread_urls"`
	Failures           []research.StageFailure `json:"failures,omitempty"`
	LatencyMs          float64                 `json:"latency_ms"`
}

// Ask runs the pipeline for one question, records the run when persistence
// is enabled, and maps the terminal state into the response. The error is
// non-nil only for a synthesis failure; the response still carries whatever
// partial state was computed.
func (s *Service) Ask(ctx context.Context, question string) (*AskResponse, error) {
	runID := uuid.New()

	logger := slog.Default()
	if s.DB != nil {
		logger = slog.New(NewRunLogHandler(s.DB, runID))
		_, _ = s.DB.Pool.Exec(ctx,
			"INSERT INTO research_runs (id, question, status) VALUES ($1, $2, 'running')",
			runID, question)
	}

	start := time.Now()
	state, runErr := s.Pipeline.WithLogger(logger).Run(ctx, question)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	if s.DB != nil {
		s.recordRun(runID, state, runErr, latencyMs, logger)
	}

	resp := &AskResponse{
		ID:                 runID,
		Question:           question,
		FinalAnswer:        state.FinalAnswer,
		WebAnalysis:        state.WebAnalysis,
		AltWebAnalysis:     state.AltWebAnalysis,
		DiscussionAnalysis: state.DiscussionAnalysis,
		SelectedThreadURLs: state.SelectedThreadURLs,
		Failures:           state.Failures,
		LatencyMs:          latencyMs,
	}
	if resp.SelectedThreadURLs == nil {
		resp.SelectedThreadURLs = []string{}
	}
	return resp, runErr
}

func (s *Service) recordRun(runID uuid.UUID, state *research.ResearchState, runErr error, latencyMs float64, logger *slog.Logger) {
	status := "completed"
	if runErr != nil {
		status = "failed"
	}

	stateJSON, err := json.Marshal(state)
	if err != nil {
		logger.Error("failed to marshal state", "error", err)
		stateJSON = []byte("{}")
	}

	// Background context so the record survives a canceled request.
	_, err = s.DB.Pool.Exec(context.Background(), `
		UPDATE research_runs
		SET status = $2, final_answer = $3, state = $4, latency_ms = $5, updated_at = NOW()
		WHERE id = $1
	`, runID, status, state.FinalAnswer, stateJSON, latencyMs)
	if err != nil {
		logger.Error("failed to record run", "error", err)
	}
}

// Run is a persisted research run.
type Run struct {
	ID          uuid.UUID       `json:"id"`
	Question    string          `json:"question"`
	Status      string          `json:"status"`
	FinalAnswer *string         `json:"final_answer,omitempty"`
	State       json.RawMessage `json:"state,omitempty"`
	LatencyMs   *float64        `json:"latency_ms,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (s *Service) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	if s.DB == nil {
		return nil, ErrNoPersistence
	}
	query := `
		SELECT id, question, status, final_answer, state, latency_ms, created_at, updated_at
		FROM research_runs
		WHERE id = $1
	`
	run := &Run{}
	err := s.DB.Pool.QueryRow(ctx, query, id).Scan(
		&run.ID, &run.Question, &run.Status, &run.FinalAnswer, &run.State, &run.LatencyMs, &run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

func (s *Service) ListRuns(ctx context.Context) ([]Run, error) {
	if s.DB == nil {
		return nil, ErrNoPersistence
	}
	query := `
		SELECT id, question, status, final_answer, latency_ms, created_at, updated_at
		FROM research_runs
		ORDER BY created_at DESC
		LIMIT 50
	`
	rows, err := s.DB.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Question, &run.Status, &run.FinalAnswer, &run.LatencyMs, &run.CreatedAt, &run.UpdatedAt); err != nil {
			continue
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// LogEntry is one structured log record of a run.
type LogEntry struct {
	ID        int             `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Level     string          `json:"level"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata"`
}

func (s *Service) GetRunLogs(ctx context.Context, runID uuid.UUID) ([]LogEntry, error) {
	if s.DB == nil {
		return nil, ErrNoPersistence
	}
	query := `
		SELECT id, timestamp, level, message, metadata
		FROM run_logs
		WHERE run_id = $1
		ORDER BY id ASC
	`
	rows, err := s.DB.Pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs: %w", err)
	}
	defer rows.Close()

	var logs []LogEntry
	for rows.Next() {
		var l LogEntry
		if err := rows.Scan(&l.ID, &l.Timestamp, &l.Level, &l.Message, &l.Metadata); err != nil {
			continue
		}
		logs = append(logs, l)
	}
	return logs, nil
}
