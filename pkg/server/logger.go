package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mikeboe/research-agent/pkg/database"
)

// RunLogHandler is a slog.Handler that writes records to the run_logs table,
// keyed by the run they belong to. It is the observability channel for
// failures the pipeline swallows (per-thread fetch errors in particular).
type RunLogHandler struct {
	DB    *database.PostgresDB
	RunID uuid.UUID
}

func NewRunLogHandler(db *database.PostgresDB, runID uuid.UUID) *RunLogHandler {
	return &RunLogHandler{
		DB:    db,
		RunID: runID,
	}
}

func (h *RunLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

func (h *RunLogHandler) Handle(ctx context.Context, r slog.Record) error {
	attrs := make(map[string]any)
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	metaJSON, err := json.Marshal(attrs)
	if err != nil {
		metaJSON = []byte("{}")
	}

	query := `
		INSERT INTO run_logs (run_id, timestamp, level, message, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`

	// Background context so records persist even if the request context is
	// already canceled.
	_, err = h.DB.Pool.Exec(context.Background(), query, h.RunID, r.Time, r.Level.String(), r.Message, metaJSON)
	return err
}

func (h *RunLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	// Attribute accumulation is not needed for run logs; records carry
	// their own attributes.
	return h
}

func (h *RunLogHandler) WithGroup(name string) slog.Handler {
	return h
}
