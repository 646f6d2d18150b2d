package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CaseGenerator produces one case document inside a batch run.
type CaseGenerator interface {
	GenerateInRun(ctx context.Context, runID, paymentID string) (Outcome, error)
}

// BatchItem is the result of one case in a batch.
type BatchItem struct {
	PaymentID string `json:"paymentid" yaml:"paymentid"`
	Output    string `json:"output,omitempty" yaml:"output,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// BatchSummary reports per-case success and failure of a batch run.
type BatchSummary struct {
	RunID      string      `json:"run_id" yaml:"run_id"`
	Total      int         `json:"total" yaml:"total"`
	Succeeded  []BatchItem `json:"succeeded" yaml:"succeeded"`
	Failed     []BatchItem `json:"failed" yaml:"failed"`
	StartedAt  time.Time   `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time   `json:"finished_at" yaml:"finished_at"`
}

// Batch runs many cases. A failed case never stops its siblings.
type Batch struct {
	gen         CaseGenerator
	concurrency int
	logger      *slog.Logger
	nowFn       func() time.Time
	newID       func() string
}

// NewBatch builds a batch runner. Concurrency 1 processes cases strictly in order.
func NewBatch(gen CaseGenerator, concurrency int, logger *slog.Logger) *Batch {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Batch{
		gen:         gen,
		concurrency: concurrency,
		logger:      logger.With("component", "batch"),
		nowFn:       time.Now,
		newID:       func() string { return uuid.NewString() },
	}
}

// Run processes the payment ids. Blank ids are skipped and duplicates are
// processed once. Cases not started before ctx is done are reported as failed.
func (b *Batch) Run(ctx context.Context, paymentIDs []string) BatchSummary {
	ids := dedupe(paymentIDs)
	summary := BatchSummary{
		RunID:     b.newID(),
		Total:     len(ids),
		Succeeded: []BatchItem{},
		Failed:    []BatchItem{},
		StartedAt: b.nowFn().UTC(),
	}
	logger := b.logger.With("run_id", summary.RunID)
	logger.Info("batch started", "cases", len(ids), "concurrency", b.concurrency)

	results := make([]*BatchItem, len(ids))
	succeeded := make([]bool, len(ids))
	_ = run(ctx, b.concurrency, len(ids), func(idx int) error {
		item := BatchItem{PaymentID: ids[idx]}
		out, err := b.gen.GenerateInRun(ctx, summary.RunID, ids[idx])
		if err != nil {
			item.Error = err.Error()
		} else {
			item.Output = out.Path
			succeeded[idx] = true
		}
		results[idx] = &item
		return nil
	})

	for idx, item := range results {
		if item == nil {
			reason := "not processed"
			if err := ctx.Err(); err != nil {
				reason = err.Error()
			}
			item = &BatchItem{PaymentID: ids[idx], Error: reason}
		}
		if succeeded[idx] {
			summary.Succeeded = append(summary.Succeeded, *item)
		} else {
			summary.Failed = append(summary.Failed, *item)
		}
	}
	summary.FinishedAt = b.nowFn().UTC()

	logger.Info("batch finished",
		"succeeded", len(summary.Succeeded),
		"failed", len(summary.Failed),
		"duration", summary.FinishedAt.Sub(summary.StartedAt).String(),
	)
	return summary
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	var out []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
