package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedGenerator struct {
	mu    sync.Mutex
	calls []string
	runs  map[string]struct{}
	fail  map[string]error
	hook  func(paymentID string)
}

func (s *scriptedGenerator) GenerateInRun(_ context.Context, runID, paymentID string) (Outcome, error) {
	s.mu.Lock()
	s.calls = append(s.calls, paymentID)
	if s.runs == nil {
		s.runs = map[string]struct{}{}
	}
	s.runs[runID] = struct{}{}
	s.mu.Unlock()

	if s.hook != nil {
		s.hook(paymentID)
	}
	if err := s.fail[paymentID]; err != nil {
		return Outcome{PaymentID: paymentID}, err
	}
	return Outcome{PaymentID: paymentID, Path: "/out/" + paymentID + ".pdf"}, nil
}

func TestBatch_ContinuesAfterFailure(t *testing.T) {
	gen := &scriptedGenerator{fail: map[string]error{"pay_2": errors.New("reasoning step failed: timeout")}}
	b := NewBatch(gen, 1, nil)
	b.newID = func() string { return "run-1" }

	summary := b.Run(context.Background(), []string{"pay_1", " pay_2 ", "", "pay_3", "pay_1"})

	assert.Equal(t, "run-1", summary.RunID)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, []string{"pay_1", "pay_2", "pay_3"}, gen.calls, "sequential batches keep input order")
	assert.Equal(t, []BatchItem{
		{PaymentID: "pay_1", Output: "/out/pay_1.pdf"},
		{PaymentID: "pay_3", Output: "/out/pay_3.pdf"},
	}, summary.Succeeded)
	assert.Equal(t, []BatchItem{{PaymentID: "pay_2", Error: "reasoning step failed: timeout"}}, summary.Failed)
	assert.Equal(t, map[string]struct{}{"run-1": {}}, gen.runs)
	assert.False(t, summary.FinishedAt.Before(summary.StartedAt))
}

func TestBatch_ConcurrentKeepsResultOrder(t *testing.T) {
	gen := &scriptedGenerator{}
	summary := NewBatch(gen, 4, nil).Run(context.Background(), []string{"a", "b", "c", "d", "e"})

	require.Len(t, summary.Succeeded, 5)
	for i, id := range []string{"a", "b", "c", "d", "e"} {
		assert.Equal(t, id, summary.Succeeded[i].PaymentID)
	}
	assert.Empty(t, summary.Failed)
	assert.NotEmpty(t, summary.RunID)
}

func TestBatch_CancelReportsUnprocessedCases(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gen := &scriptedGenerator{hook: func(id string) {
		if id == "pay_1" {
			cancel()
		}
	}}
	summary := NewBatch(gen, 1, nil).Run(ctx, []string{"pay_1", "pay_2", "pay_3"})

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, len(summary.Succeeded)+len(summary.Failed), 3)
	require.NotEmpty(t, summary.Succeeded)
	assert.Equal(t, "pay_1", summary.Succeeded[0].PaymentID)
	for _, item := range summary.Failed {
		assert.Equal(t, context.Canceled.Error(), item.Error)
	}
}

func TestBatch_Empty(t *testing.T) {
	summary := NewBatch(&scriptedGenerator{}, 2, nil).Run(context.Background(), []string{" ", ""})
	assert.Zero(t, summary.Total)
	assert.Empty(t, summary.Succeeded)
	assert.Empty(t, summary.Failed)
}
