package graph

import (
	"context"
	"maps"
	"sync"
)

// Mode distinguishes read from write statements.
type Mode string

const (
	ModeRead  Mode = "read"
	ModeWrite Mode = "write"
)

// MemoryClient is an in-memory Client for tests. Results are served from
// per-statement answers first, then from the FIFO queue of the mode.
type MemoryClient struct {
	mu           sync.Mutex
	calls        []ExecutedQuery
	queued       map[Mode][]Result
	answers      map[string]Result
	err          error
	connectivity error
	closed       bool
}

// ExecutedQuery captures a statement executed against the graph.
type ExecutedQuery struct {
	Mode   Mode
	Query  string
	Params map[string]any
}

// NewMemoryClient returns an empty client that answers every query with no records.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		queued:  make(map[Mode][]Result),
		answers: make(map[string]Result),
	}
}

// WithError makes every subsequent query fail with err.
func (m *MemoryClient) WithError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithConnectivityError forces VerifyConnectivity to return err.
func (m *MemoryClient) WithConnectivityError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectivity = err
	return m
}

// Answer registers the result returned whenever cypher is executed.
func (m *MemoryClient) Answer(cypher string, res Result) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers[cypher] = res
	return m
}

// PushReadResult queues a result for the next unanswered ExecuteRead.
func (m *MemoryClient) PushReadResult(res Result) {
	m.push(ModeRead, res)
}

// PushWriteResult queues a result for the next unanswered ExecuteWrite.
func (m *MemoryClient) PushWriteResult(res Result) {
	m.push(ModeWrite, res)
}

func (m *MemoryClient) push(mode Mode, res Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued[mode] = append(m.queued[mode], res)
}

func (m *MemoryClient) ExecuteWrite(_ context.Context, cypher string, params map[string]any) (Result, error) {
	return m.execute(ModeWrite, cypher, params)
}

func (m *MemoryClient) ExecuteRead(_ context.Context, cypher string, params map[string]any) (Result, error) {
	return m.execute(ModeRead, cypher, params)
}

func (m *MemoryClient) execute(mode Mode, cypher string, params map[string]any) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return Result{}, m.err
	}

	m.calls = append(m.calls, ExecutedQuery{Mode: mode, Query: cypher, Params: maps.Clone(params)})

	if res, ok := m.answers[cypher]; ok {
		return res, nil
	}
	queue := m.queued[mode]
	if len(queue) == 0 {
		return Result{}, nil
	}
	m.queued[mode] = queue[1:]
	return queue[0], nil
}

func (m *MemoryClient) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectivity
}

func (m *MemoryClient) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MemoryClient) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// WriteCalls returns a snapshot of executed write queries.
func (m *MemoryClient) WriteCalls() []ExecutedQuery {
	return m.callsOf(ModeWrite)
}

// ReadCalls returns a snapshot of executed read queries.
func (m *MemoryClient) ReadCalls() []ExecutedQuery {
	return m.callsOf(ModeRead)
}

func (m *MemoryClient) callsOf(mode Mode) []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ExecutedQuery
	for _, c := range m.calls {
		if c.Mode == mode {
			out = append(out, c)
		}
	}
	return out
}
