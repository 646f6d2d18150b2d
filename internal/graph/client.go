// Package graph provides access to the evidence graph holding per-payment
// locations, IP intelligence and browsing sessions.
package graph

import (
	"context"
	"errors"

	"github.com/vanshika/chargeback/backend/internal/config"
)

// Client is the contract the evidence repository needs from a graph engine.
type Client interface {
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error)
	ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Result holds the records of one query.
type Result struct {
	Records []Record
}

// First returns the first record, if any.
func (r Result) First() (Record, bool) {
	if len(r.Records) == 0 {
		return nil, false
	}
	return r.Records[0], true
}

// Record maps returned column names to values.
type Record map[string]any

// Options configures a graph client.
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// OptionsFromConfig maps the GRAPH_* settings to client options.
func OptionsFromConfig(cfg config.GraphConfig) Options {
	return Options{
		URI:            cfg.URI,
		Database:       cfg.Database,
		Username:       cfg.Username,
		Password:       cfg.Password,
		MaxConnections: cfg.MaxConnections,
	}
}

// ErrMissingURI indicates the graph URI is not provided.
var ErrMissingURI = errors.New("graph URI is required")
