package contracts

import (
	"context"
	"errors"
)

// MarketDataClient returns the raw history of one quote
// Any returned error is treated as transient by the collector.
type MarketDataClient interface {
	GetHistory(ctx context.Context, quoteID string) (*Frame, error)
}

// Exporter persists a collection result and returns where it went
type Exporter interface {
	Export(ctx context.Context, result *CollectionResult) (string, error)
}

var (
	// ErrConfiguration marks a fatal configuration problem (empty varieties, empty month set)
	ErrConfiguration = errors.New("configuration error")

	// ErrNoData marks an empty or malformed response, or an empty filtered window
	ErrNoData = errors.New("no data available")

	// ErrRetriesExhausted marks a fetch that failed on every attempt
	ErrRetriesExhausted = errors.New("retries exhausted")
)
