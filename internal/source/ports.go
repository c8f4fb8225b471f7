// Package source defines the ports through which raw holding records enter
// the system. Adapters live in the subpackages and in internal/storage.
package source

import (
	"context"
	"errors"
	"fmt"

	"holdings/internal/core"
)

var (
	// ErrNotFound is returned by HoldingGetter when no record has the id.
	ErrNotFound = errors.New("holding not found")
	// ErrFetchFailed wraps transport and decoding failures of a source.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrDuplicate is returned by HoldingWriter when the id is taken.
	ErrDuplicate = errors.New("holding already exists")
)

// Ports for inbound adapters.
type (
	// HoldingLister fetches every raw record wholesale. Records are returned
	// in the order the source holds them.
	HoldingLister interface {
		ListHoldings(ctx context.Context) ([]core.RawRecord, error)
	}

	HoldingGetter interface {
		GetHolding(ctx context.Context, id string) (core.RawRecord, error)
	}

	// HoldingBatchGetter fetches several records by id in one call, in the
	// order of ids. Sources that can do better than one GetHolding per id
	// implement it.
	HoldingBatchGetter interface {
		GetHoldings(ctx context.Context, ids []string) ([]core.RawRecord, error)
	}

	// HoldingWriter stores a new record and returns the id it was stored
	// under. A record without an id gets one assigned by the caller.
	HoldingWriter interface {
		CreateHolding(ctx context.Context, r core.RawRecord) (string, error)
	}

	Source interface {
		HoldingLister
		HoldingGetter
		HoldingWriter
	}
)

// UpstreamError carries the message a remote source returned with a failure
// status. It matches ErrFetchFailed.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned status %d", e.Status)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Message)
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrFetchFailed
}
