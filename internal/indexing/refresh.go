// Package indexing implements the catalog ingestion pipeline: hierarchical
// metadata upserts, content change detection and the per-run orchestration.
package indexing

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"io"

	"github.com/rotisserie/eris"

	"github.com/opendatar/catalog-indexer/internal/fetcher"
)

// Outcome tags the result of a distribution file refresh.
type Outcome int

const (
	// OutcomeUnchanged means the downloaded content hashes to the stored digest.
	OutcomeUnchanged Outcome = iota
	// OutcomeUpdated means the content changed and carries a new digest.
	OutcomeUpdated
)

// RefreshResult is the outcome of fetching and hashing a distribution file.
type RefreshResult struct {
	Outcome Outcome
	Hash    string
	Data    []byte
}

// DigestBytes returns the hex-encoded SHA-512 digest of data. The full
// content is always hashed; digest stability is relied on by downstream
// consumers, so there are no partial-hash shortcuts.
func DigestBytes(data []byte) string {
	sum := sha512.Sum512(data)
	return hex.EncodeToString(sum[:])
}

// Refresh fetches the distribution file and compares its digest against
// prevHash. Transport failures are returned as-is and abort only the
// distribution being refreshed.
func Refresh(ctx context.Context, f fetcher.Fetcher, url, prevHash string) (*RefreshResult, error) {
	body, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, eris.Wrapf(err, "indexing: read %s", url)
	}

	hash := DigestBytes(data)
	if hash == prevHash {
		return &RefreshResult{Outcome: OutcomeUnchanged, Hash: hash}, nil
	}
	return &RefreshResult{Outcome: OutcomeUpdated, Hash: hash, Data: data}, nil
}
