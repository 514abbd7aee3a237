// batch.go implements multi-document writes with per-item outcomes.
//
// No backend can commit several documents atomically (the git backend
// commits file by file, the analytical backend has no multi-row
// transaction), so a batch is a sequence of independent Sets. A failure is
// recorded against its item and the batch continues.

package store

import "context"

// BatchItem is one write in a batch.
type BatchItem struct {
	ID   string
	Doc  Document
	Opts SetOptions
}

// BatchResult is the outcome of one BatchItem. Err is nil on success.
type BatchResult struct {
	ID     string
	Result SetResult
	Err    error
}

// Setter is the single-record write SetBatch drives. Every Adapter is one,
// and so is any wrapper that validates before delegating.
type Setter interface {
	Set(ctx context.Context, id string, doc Document, opts SetOptions) (SetResult, error)
}

// SetBatch applies items in order and reports every outcome. Context
// cancellation stops the batch; remaining items are reported with the
// context error so no item is silently dropped.
func SetBatch(ctx context.Context, a Setter, items []BatchItem) []BatchResult {
	results := make([]BatchResult, len(items))
	for i, it := range items {
		results[i].ID = it.ID
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		res, err := a.Set(ctx, it.ID, it.Doc, it.Opts)
		results[i].Result = res
		results[i].Err = err
	}
	return results
}

// Failed returns the results that carry an error.
func Failed(results []BatchResult) []BatchResult {
	var out []BatchResult
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
