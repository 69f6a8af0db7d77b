package pathfind

import "golang.org/x/sync/errgroup"

// BatchItem pairs a Request with the slot its Result should land in.
type BatchItem struct {
	Req      Request
	Passable Passable
}

// SolveBatch runs several independent searches concurrently. Each
// Passable closure must only read from an immutable snapshot (spec.md §5:
// "worker threads ... only when they receive snapshots, never live
// references") — SolveBatch itself does no locking and assumes the
// caller already took that snapshot before calling in.
func SolveBatch(items []BatchItem) []Result {
	results := make([]Result, len(items))
	var g errgroup.Group
	for i, it := range items {
		i, it := i, it
		g.Go(func() error {
			results[i] = Search(it.Req, it.Passable)
			return nil
		})
	}
	_ = g.Wait() // Search never returns an error; Wait only drains goroutines
	return results
}
