package pending

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// SignAll signs every transaction of a plan concurrently with its bound
// signer. The first failure is returned; the others may or may not be signed.
func SignAll(ctx context.Context, txs []*Transaction) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, p := range txs {
		g.Go(func() error {
			return p.Sign(ctx)
		})
	}
	return g.Wait()
}

// SubmitAll submits the transactions of a plan in order, batch elements
// before the final one, since later transactions may spend outputs of
// earlier ones. It stops at the first failure and returns the ids of the
// transactions accepted so far.
func SubmitAll(ctx context.Context, transport Transport, txs []*Transaction) ([]string, error) {
	ids := make([]string, 0, len(txs))
	for i, p := range txs {
		if err := ctx.Err(); err != nil {
			return ids, err
		}
		id, err := p.Submit(ctx, transport)
		if err != nil {
			return ids, fmt.Errorf("pending: plan element %d of %d: %w", i+1, len(txs), err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
