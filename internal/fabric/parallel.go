package fabric

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/overlap/internal/model"
)

// ClaimAllParallel builds a fabric from claims using up to workers goroutines.
// Each goroutine owns the fabric for its shard; shards are merged in order on
// the calling goroutine. The result equals FromClaims(claims).
func ClaimAllParallel(ctx context.Context, claims []model.Claim, workers int) (*Fabric, error) {
	if workers > len(claims) {
		workers = len(claims)
	}
	if workers <= 1 {
		return FromClaims(claims)
	}

	shards := make([]*Fabric, workers)
	g, ctx := errgroup.WithContext(ctx)

	size := (len(claims) + workers - 1) / workers
	for i := 0; i < workers; i++ {
		i := i
		lo := i * size
		hi := min(lo+size, len(claims))
		if lo >= hi {
			shards[i] = New()
			continue
		}

		g.Go(func() error {
			shard := New()
			for _, claim := range claims[lo:hi] {
				if err := shard.claimAreaContext(ctx, claim); err != nil {
					return err
				}
			}
			shards[i] = shard
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	f := New()
	for _, shard := range shards {
		f.Merge(shard)
	}
	return f, nil
}

// cancelCheckInterval is how many cells are claimed between context checks
const cancelCheckInterval = 4096

// claimAreaContext is ClaimArea that stops once ctx is done, leaving the
// claim partially applied
func (f *Fabric) claimAreaContext(ctx context.Context, claim model.Claim) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	coords, err := model.Expand(claim)
	if err != nil {
		return err
	}

	for i, c := range coords {
		if i%cancelCheckInterval == 0 && i > 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		f.ClaimSquare(c, claim)
	}
	return nil
}
