package zran

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Range is a disjoint uncompressed byte range [Start, End) handed to one
// goroutine of ExtractShards.
type Range struct {
	Start, End int64
}

// ExtractShards extracts each of shards concurrently, calling opener once
// per shard to give every goroutine its own byte source and inflate
// session, per the concurrency contract: an index is safely shared across
// extractions provided each extraction owns its source. The returned
// slice's order matches shards; if any shard fails, the first error to
// occur is returned. That failure cancels ctx, so shards that have not yet
// started skip their extraction; an extraction already in progress runs to
// completion.
func ExtractShards(ctx context.Context, opener func() (SeekReaderAt, error), idx *DeflateIndex, shards []Range) ([][]byte, error) {
	results := make([][]byte, len(shards))

	g, ctx := errgroup.WithContext(ctx)
	for i, sh := range shards {
		i, sh := i, sh
		if sh.End < sh.Start {
			return nil, errors.Errorf("zran: shard %d has end %d before start %d", i, sh.End, sh.Start)
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := opener()
			if err != nil {
				return errors.Wrapf(err, "zran: opening source for shard %d", i)
			}

			buf := make([]byte, sh.End-sh.Start)
			n, err := Extract(src, idx, sh.Start, buf)
			if err != nil {
				return errors.Wrapf(err, "zran: extracting shard %d", i)
			}
			results[i] = buf[:n]
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
