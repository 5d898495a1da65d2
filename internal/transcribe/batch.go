package transcribe

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"kwangun/internal/logging"
	"kwangun/internal/types"
)

// DeriveAll transcribes records with the built-in tables.
func DeriveAll(ctx context.Context, records []types.Record, workers int) ([]string, error) {
	return Default().DeriveAll(ctx, records, workers)
}

// DeriveAll transcribes records on at most workers goroutines. Result i is the
// transcription of records[i]. workers <= 0 means GOMAXPROCS. A cancelled
// context stops the batch and returns the context error.
func (d *Deriver) DeriveAll(ctx context.Context, records []types.Record, workers int) ([]string, error) {
	out := make([]string, len(records))
	if len(records) == 0 {
		return out, nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for i := range records {
		if egCtx.Err() != nil {
			break
		}
		i := i
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			out[i] = d.Derive(records[i])
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to derive batch: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to derive batch: %w", err)
	}

	logging.TranscribeDebug("derived %d records on %d workers", len(records), workers)
	return out, nil
}
