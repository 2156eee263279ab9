package router

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zhinjs/segment-matcher-sub000/engine"
)

// BatchResult holds the outcome of dispatching a batch of inputs.
type BatchResult struct {
	ProcessedInputs int `json:"processed_inputs"`
	// command name -> number of inputs it matched
	MatchedCommands map[string]int `json:"matched_commands"`
	// per input, same index as the batch
	Dispatches [][]Dispatch `json:"-"`
	// input index -> dispatch error; the other inputs still run
	Errors         map[int]error `json:"-"`
	ProcessingTime time.Duration `json:"processing_time"`
}

// DispatchBatch dispatches every input with at most workers concurrent
// dispatches (workers <= 0 means one per input). A failing input is recorded
// in Errors; only cancellation of ctx aborts the batch.
func (r *Router) DispatchBatch(ctx context.Context, inputs [][]engine.Segment, workers int) (*BatchResult, error) {
	start := time.Now()
	res := &BatchResult{
		ProcessedInputs: len(inputs),
		MatchedCommands: make(map[string]int),
		Dispatches:      make([][]Dispatch, len(inputs)),
		Errors:          make(map[int]error),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, segs := range inputs {
		i, segs := i, segs
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			got, err := r.Dispatch(gctx, segs)
			mu.Lock()
			defer mu.Unlock()
			res.Dispatches[i] = got
			for _, d := range got {
				res.MatchedCommands[d.Command.Name]++
			}
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				res.Errors[i] = err
			}
			return nil
		})
	}
	err := g.Wait()

	res.ProcessingTime = time.Since(start)
	r.logger.Debug().
		Int("inputs", len(inputs)).
		Int("errors", len(res.Errors)).
		Dur("duration", res.ProcessingTime).
		Msg("batch dispatched")
	return res, err
}
