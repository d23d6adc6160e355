// Package stream combines live query snapshots into list states that a
// client can render directly.
package stream

import (
	"context"

	apperrors "apptrueq/pkg/errors"
)

// Snapshot is one emission of a live query: the full current result set, or
// the error that ended the listener.
type Snapshot[T any] struct {
	Items []T
	Err   error
}

// ListState is what a subscriber sees. IsLoading is true only until every
// input has produced its first snapshot. A non-empty Error is terminal.
type ListState[T any] struct {
	IsLoading bool   `json:"is_loading"`
	Data      []T    `json:"data"`
	Error     string `json:"error,omitempty"`
}

// Source starts a live query bound to ctx. The returned channel must be
// closed once ctx is done.
type Source[T any] func(ctx context.Context) <-chan Snapshot[T]

type indexed[T any] struct {
	index  int
	snap   Snapshot[T]
	closed bool
}

// CombineLatest subscribes to every source and re-runs combine over the
// latest snapshot of each input whenever any of them emits. The first state
// is always loading; the first input error produces one error state and ends
// the subscription. Delivery keeps only the newest state, so a slow reader
// never blocks the listeners.
func CombineLatest[T, R any](ctx context.Context, combine func(latest [][]T) []R, sources ...Source[T]) <-chan ListState[R] {
	out := make(chan ListState[R], 1)
	ctx, cancel := context.WithCancel(ctx)

	merged := make(chan indexed[T])
	for i, src := range sources {
		in := src(ctx)
		go func(i int, in <-chan Snapshot[T]) {
			for {
				select {
				case s, ok := <-in:
					if !ok {
						select {
						case merged <- indexed[T]{index: i, closed: true}:
						case <-ctx.Done():
						}
						return
					}
					select {
					case merged <- indexed[T]{index: i, snap: s}:
					case <-ctx.Done():
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}(i, in)
	}

	go func() {
		defer close(out)
		defer cancel()

		emit := func(s ListState[R]) bool {
			select {
			case out <- s:
				return true
			default:
			}
			// drop the stale state nobody has read yet
			select {
			case <-out:
			default:
			}
			select {
			case out <- s:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit(ListState[R]{IsLoading: true}) {
			return
		}
		if len(sources) == 0 {
			data := combine(nil)
			if data == nil {
				data = []R{}
			}
			emit(ListState[R]{Data: data})
			return
		}

		latest := make([][]T, len(sources))
		seen := make([]bool, len(sources))
		seenCount := 0
		open := len(sources)

		for {
			select {
			case <-ctx.Done():
				return
			case m := <-merged:
				if m.closed {
					open--
					if open == 0 {
						return
					}
					continue
				}
				if m.snap.Err != nil {
					emit(ListState[R]{Error: apperrors.Message(m.snap.Err)})
					return
				}
				latest[m.index] = m.snap.Items
				if !seen[m.index] {
					seen[m.index] = true
					seenCount++
				}
				if seenCount < len(sources) {
					continue
				}
				data := combine(latest)
				if data == nil {
					data = []R{}
				}
				if !emit(ListState[R]{Data: data}) {
					return
				}
			}
		}
	}()

	return out
}

// FromSlice is a Source that emits items once and then waits for ctx. It
// backs one-shot reads that share the live pipeline.
func FromSlice[T any](items []T, err error) Source[T] {
	return func(ctx context.Context) <-chan Snapshot[T] {
		ch := make(chan Snapshot[T], 1)
		ch <- Snapshot[T]{Items: items, Err: err}
		go func() {
			<-ctx.Done()
			close(ch)
		}()
		return ch
	}
}

// First blocks until the first settled (non-loading) state arrives.
func First[R any](ctx context.Context, states <-chan ListState[R]) (ListState[R], error) {
	for {
		select {
		case <-ctx.Done():
			return ListState[R]{}, ctx.Err()
		case s, ok := <-states:
			if !ok {
				return ListState[R]{}, context.Canceled
			}
			if !s.IsLoading {
				return s, nil
			}
		}
	}
}
