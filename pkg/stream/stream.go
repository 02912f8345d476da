// Package stream is a small generics-first pull-stream kernel: a stream is
// just a function that yields one element or io.EOF-like EOS. It backs the
// windowing engine's pattern matchers, which scan a window's signals without
// copying them into ad-hoc loops.
package stream

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// EOS signals end of stream.
var EOS = errors.New("end of stream")

// Stream pulls one element at a time. Calling it after EOS has been
// returned is undefined; callers stop on the first non-nil error.
type Stream[T any] func() (T, error)

// Filter transforms one stream into another.
type Filter[T, U any] func(Stream[T]) Stream[U]

// FromSlice creates a stream over a slice, in order.
func FromSlice[T any](items []T) Stream[T] {
	index := 0
	return func() (T, error) {
		if index >= len(items) {
			var zero T
			return zero, EOS
		}
		item := items[index]
		index++
		return item, nil
	}
}

// FromChannel creates a stream that drains a channel until it closes.
func FromChannel[T any](ch <-chan T) Stream[T] {
	return func() (T, error) {
		item, ok := <-ch
		if !ok {
			var zero T
			return zero, EOS
		}
		return item, nil
	}
}

// Generate adapts any (T, error) producer into a Stream.
func Generate[T any](generator func() (T, error)) Stream[T] {
	return generator
}

// Map transforms each element.
func Map[T, U any](fn func(T) U) Filter[T, U] {
	return func(input Stream[T]) Stream[U] {
		return func() (U, error) {
			item, err := input()
			if err != nil {
				var zero U
				return zero, err
			}
			return fn(item), nil
		}
	}
}

// Where keeps only elements matching a predicate.
func Where[T any](predicate func(T) bool) Filter[T, T] {
	return func(input Stream[T]) Stream[T] {
		return func() (T, error) {
			for {
				item, err := input()
				if err != nil {
					var zero T
					return zero, err
				}
				if predicate(item) {
					return item, nil
				}
			}
		}
	}
}

// Take limits a stream to its first n elements.
func Take[T any](n int) Filter[T, T] {
	return func(input Stream[T]) Stream[T] {
		count := 0
		return func() (T, error) {
			if count >= n {
				var zero T
				return zero, EOS
			}
			count++
			return input()
		}
	}
}

// Skip drops the first n elements.
func Skip[T any](n int) Filter[T, T] {
	return func(input Stream[T]) Stream[T] {
		skipped := 0
		return func() (T, error) {
			for skipped < n {
				if _, err := input(); err != nil {
					var zero T
					return zero, err
				}
				skipped++
			}
			return input()
		}
	}
}

// Pipe composes two filters.
func Pipe[T, U, V any](f1 Filter[T, U], f2 Filter[U, V]) Filter[T, V] {
	return func(input Stream[T]) Stream[V] {
		return f2(f1(input))
	}
}

// Pipe3 composes three filters.
func Pipe3[T, U, V, W any](f1 Filter[T, U], f2 Filter[U, V], f3 Filter[V, W]) Filter[T, W] {
	return func(input Stream[T]) Stream[W] {
		return f3(f2(f1(input)))
	}
}

// Chain composes same-type filters left to right.
func Chain[T any](filters ...Filter[T, T]) Filter[T, T] {
	return func(input Stream[T]) Stream[T] {
		s := input
		for _, f := range filters {
			s = f(s)
		}
		return s
	}
}

// Count drains a stream and counts its elements.
func Count[T any](s Stream[T]) (int64, error) {
	var count int64
	for {
		_, err := s()
		if err != nil {
			if errors.Is(err, EOS) {
				return count, nil
			}
			return count, err
		}
		count++
	}
}

// Collect drains a stream into a slice.
func Collect[T any](s Stream[T]) ([]T, error) {
	var result []T
	for {
		item, err := s()
		if err != nil {
			if errors.Is(err, EOS) {
				return result, nil
			}
			return result, err
		}
		result = append(result, item)
	}
}

// ForEach drains a stream, invoking fn for each element.
func ForEach[T any](fn func(T)) func(Stream[T]) error {
	return func(s Stream[T]) error {
		for {
			item, err := s()
			if err != nil {
				if errors.Is(err, EOS) {
					return nil
				}
				return err
			}
			fn(item)
		}
	}
}

// Parallel fans work out with bounded concurrency: rather than a fixed pool
// of workers draining a shared input channel, it admits at most workers
// in-flight calls to fn at a time via a semaphore and spawns one goroutine
// per item, each registered with the errgroup. fn has no error result, and a
// non-EOS error from input ends the output stream as if it were EOS. Output
// order follows completion, not input order.
func Parallel[T, U any](workers int, fn func(T) U) Filter[T, U] {
	return func(input Stream[T]) Stream[U] {
		ctx, cancel := context.WithCancel(context.Background())
		g, gctx := errgroup.WithContext(ctx)

		sem := make(chan struct{}, workers)
		outputCh := make(chan U, workers)

		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				item, err := input()
				if err != nil {
					return nil
				}
				select {
				case sem <- struct{}{}:
				case <-gctx.Done():
					return gctx.Err()
				}
				g.Go(func() error {
					defer func() { <-sem }()
					result := fn(item)
					select {
					case outputCh <- result:
						return nil
					case <-gctx.Done():
						return gctx.Err()
					}
				})
			}
		})

		go func() {
			g.Wait()
			close(outputCh)
		}()

		return func() (U, error) {
			select {
			case <-gctx.Done():
				cancel()
				var zero U
				return zero, gctx.Err()
			case item, ok := <-outputCh:
				if !ok {
					cancel()
					var zero U
					return zero, EOS
				}
				return item, nil
			}
		}
	}
}

// WithContext aborts a stream as soon as ctx is cancelled, even if the pull
// already in flight would otherwise block: each call to s runs in its own
// goroutine, racing its result against ctx.Done instead of only checking
// ctx before a pull starts.
func WithContext[T any](ctx context.Context, s Stream[T]) Stream[T] {
	type pulled struct {
		v   T
		err error
	}
	results := make(chan pulled, 1)
	return func() (T, error) {
		go func() {
			v, err := s()
			results <- pulled{v, err}
		}()
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case r := <-results:
			return r.v, r.err
		}
	}
}

// Numeric constrains types Sum can accumulate.
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Sum aggregates numeric values.
func Sum[T Numeric](s Stream[T]) (T, error) {
	var total T
	for {
		val, err := s()
		if err != nil {
			if errors.Is(err, EOS) {
				return total, nil
			}
			return total, err
		}
		total += val
	}
}
