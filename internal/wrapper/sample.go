package wrapper

import (
	"context"
	"fmt"
	"time"
)

// maxIterations bounds calibration for bodies the clock cannot resolve
const maxIterations = 1 << 30

// SampleResult is the outcome of one calibrated benchmark
type SampleResult struct {
	Name       string
	Iterations int
	Elapsed    time.Duration
}

// NsPerOp returns mean nanoseconds per call
func (r SampleResult) NsPerOp() float64 {
	if r.Iterations == 0 {
		return 0
	}
	return float64(r.Elapsed.Nanoseconds()) / float64(r.Iterations)
}

// Sample runs fn once to warm up, then grows the batch size until one
// batch takes at least target. The first error aborts the sample.
func Sample(ctx context.Context, name string, fn Func, target time.Duration) (SampleResult, error) {
	if err := fn(); err != nil {
		return SampleResult{}, fmt.Errorf("warm up %s: %w", name, err)
	}

	n := 1
	var elapsed time.Duration
	for {
		if err := ctx.Err(); err != nil {
			return SampleResult{}, err
		}

		start := time.Now()
		for range n {
			if err := fn(); err != nil {
				return SampleResult{}, fmt.Errorf("sample %s: %w", name, err)
			}
		}
		elapsed = time.Since(start)

		if elapsed >= target || n >= maxIterations {
			break
		}

		// Aim for target based on the current rate
		if elapsed > 0 {
			next := int(float64(n) * float64(target) / float64(elapsed))
			if next <= n {
				next = n * 2
			}
			n = next
		} else {
			n *= 10
		}
		if n > maxIterations {
			n = maxIterations
		}
	}

	return SampleResult{Name: name, Iterations: n, Elapsed: elapsed}, nil
}
