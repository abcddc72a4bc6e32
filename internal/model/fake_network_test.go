package model

import (
	"context"
	"sync/atomic"
)

// fakeNetwork returns fixed scores and records the input it saw.
type fakeNetwork struct {
	scores    []float32
	err       error
	calls     atomic.Int32
	lastInput []float32
	closed    bool
}

func (f *fakeNetwork) Forward(ctx context.Context, input []float32) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.calls.Add(1)
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	return f.scores, nil
}

func (f *fakeNetwork) Close() error {
	f.closed = true
	return nil
}
