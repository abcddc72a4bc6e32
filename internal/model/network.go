package model

import (
	"context"
	"errors"
)

var (
	// ErrWeightsNotFound is returned by Load when the weight file is absent.
	// Callers keep running with no classifier.
	ErrWeightsNotFound = errors.New("model file not found")
	// ErrUnexpectedOutput means the network produced scores that cannot be
	// mapped onto the label table.
	ErrUnexpectedOutput = errors.New("unexpected network output")
)

// Network runs a forward pass over one NCHW input and returns the raw
// class scores. Implementations must be safe for concurrent use.
type Network interface {
	Forward(ctx context.Context, input []float32) ([]float32, error)
	Close() error
}
