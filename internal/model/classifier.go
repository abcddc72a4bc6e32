package model

import (
	"context"
	"fmt"
	"image"
	"io"
	"math"

	"github.com/Brownie44l1/knee-api/internal/logger"
	"github.com/Brownie44l1/knee-api/internal/preprocess"
)

// Classifier grades knee radiographs. It is read-only after construction
// and may be shared by concurrent requests.
type Classifier struct {
	net  Network
	opts preprocess.Options
	meta *Metadata
	log  logger.Logger
}

// NewClassifier wraps a network with the preprocessing it was trained with.
func NewClassifier(net Network, opts preprocess.Options, meta *Metadata, log logger.Logger) *Classifier {
	return &Classifier{net: net, opts: opts, meta: meta, log: log}
}

// Metadata returns the provenance record, or nil when none was shipped.
func (c *Classifier) Metadata() *Metadata {
	return c.meta
}

// Options returns the input transform.
func (c *Classifier) Options() preprocess.Options {
	return c.opts
}

// ClassifyReader decodes an image from r and classifies it.
func (c *Classifier) ClassifyReader(ctx context.Context, r io.Reader) (*Prediction, error) {
	img, format, err := preprocess.Decode(r, c.opts.MaxPixels)
	if err != nil {
		return nil, err
	}
	c.log.Debug("decoded ", format, " image ", img.Bounds().Dx(), "x", img.Bounds().Dy())
	return c.Classify(ctx, img)
}

// Classify runs the full pipeline on a decoded image.
func (c *Classifier) Classify(ctx context.Context, img image.Image) (*Prediction, error) {
	input, err := preprocess.ToTensor(img, c.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to preprocess image: %w", err)
	}

	scores, err := c.net.Forward(ctx, input)
	if err != nil {
		return nil, err
	}
	return newPrediction(scores)
}

// Close releases the network.
func (c *Classifier) Close() error {
	return c.net.Close()
}

func newPrediction(scores []float32) (*Prediction, error) {
	if len(scores) != NumGrades {
		return nil, fmt.Errorf("%w: expected %d scores, got %d", ErrUnexpectedOutput, NumGrades, len(scores))
	}
	probs, err := Softmax(scores)
	if err != nil {
		return nil, err
	}
	idx := Argmax(probs)

	all := make(map[string]float64, NumGrades)
	for i, p := range probs {
		all[Labels[i]] = p
	}
	return &Prediction{
		GradeIndex:      idx,
		Label:           Labels[idx],
		ConfidenceScore: probs[idx],
		Probabilities:   all,
	}, nil
}

// Softmax converts raw scores into probabilities summing to one.
// Scores are shifted by their maximum before exponentiation.
func Softmax(scores []float32) ([]float64, error) {
	if len(scores) == 0 {
		return nil, fmt.Errorf("%w: no scores", ErrUnexpectedOutput)
	}
	maxScore := math.Inf(-1)
	for _, s := range scores {
		v := float64(s)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite score %v", ErrUnexpectedOutput, s)
		}
		maxScore = math.Max(maxScore, v)
	}

	probs := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		probs[i] = math.Exp(float64(s) - maxScore)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs, nil
}

// Argmax returns the index of the largest value; ties go to the lowest index.
func Argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
