package model

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"

	"github.com/Brownie44l1/knee-api/internal/preprocess"
	"github.com/Brownie44l1/knee-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSoftmax(t *testing.T) {
	tests := []struct {
		name   string
		scores []float32
	}{
		{"uniform", []float32{0, 0, 0, 0, 0}},
		{"peaked", []float32{-2, 0.5, 7, 1, -3}},
		{"large magnitudes", []float32{1000, 999, 998, -1000, 0}},
		{"all negative", []float32{-50, -51, -52, -53, -54}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probs, err := Softmax(tt.scores)
			require.NoError(t, err)

			var sum float64
			for _, p := range probs {
				assert.GreaterOrEqual(t, p, 0.0)
				assert.LessOrEqual(t, p, 1.0)
				sum += p
			}
			assert.InDelta(t, 1.0, sum, 1e-9)
		})
	}
}

func TestSoftmax_PreservesOrder(t *testing.T) {
	probs, err := Softmax([]float32{1, 3, 2})
	require.NoError(t, err)
	assert.Greater(t, probs[1], probs[2])
	assert.Greater(t, probs[2], probs[0])
	assert.InDelta(t, math.Exp(3)/(math.Exp(1)+math.Exp(2)+math.Exp(3)), probs[1], 1e-9)
}

func TestSoftmax_Invalid(t *testing.T) {
	for _, scores := range [][]float32{
		nil,
		{1, float32(math.NaN()), 0},
		{float32(math.Inf(1)), 0},
	} {
		_, err := Softmax(scores)
		assert.ErrorIs(t, err, ErrUnexpectedOutput)
	}
}

func TestArgmax(t *testing.T) {
	assert.Equal(t, 2, Argmax([]float64{0.1, 0.2, 0.7}))
	assert.Equal(t, 0, Argmax([]float64{0.5, 0.5}), "ties resolve to the lowest index")
	assert.Equal(t, 0, Argmax([]float64{1}))
}

func TestGrade(t *testing.T) {
	assert.Equal(t, 5, NumGrades)
	assert.Equal(t, "0_Healthy", GradeHealthy.String())
	assert.Equal(t, "4_Severe", GradeSevere.String())
	assert.True(t, GradeMinimal.Valid())
	assert.False(t, Grade(5).Valid())
	assert.False(t, Grade(-1).Valid())
	assert.Equal(t, "Grade(7)", Grade(7).String())
}

func newTestClassifier(net Network) *Classifier {
	return NewClassifier(net, preprocess.DefaultOptions(), nil, &testutil.RecordingLogger{})
}

func TestClassifier_Classify(t *testing.T) {
	net := &fakeNetwork{scores: []float32{0.1, 0.2, 4.0, 0.3, -1}}
	c := newTestClassifier(net)

	pred, err := c.Classify(context.Background(), testutil.GradientImage(300, 200))
	require.NoError(t, err)

	assert.Equal(t, 2, pred.GradeIndex)
	assert.Equal(t, GradeMinimal, pred.Grade())
	assert.Equal(t, "2_Minimal", pred.Label)
	assert.Greater(t, pred.ConfidenceScore, 0.8)
	assert.LessOrEqual(t, pred.ConfidenceScore, 1.0)
	assert.Len(t, pred.Probabilities, NumGrades)
	assert.InDelta(t, pred.ConfidenceScore, pred.Probabilities["2_Minimal"], 1e-12)
	assert.Len(t, net.lastInput, 3*224*224)
}

func TestClassifier_ClassifyReader(t *testing.T) {
	net := &fakeNetwork{scores: []float32{5, 0, 0, 0, 0}}
	c := newTestClassifier(net)

	data := testutil.JPEGBytes(t, testutil.GradientImage(512, 512))
	pred, err := c.ClassifyReader(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "0_Healthy", pred.Label)
}

func TestClassifier_ClassifyReader_NotAnImage(t *testing.T) {
	net := &fakeNetwork{scores: []float32{5, 0, 0, 0, 0}}
	c := newTestClassifier(net)

	_, err := c.ClassifyReader(context.Background(), bytes.NewReader([]byte("%PDF-1.4")))
	assert.ErrorIs(t, err, preprocess.ErrDecode)
	assert.Zero(t, net.calls.Load(), "network must not run on undecodable input")
}

func TestClassifier_Errors(t *testing.T) {
	img := testutil.GradientImage(10, 10)

	t.Run("wrong output width", func(t *testing.T) {
		c := newTestClassifier(&fakeNetwork{scores: []float32{1, 2, 3}})
		_, err := c.Classify(context.Background(), img)
		assert.ErrorIs(t, err, ErrUnexpectedOutput)
	})

	t.Run("network failure", func(t *testing.T) {
		boom := errors.New("inference failed")
		c := newTestClassifier(&fakeNetwork{err: boom})
		_, err := c.Classify(context.Background(), img)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("cancelled request", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		c := newTestClassifier(&fakeNetwork{scores: []float32{1, 2, 3, 4, 5}})
		_, err := c.Classify(ctx, img)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestClassifier_Close(t *testing.T) {
	net := &fakeNetwork{}
	require.NoError(t, newTestClassifier(net).Close())
	assert.True(t, net.closed)
}
