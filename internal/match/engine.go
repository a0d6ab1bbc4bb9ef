package match

import (
	"fmt"
	"math"

	"facevault/internal/config"
	"facevault/internal/services"
)

// Engine compares live samples against stored templates.
type Engine struct {
	faceDim        int
	voiceDim       int
	faceTolerance  float64
	voiceThreshold float64
}

// Decision reports the outcome of a single factor comparison.
type Decision struct {
	Accepted bool
	// Distance is the Euclidean distance that decided the outcome: the
	// minimum over stored face samples, or the single voice distance.
	Distance float64
}

// NewEngine builds an engine from the configured thresholds and template shapes.
func NewEngine(cfg *config.Config) *Engine {
	return &Engine{
		faceDim:        cfg.Matching.FaceEmbeddingDim,
		voiceDim:       cfg.Matching.VoiceCoefficients,
		faceTolerance:  cfg.Matching.FaceTolerance,
		voiceThreshold: cfg.Matching.VoiceThreshold,
	}
}

// CompareFace accepts when the candidate lands strictly within tolerance of
// at least one stored embedding. Order of stored samples does not affect the
// outcome.
func (e *Engine) CompareFace(candidate []float64, stored [][]float64) (Decision, error) {
	if len(stored) == 0 {
		return Decision{}, services.Wrap(services.ErrNoReferenceData, "match", "compare face", "no stored embeddings", nil)
	}
	if len(candidate) != e.faceDim {
		return Decision{}, services.Wrap(services.ErrInvalidInput, "match", "compare face",
			fmt.Sprintf("candidate has %d dimensions, expected %d", len(candidate), e.faceDim), nil)
	}
	best := math.Inf(1)
	for i, sample := range stored {
		if len(sample) != e.faceDim {
			return Decision{}, services.Wrap(services.ErrInvalidInput, "match", "compare face",
				fmt.Sprintf("stored sample %d has %d dimensions, expected %d", i, len(sample), e.faceDim), nil)
		}
		if d := euclidean(candidate, sample); d < best {
			best = d
		}
	}
	return Decision{Accepted: best < e.faceTolerance, Distance: best}, nil
}

// CompareVoice accepts when the candidate signature is strictly within the
// voice threshold of the stored signature.
func (e *Engine) CompareVoice(candidate, stored []float64) (Decision, error) {
	if len(stored) == 0 {
		return Decision{}, services.Wrap(services.ErrNoReferenceData, "match", "compare voice", "no stored signature", nil)
	}
	if len(candidate) != e.voiceDim {
		return Decision{}, services.Wrap(services.ErrInvalidInput, "match", "compare voice",
			fmt.Sprintf("candidate has %d coefficients, expected %d", len(candidate), e.voiceDim), nil)
	}
	if len(stored) != e.voiceDim {
		return Decision{}, services.Wrap(services.ErrInvalidInput, "match", "compare voice",
			fmt.Sprintf("stored signature has %d coefficients, expected %d", len(stored), e.voiceDim), nil)
	}
	d := euclidean(candidate, stored)
	return Decision{Accepted: d < e.voiceThreshold, Distance: d}, nil
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
