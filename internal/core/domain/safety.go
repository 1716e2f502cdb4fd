package domain

import (
	"fmt"
	"math"
	"time"
)

// Label is a safety classifier class.
type Label int

// The classifier has a fixed two-class label space.
const (
	LabelSafe   Label = 0
	LabelUnsafe Label = 1
)

// IsValid returns true if the label is in the two-class label space.
func (l Label) IsValid() bool {
	return l == LabelSafe || l == LabelUnsafe
}

// String returns the label name.
func (l Label) String() string {
	switch l {
	case LabelSafe:
		return "safe"
	case LabelUnsafe:
		return "unsafe"
	default:
		return fmt.Sprintf("label(%d)", int(l))
	}
}

// SupportedLanguages lists the ISO-639-1 codes accepted by the language guard.
var SupportedLanguages = []string{"en", "fr", "de", "es"}

// SafetyVerdict is the pre-flight decision for one turn. It is never persisted.
type SafetyVerdict struct {
	SupportedLanguage bool
	Safe              bool
}

// Allowed returns true if the turn may be forwarded to the model.
func (v SafetyVerdict) Allowed() bool {
	return v.SupportedLanguage && v.Safe
}

// ClassifierStateVersion is the current persisted classifier format.
const ClassifierStateVersion = 1

// ClassifierState holds the learned parameters of the safety classifier.
type ClassifierState struct {
	// Version is the persisted format version.
	Version int `json:"version"`

	// Revision increases by one on every persisted update.
	Revision int64 `json:"revision"`

	// EmbedderModel is the embedding model the weights were trained against.
	EmbedderModel string `json:"embedder_model"`

	// Dimensions is the embedding size, equal to len(Weights).
	Dimensions int `json:"dimensions"`

	// Weights are the logistic regression coefficients.
	Weights []float64 `json:"weights"`

	// Bias is the intercept.
	Bias float64 `json:"bias"`

	// LearningRate is the SGD step size used by incremental updates.
	LearningRate float64 `json:"learning_rate"`

	// L2 is the weight decay applied on each update.
	L2 float64 `json:"l2"`

	// Updates counts incremental updates applied since training.
	Updates int64 `json:"updates"`

	// UpdatedAt is when the state was last persisted.
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the state is complete and usable.
func (s *ClassifierState) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: no classifier state", ErrGuardrailUnavailable)
	}
	if s.Version != ClassifierStateVersion {
		return fmt.Errorf("%w: unsupported state version %d", ErrGuardrailUnavailable, s.Version)
	}
	if s.Dimensions <= 0 || len(s.Weights) != s.Dimensions {
		return fmt.Errorf("%w: %d weights for %d dimensions",
			ErrGuardrailUnavailable, len(s.Weights), s.Dimensions)
	}
	if s.LearningRate <= 0 {
		return fmt.Errorf("%w: learning rate must be positive", ErrGuardrailUnavailable)
	}
	if math.IsNaN(s.Bias) || math.IsInf(s.Bias, 0) {
		return fmt.Errorf("%w: bias is not finite", ErrGuardrailUnavailable)
	}
	for i, w := range s.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: weight %d is not finite", ErrGuardrailUnavailable, i)
		}
	}
	return nil
}

// Clone returns a deep copy of the state.
func (s *ClassifierState) Clone() *ClassifierState {
	if s == nil {
		return nil
	}
	c := *s
	c.Weights = append([]float64(nil), s.Weights...)
	return &c
}

// LabelledExample is a query with its known safety label, used for training.
type LabelledExample struct {
	Text  string
	Label Label
}
