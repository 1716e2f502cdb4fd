// Package whatlang implements language detection with whatlanggo, a
// trigram-based detector that runs offline.
package whatlang

import (
	"github.com/abadojack/whatlanggo"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driven"
)

// Ensure Detector implements the interface.
var _ driven.LanguageDetector = (*Detector)(nil)

// Detector wraps whatlanggo.
type Detector struct{}

// New creates a detector.
func New() *Detector {
	return &Detector{}
}

// Detect returns the ISO-639-1 code and confidence of the most likely
// language. Text with no recognisable script returns ("", 0).
func (d *Detector) Detect(text string) (string, float64) {
	info := whatlanggo.Detect(text)
	if info.Lang < 0 || info.Script == nil {
		return "", 0
	}
	return info.Lang.Iso6391(), info.Confidence
}
