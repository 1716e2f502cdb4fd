package services

import (
	"strings"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driven"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driving"
	"github.com/nutrigenie/nutrigenie-cli/internal/logger"
)

// Ensure LanguageGuard implements the interface.
var _ driving.LanguageService = (*LanguageGuard)(nil)

// lowConfidence is the detector confidence under which a detection is logged as doubtful.
const lowConfidence = 0.5

// LanguageGuard accepts queries written in a supported language.
type LanguageGuard struct {
	detector  driven.LanguageDetector
	supported map[string]bool
}

// NewLanguageGuard creates a guard. A nil list uses domain.SupportedLanguages.
func NewLanguageGuard(detector driven.LanguageDetector, languages []string) *LanguageGuard {
	if languages == nil {
		languages = domain.SupportedLanguages
	}
	supported := make(map[string]bool, len(languages))
	for _, code := range languages {
		supported[strings.ToLower(code)] = true
	}
	return &LanguageGuard{
		detector:  detector,
		supported: supported,
	}
}

// IsSupported returns true if the detected language of query is supported.
// Short texts are often misdetected; the detection is not second-guessed.
func (g *LanguageGuard) IsSupported(query string) bool {
	if strings.TrimSpace(query) == "" {
		return false
	}
	code, confidence := g.detector.Detect(query)
	if confidence < lowConfidence {
		logger.Debug("Low-confidence language detection: %q (%.2f)", code, confidence)
	}
	ok := g.supported[strings.ToLower(code)]
	logger.Debug("Language %q supported=%t", code, ok)
	return ok
}
