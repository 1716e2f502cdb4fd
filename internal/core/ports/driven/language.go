package driven

// LanguageDetector identifies the language of a text.
type LanguageDetector interface {
	// Detect returns the ISO-639-1 code of the most likely language and a
	// confidence in [0, 1]. An empty code means no language was recognised.
	Detect(text string) (code string, confidence float64)
}
