package domain

import "time"

// TurnStatus is the outcome category of one chat turn.
type TurnStatus string

// Available turn statuses.
const (
	// TurnAnswered means the model answered and the answer was stored.
	TurnAnswered TurnStatus = "answered"

	// TurnRejectedLanguage means the query was not in a supported language.
	TurnRejectedLanguage TurnStatus = "rejected_language"

	// TurnRejectedUnsafe means the safety classifier flagged the query.
	TurnRejectedUnsafe TurnStatus = "rejected_unsafe"

	// TurnInjection means the model answered with the injection sentinel.
	TurnInjection TurnStatus = "injection"

	// TurnRateLimited means every attempt was rate limited.
	TurnRateLimited TurnStatus = "rate_limited"
)

// User-facing messages. The assistant speaks French, as does its audience.
const (
	// InjectionSentinel is the exact answer the model gives when it detects prompt injection.
	InjectionSentinel = "Injection"

	// RateLimitFailureMessage replaces the answer when retries are exhausted.
	RateLimitFailureMessage = "❌ Erreur : Limite de requêtes atteinte."

	// UnsafeWarning is shown when the safety classifier rejects a query.
	UnsafeWarning = "⚠️ Votre message ne respecte pas nos consignes."

	// UnsupportedLanguageWarning is shown when the language guard rejects a query.
	UnsupportedLanguageWarning = "⚠️ Langue non prise en charge. Merci d'écrire en français, anglais, allemand ou espagnol."

	// InjectionWarning is shown when the model flags the query after the fact.
	InjectionWarning = "⚠️ Votre message a été identifié comme une tentative de détournement et n'a pas été traité."

	// GenerationFailedMessage is shown when the model fails for a reason other than rate limiting.
	GenerationFailedMessage = "❌ Erreur lors de la génération de la réponse."
)

// RecipeKeywords trigger recipe title extraction when present in an answer.
var RecipeKeywords = []string{"recette", "plat", "préparer", "ingrédients"}

// TurnRequest is the input to a chat turn.
type TurnRequest struct {
	// ConversationID is empty to start a new conversation.
	ConversationID string

	// Query is the raw user utterance.
	Query string

	// Temperature overrides the configured sampling temperature when set.
	// Zero is a valid override.
	Temperature *float64
}

// TurnOutcome is the result of one chat turn.
type TurnOutcome struct {
	// ConversationID is the conversation the turn was recorded in.
	ConversationID string

	// Status is the outcome category.
	Status TurnStatus

	// Verdict is the pre-flight safety decision.
	Verdict SafetyVerdict

	// Answer is the text shown to the user: the model answer, a warning or the failure sentinel.
	Answer string

	// Latency is the generation time, zero for rejected turns.
	Latency time.Duration

	// Attempts is the number of model calls made.
	Attempts int

	// Retrieved holds the grounding documents.
	Retrieved []ReferenceDocument

	// Suggestions holds newly stored recipe suggestions.
	Suggestions []string
}
