// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// Every chat turn needs all of these; missing any of them is a startup error:
//
//   - EmbeddingService: Turns text into vectors for retrieval and classification
//   - VectorIndex: Stores recipe embeddings and answers top-k queries
//   - ClassifierStateStore: Persists the safety classifier parameters
//   - LanguageDetector: Identifies the language of a query
//   - LLMService: One-shot and streamed completions
//   - ConversationStore: Conversation history and recipe suggestions
//   - PromptStore: System policy and helper prompts
//   - ConfigStore: Application configuration
//
// DatasetLoader is only needed by the bootstrap command.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
