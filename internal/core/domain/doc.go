// Package domain defines the core business entities for Nutrigenie.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ReferenceDocument: A recipe from the offline reference dataset
//   - VectorIndexEntry: A recipe paired with its embedding
//   - ClassifierState: The learned parameters of the safety classifier
//   - Message, ConversationTurn: Chat messages sent to and stored for the model
//   - TurnOutcome: The result of one moderated chat turn
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
