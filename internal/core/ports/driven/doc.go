// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentStore: Index, originals and chunk data persistence
//   - StageStore: Stage persistence
//   - Normaliser: Extracts text from one family of formats
//   - NormaliserRegistry: Selects the appropriate normaliser
//   - ChunkExtractor: Splits extracted text into chunks
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it, search is keyword-only.
//   - AIConfigValidator: Pings a provider before settings are saved.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
