// Package store defines the vector-store abstraction used by ingestion,
// retrieval, enrichment and audit.
//
// The store is a collection-oriented key-value/ANN collaborator: it persists
// chunks (id, document text, scalar metadata) and answers nearest-neighbor
// queries with distances. Embedding and similarity computation belong to the
// store, not to this module.
//
// # Constructor Return Type Pattern
//
// The backend constructor returns the store.Client interface to enforce
// abstraction:
//
//	client, err := chroma.New(chroma.Config{BaseURL: "http://localhost:9500"})
//
// This keeps consumers decoupled from the backend and lets tests use the
// in-memory implementation instead. memstore returns its concrete types so
// tests can reach the error-injection hooks:
//
//	client := memstore.New()
//
// # Lifecycle
//
// A single client is constructed at process start and passed into every
// component constructor. There is no hidden global instance; tear the client
// down with Close at shutdown. The client holds no transactions or locks;
// concurrency control on writes is the store's own responsibility.
//
// # Context Support
//
// All operations accept context.Context for cancellation and timeouts.
package store
