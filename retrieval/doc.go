// Package retrieval provides semantic and metadata-based lookup over
// ingested collections, including multi-collection search with merged
// ranking.
package retrieval
