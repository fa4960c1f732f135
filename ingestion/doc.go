// Package ingestion provides pipeline orchestration for loading documents
// into the vector store.
//
// The Pipeline type manages the ingestion workflow, including:
//   - Recursive file discovery across one or more root folders
//   - Boundary-aware text splitting into overlapping chunks
//   - Deterministic chunk-identity assignment
//   - Metadata extraction via a pluggable strategy
//   - Batched, idempotent upserts to the store
//
// Processing is sequential and order-preserving: batches are written in
// discovery order, then chunk order within each file. A file that cannot be
// read is logged and skipped; it never fails the run.
package ingestion
