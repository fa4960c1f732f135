// Package ledger persists per-file ingest state in BadgerDB so repeated
// runs can skip files whose content has not changed since the last
// successful ingestion.
package ledger
