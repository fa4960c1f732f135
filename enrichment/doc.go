// Package enrichment infers category, tech stack and description metadata
// for documents that were ingested without it, using keyword heuristics
// over document content. Inferred values carry confidence scores so callers
// can distinguish them from curated metadata.
package enrichment
