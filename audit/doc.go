// Package audit analyzes an ingested entity portfolio: category and tech
// stack coverage, poorly covered technologies, and near-duplicate entities
// that are candidates for consolidation.
package audit
