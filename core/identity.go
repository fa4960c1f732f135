package core

import (
	"encoding/binary"
	"path"
	"strconv"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// NormalizePath returns the canonical form of a source path used in chunk ids:
// forward slashes, with "." and ".." segments resolved. Equivalent paths always
// normalize to the same string, so re-ingesting the same file yields the same
// ids.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return path.Clean(p)
}

// ChunkID derives the deterministic chunk id for a source file and chunk
// index. The full normalized path is part of the id so that files sharing a
// basename in different directories never collide.
func ChunkID(sourcePath string, index int) string {
	return NormalizePath(sourcePath) + ":" + strconv.Itoa(index)
}

// EntityChunkID derives the chunk id for a named entity's chunk. The entity
// name is prefixed so chunks group under the entity while the path keeps ids
// unique across files that declare the same name.
func EntityChunkID(entityName, sourcePath string, index int) string {
	return entityName + ":" + NormalizePath(sourcePath) + ":" + strconv.Itoa(index)
}

// SourceKey returns the file-level prefix of a chunk id: everything before the
// trailing chunk-index segment. Chunks sharing a source key belong to the same
// entity.
func SourceKey(id string) string {
	i := strings.LastIndex(id, ":")
	if i < 0 {
		return id
	}
	return id[:i]
}

// ContentDigest generates a deterministic 64-bit digest of text content using
// BLAKE2b hashing. Identical content produces identical digests; the ledger
// uses this to detect unchanged files between ingestion runs.
func ContentDigest(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}
