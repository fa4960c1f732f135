package chroma

import (
	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"

	"github.com/ollieb89/chroma-tool/core"
)

func toDocumentIDs(ids []string) []chromago.DocumentID {
	out := make([]chromago.DocumentID, len(ids))
	for i, id := range ids {
		out[i] = chromago.DocumentID(id)
	}
	return out
}

func fromDocumentIDs(ids []chromago.DocumentID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func fromDocuments(docs []chromago.Document) []string {
	if len(docs) == 0 {
		return nil
	}
	out := make([]string, len(docs))
	for i, doc := range docs {
		out[i] = doc.ContentString()
	}
	return out
}

// toDocumentMetadata converts a metadata map to the library's attribute form.
// Chunk metadata is scalar by construction (see core.Metadata); values of any
// other type are dropped.
func toDocumentMetadata(meta core.Metadata) chromago.DocumentMetadata {
	attrs := make([]*chromago.MetaAttribute, 0, len(meta))
	for key, value := range meta {
		switch v := value.(type) {
		case string:
			attrs = append(attrs, chromago.NewStringAttribute(key, v))
		case bool:
			attrs = append(attrs, chromago.NewBoolAttribute(key, v))
		case int:
			attrs = append(attrs, chromago.NewIntAttribute(key, int64(v)))
		case int64:
			attrs = append(attrs, chromago.NewIntAttribute(key, v))
		case float64:
			attrs = append(attrs, chromago.NewFloatAttribute(key, v))
		}
	}
	return chromago.NewDocumentMetadata(attrs...)
}

func toDocumentMetadatas(metas []core.Metadata) []chromago.DocumentMetadata {
	out := make([]chromago.DocumentMetadata, len(metas))
	for i, meta := range metas {
		out[i] = toDocumentMetadata(meta)
	}
	return out
}

func fromDocumentMetadata(md chromago.DocumentMetadata) core.Metadata {
	meta := make(core.Metadata)
	if md == nil {
		return meta
	}
	keyed, ok := md.(interface{ Keys() []string })
	if !ok {
		return meta
	}
	for _, key := range keyed.Keys() {
		if v, ok := md.GetString(key); ok {
			meta[key] = v
			continue
		}
		if v, ok := md.GetInt(key); ok {
			meta[key] = int(v)
			continue
		}
		if v, ok := md.GetFloat(key); ok {
			meta[key] = v
			continue
		}
		if v, ok := md.GetBool(key); ok {
			meta[key] = v
		}
	}
	return meta
}

// whereFromMetadata builds an equality filter from a metadata map. Multiple
// keys combine with a logical AND.
func whereFromMetadata(meta core.Metadata) chromago.WhereFilter {
	if len(meta) == 0 {
		return nil
	}
	clauses := make([]chromago.WhereFilter, 0, len(meta))
	for key, value := range meta {
		switch v := value.(type) {
		case string:
			clauses = append(clauses, chromago.EqString(key, v))
		case bool:
			clauses = append(clauses, chromago.EqBool(key, v))
		case int:
			clauses = append(clauses, chromago.EqInt(key, v))
		case int64:
			clauses = append(clauses, chromago.EqInt(key, int(v)))
		case float64:
			clauses = append(clauses, chromago.EqFloat(key, float32(v)))
		}
	}
	if len(clauses) == 0 {
		return nil
	}
	if len(clauses) == 1 {
		return clauses[0]
	}
	return chromago.And(clauses...)
}

// whereDocumentFromMetadata translates the document-content operators the
// store abstraction exposes. Unknown operators are ignored.
func whereDocumentFromMetadata(meta core.Metadata) chromago.WhereDocumentFilter {
	if v, ok := meta["$contains"].(string); ok {
		return chromago.Contains(v)
	}
	if v, ok := meta["$not_contains"].(string); ok {
		return chromago.NotContains(v)
	}
	return nil
}
