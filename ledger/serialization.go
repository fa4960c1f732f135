package ledger

import (
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// EntryMUS serializes Entry values stored in the ledger database. Fields
// travel in declaration order; IngestedAt travels as Unix microseconds.
var EntryMUS = entryMUS{}

type entryMUS struct{}

var _ mus.Serializer[Entry] = entryMUS{}

func (entryMUS) Marshal(entry Entry, bs []byte) (n int) {
	n = ord.String.Marshal(entry.Path, bs)
	n += varint.Uint64.Marshal(entry.Digest, bs[n:])
	n += varint.Int.Marshal(entry.ChunkCount, bs[n:])
	n += ord.String.Marshal(entry.Collection, bs[n:])
	n += varint.Int64.Marshal(entry.IngestedAt.UnixMicro(), bs[n:])
	return n
}

func (entryMUS) Unmarshal(bs []byte) (entry Entry, n int, err error) {
	var n1 int
	entry.Path, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	entry.Digest, n1, err = varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	entry.ChunkCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	entry.Collection, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var micros int64
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	entry.IngestedAt = time.UnixMicro(micros).UTC()
	return
}

func (entryMUS) Size(entry Entry) (size int) {
	size = ord.String.Size(entry.Path)
	size += varint.Uint64.Size(entry.Digest)
	size += varint.Int.Size(entry.ChunkCount)
	size += ord.String.Size(entry.Collection)
	size += varint.Int64.Size(entry.IngestedAt.UnixMicro())
	return size
}

func (entryMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	n1, err = varint.Uint64.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int64.Skip(bs[n:])
	n += n1
	return
}

// MarshalEntry serializes an Entry to bytes.
func MarshalEntry(entry *Entry) []byte {
	buf := make([]byte, EntryMUS.Size(*entry))
	EntryMUS.Marshal(*entry, buf)
	return buf
}

// UnmarshalEntry deserializes an Entry from bytes.
func UnmarshalEntry(data []byte) (*Entry, error) {
	entry, _, err := EntryMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
