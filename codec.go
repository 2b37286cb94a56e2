package lmdbstore

import (
	"github.com/vmihailenco/msgpack/v5"
)

// Codec converts values to and from the byte strings stored in the
// database. Implementations must round-trip common composite data
// (maps, slices, structs) faithfully.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// MsgpackCodec is the default codec. MessagePack handles arbitrary
// nested data and keeps values compact on disk.
type MsgpackCodec struct{}

func (MsgpackCodec) Marshal(v any) ([]byte, error) { return msgpack.Marshal(v) }

func (MsgpackCodec) Unmarshal(data []byte, v any) error { return msgpack.Unmarshal(data, v) }
