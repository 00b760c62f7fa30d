// Package snapshot encodes and decodes in-memory checkpoints of engine state.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/hashicorp/go-msgpack/codec"
)

// magicHeader is added at the start of every snapshot.
const magicHeader uint16 = 0xD47A

// Kind of engine the snapshot was taken from. Encoded along with the payload
// so a snapshot can't be restored into the wrong engine.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindRing
	KindRush
)

var knownKinds = map[Kind]string{
	KindInvalid: "invalid",
	KindRing:    "ring",
	KindRush:    "rush",
}

// String returns the kind name.
func (k Kind) String() string {
	val, ok := knownKinds[k]
	if !ok {
		return "unknown"
	}
	return val
}

// Valid returns true when k is a known kind other than KindInvalid.
func (k Kind) Valid() bool {
	_, ok := knownKinds[k]
	return ok && k != KindInvalid
}

// Encode encodes state with a kind. Msgpack is used for encoding structs.
func Encode(kind Kind, state interface{}) ([]byte, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("invalid snapshot kind %[1]d (%[1]s)", kind)
	}

	buf := bytes.NewBuffer(nil)

	// Write magic header and kind
	_ = binary.Write(buf, binary.BigEndian, magicHeader)
	buf.WriteByte(uint8(kind))

	var handle codec.MsgpackHandle
	enc := codec.NewEncoder(buf, &handle)
	if err := enc.Encode(state); err != nil {
		return nil, fmt.Errorf("failed to encode %s snapshot: %w", kind, err)
	}
	return buf.Bytes(), nil
}

// Decode validates the header of raw and decodes its payload into state.
// An error is returned if raw was not produced by Encode with kind.
func Decode(raw []byte, kind Kind, state interface{}) error {
	if len(raw) < 3 {
		return fmt.Errorf("payload too small for snapshot")
	}

	magic := binary.BigEndian.Uint16(raw[0:2])
	if magic != magicHeader {
		return fmt.Errorf("invalid magic header %x", magic)
	}

	if got := Kind(raw[2]); got != kind {
		return fmt.Errorf("snapshot kind mismatch: want %s, got %s", kind, got)
	}

	var handle codec.MsgpackHandle
	dec := codec.NewDecoder(bytes.NewReader(raw[3:]), &handle)
	return dec.Decode(state)
}
