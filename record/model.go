package record

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/rvellem/namewrap/fuses"
)

// Record is the wrapped state of one node. The registry-level owner of a
// wrapped node is always the system identity; Owner here is the wrapped
// rights-holder the engine authorizes against.
//
// Record instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Record struct {
	Owner  string
	Fuses  fuses.Fuses
	Expiry uint64
	Name   []byte
}

const recordFormatVersionV1 = 1

// maxOwnerLength is a format limit: the owner length is stored in one byte
// and the owner CAS script relies on that fixed position.
const maxOwnerLength = 255

func Encode(r *Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordFormatVersionV1)

	if len(r.Owner) > maxOwnerLength {
		return nil, errors.New("owner too long")
	}
	buf.WriteByte(byte(len(r.Owner)))
	buf.WriteString(r.Owner)

	if err := binary.Write(&buf, binary.BigEndian, uint32(r.Fuses)); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.Expiry); err != nil {
		return nil, err
	}

	if len(r.Name) > 0xFFFF {
		return nil, errors.New("name too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(r.Name))); err != nil {
		return nil, err
	}
	buf.Write(r.Name)

	return buf.Bytes(), nil
}

func Decode(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordFormatVersionV1 {
		return nil, errors.New("invalid record version")
	}

	r := &Record{}

	ownerLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	owner := make([]byte, ownerLen)
	if _, err := io.ReadFull(reader, owner); err != nil {
		return nil, err
	}
	r.Owner = string(owner)

	var rawFuses uint32
	if err := binary.Read(reader, binary.BigEndian, &rawFuses); err != nil {
		return nil, err
	}
	r.Fuses = fuses.Fuses(rawFuses)

	if err := binary.Read(reader, binary.BigEndian, &r.Expiry); err != nil {
		return nil, err
	}

	var nameLen uint16
	if err := binary.Read(reader, binary.BigEndian, &nameLen); err != nil {
		return nil, err
	}
	if nameLen > 0 {
		name := make([]byte, nameLen)
		if _, err := io.ReadFull(reader, name); err != nil {
			return nil, err
		}
		r.Name = name
	}

	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes after record")
	}

	return r, nil
}
