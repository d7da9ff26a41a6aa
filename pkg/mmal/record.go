package mmal

import (
	"encoding/binary"

	"github.com/thesyncim/gommal/pkg/native"
)

// A parameter record is the 8-byte header {id, size} followed by the body
// in native layout. Bodies are fixed-size little-endian values.

// RecordSize returns the full record size for body.
func RecordSize(body any) int {
	return native.ParamHeaderSize + binary.Size(body)
}

// MarshalRecord encodes the header and body of parameter id.
func MarshalRecord(id native.ParamID, body any) ([]byte, error) {
	size := RecordSize(body)
	rec := make([]byte, native.ParamHeaderSize, size)
	binary.LittleEndian.PutUint32(rec[0:], uint32(id))
	binary.LittleEndian.PutUint32(rec[4:], uint32(size))
	return binary.Append(rec, binary.LittleEndian, body)
}

// UnmarshalRecord decodes the body of rec into body, which must be a
// pointer.
func UnmarshalRecord(rec []byte, body any) error {
	_, err := binary.Decode(rec[native.ParamHeaderSize:], binary.LittleEndian, body)
	return err
}

func setRecord(b native.Backend, port native.Port, id native.ParamID, body any) error {
	rec, err := MarshalRecord(id, body)
	if err != nil {
		return err
	}
	if st := b.PortParameterSet(port, rec); st != native.StatusSuccess {
		return st
	}
	return nil
}

func getRecord(b native.Backend, port native.Port, id native.ParamID, body any) error {
	rec, err := MarshalRecord(id, body)
	if err != nil {
		return err
	}
	if st := b.PortParameterGet(port, rec); st != native.StatusSuccess {
		return st
	}
	return UnmarshalRecord(rec, body)
}

// NativeBool converts to MMAL_BOOL_T.
func NativeBool(v bool) uint32 {
	if v {
		return native.True
	}
	return native.False
}

// GoBool converts from MMAL_BOOL_T; any nonzero value is true.
func GoBool(v uint32) bool { return v != native.False }

// Struct is a parameter whose body is the native struct N. T is the Go-side
// value; enc and dec convert between the two.
type Struct[T, N any] struct {
	ID    native.ParamID
	Value T

	enc func(T) N
	dec func(N) (T, error)
}

// NewStruct returns a struct shape holding v. dec may reject a native body,
// e.g. one carrying an invalid enum member.
func NewStruct[T, N any](id native.ParamID, v T, enc func(T) N, dec func(N) (T, error)) *Struct[T, N] {
	return &Struct[T, N]{ID: id, Value: v, enc: enc, dec: dec}
}

func (s *Struct[T, N]) Name() string { return s.ID.String() }

// Size returns the record size including the header.
func (s *Struct[T, N]) Size() int {
	var n N
	return RecordSize(&n)
}

func (s *Struct[T, N]) Set(b native.Backend, port native.Port) error {
	n := s.enc(s.Value)
	return setRecord(b, port, s.ID, &n)
}

func (s *Struct[T, N]) Get(b native.Backend, port native.Port) error {
	var n N
	if err := getRecord(b, port, s.ID, &n); err != nil {
		return err
	}
	v, err := s.dec(n)
	if err != nil {
		return err
	}
	s.Value = v
	return nil
}
