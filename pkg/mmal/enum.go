package mmal

import (
	"fmt"
	"slices"

	"github.com/thesyncim/gommal/pkg/native"
)

// EnumTable maps the values of a native enumeration to their names. Names
// are matched case-sensitively.
type EnumTable[T ~uint32] struct {
	name   string
	names  map[T]string
	values map[string]T
	order  []T
}

// NewEnumTable builds a table from explicit value/name pairs.
func NewEnumTable[T ~uint32](name string, names map[T]string) *EnumTable[T] {
	t := &EnumTable[T]{
		name:   name,
		names:  make(map[T]string, len(names)),
		values: make(map[string]T, len(names)),
	}
	for v, n := range names {
		t.names[v] = n
		t.values[n] = v
		t.order = append(t.order, v)
	}
	slices.Sort(t.order)
	return t
}

// SequentialEnumTable builds a table whose values run 0, 1, 2, ... in the
// order of names.
func SequentialEnumTable[T ~uint32](name string, names ...string) *EnumTable[T] {
	m := make(map[T]string, len(names))
	for i, n := range names {
		m[T(i)] = n
	}
	return NewEnumTable(name, m)
}

// Name returns the type name used in error messages.
func (t *EnumTable[T]) Name() string { return t.name }

// Values returns every valid value in ascending order.
func (t *EnumTable[T]) Values() []T { return slices.Clone(t.order) }

// Valid reports whether v is a member.
func (t *EnumTable[T]) Valid(v T) bool {
	_, ok := t.names[v]
	return ok
}

// String returns the name of v, or Type(N) for a non-member.
func (t *EnumTable[T]) String(v T) string {
	if n, ok := t.names[v]; ok {
		return n
	}
	return fmt.Sprintf("%s(%d)", t.name, uint32(v))
}

// FromNative converts a native value, rejecting non-members.
func (t *EnumTable[T]) FromNative(n uint32) (T, error) {
	v := T(n)
	if !t.Valid(v) {
		return 0, newError(CauseInvalidEnumValue, "invalid binary value %d for `%s`", n, t.name)
	}
	return v, nil
}

// Parse converts a name.
func (t *EnumTable[T]) Parse(s string) (T, error) {
	v, ok := t.values[s]
	if !ok {
		return 0, newError(CauseInvalidEnumValue, "invalid string value `%s` for `%s`", s, t.name)
	}
	return v, nil
}

// MarshalText backs encoding.TextMarshaler on catalog enum types.
func (t *EnumTable[T]) MarshalText(v T) ([]byte, error) {
	n, ok := t.names[v]
	if !ok {
		return nil, newError(CauseInvalidEnumValue, "invalid binary value %d for `%s`", uint32(v), t.name)
	}
	return []byte(n), nil
}

// UnmarshalText backs encoding.TextUnmarshaler on catalog enum types.
func (t *EnumTable[T]) UnmarshalText(v *T, text []byte) error {
	p, err := t.Parse(string(text))
	if err != nil {
		return err
	}
	*v = p
	return nil
}

// Enum is a parameter carrying one member of table as a uint32.
type Enum[T ~uint32] struct {
	ID    native.ParamID
	Table *EnumTable[T]
	Value T
}

func (s *Enum[T]) Name() string { return s.ID.String() }

func (s *Enum[T]) Set(b native.Backend, port native.Port) error {
	if !s.Table.Valid(s.Value) {
		return newError(CauseInvalidEnumValue, "invalid binary value %d for `%s`", uint32(s.Value), s.Table.Name())
	}
	return setRecord(b, port, s.ID, uint32(s.Value))
}

func (s *Enum[T]) Get(b native.Backend, port native.Port) error {
	var n uint32
	if err := getRecord(b, port, s.ID, &n); err != nil {
		return err
	}
	v, err := s.Table.FromNative(n)
	if err != nil {
		return err
	}
	s.Value = v
	return nil
}
