package mmal

import (
	"math"

	"github.com/thesyncim/gommal/pkg/native"
)

// Uint32 is a MMAL_PARAMETER_UINT32_T record.
type Uint32 struct {
	ID    native.ParamID
	Value uint32
}

func (s *Uint32) Name() string { return s.ID.String() }

func (s *Uint32) Set(b native.Backend, port native.Port) error {
	return setRecord(b, port, s.ID, s.Value)
}

func (s *Uint32) Get(b native.Backend, port native.Port) error {
	return getRecord(b, port, s.ID, &s.Value)
}

// Int32 is a MMAL_PARAMETER_INT32_T record.
type Int32 struct {
	ID    native.ParamID
	Value int32
}

func (s *Int32) Name() string { return s.ID.String() }

func (s *Int32) Set(b native.Backend, port native.Port) error {
	return setRecord(b, port, s.ID, s.Value)
}

func (s *Int32) Get(b native.Backend, port native.Port) error {
	return getRecord(b, port, s.ID, &s.Value)
}

// Boolean is a MMAL_PARAMETER_BOOLEAN_T record.
type Boolean struct {
	ID    native.ParamID
	Value bool
}

func (s *Boolean) Name() string { return s.ID.String() }

func (s *Boolean) Set(b native.Backend, port native.Port) error {
	return setRecord(b, port, s.ID, NativeBool(s.Value))
}

func (s *Boolean) Get(b native.Backend, port native.Port) error {
	var v uint32
	if err := getRecord(b, port, s.ID, &v); err != nil {
		return err
	}
	s.Value = GoBool(v)
	return nil
}

// Rational is a MMAL_PARAMETER_RATIONAL_T record.
type Rational struct {
	ID    native.ParamID
	Value native.Rational
}

func (s *Rational) Name() string { return s.ID.String() }

func (s *Rational) Set(b native.Backend, port native.Port) error {
	return setRecord(b, port, s.ID, &s.Value)
}

func (s *Rational) Get(b native.Backend, port native.Port) error {
	return getRecord(b, port, s.ID, &s.Value)
}

// Scale100 is an integer carried as the rational Value/100, as the camera
// expects for saturation, sharpness, contrast and brightness.
type Scale100 struct {
	ID    native.ParamID
	Value int32
}

func (s *Scale100) Name() string { return s.ID.String() }

func (s *Scale100) Set(b native.Backend, port native.Port) error {
	return setRecord(b, port, s.ID, &native.Rational{Num: s.Value, Den: 100})
}

func (s *Scale100) Get(b native.Backend, port native.Port) error {
	var r native.Rational
	if err := getRecord(b, port, s.ID, &r); err != nil {
		return err
	}
	s.Value = FromScale100(r)
	return nil
}

// FromScale100 reads a rational on the 100 scale. A denominator other than
// 100 is rescaled with single precision and truncated. Results outside the
// int32 range saturate and 0/0 reads as 0.
func FromScale100(r native.Rational) int32 {
	if r.Den == 100 {
		return r.Num
	}
	v := float32(r.Num) / float32(r.Den) * 100
	switch {
	case math.IsNaN(float64(v)):
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}
	return int32(v)
}
