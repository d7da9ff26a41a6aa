package mmal

import (
	"github.com/thesyncim/gommal/pkg/native"
)

// PortKind selects one port of a stage kind. Implementations are empty
// struct types; the port is resolved from the component on every use and
// is never cached.
type PortKind[E Entity] interface {
	Resolve(c *Component[E]) native.Port
	Name() string
}

// Port carries the operations of port kind P. It is a zero-size value;
// stage packages export one per port kind, e.g. camera.Capture.
type Port[E Entity, P PortKind[E]] struct{}

// Name returns the port kind's name.
func (Port[E, P]) Name() string {
	var p P
	return p.Name()
}

// Native resolves the port on c.
func (pt Port[E, P]) Native(c *Component[E]) (native.Port, error) {
	var p P
	port := p.Resolve(c)
	if port == 0 {
		return 0, newError(CauseGetPort, "%s", p.Name())
	}
	return port, nil
}

// PortFormat describes how to configure a port. Stage packages provide
// presets.
type PortFormat interface {
	// ApplyFormat edits the port's current format in place before commit.
	ApplyFormat(b native.Backend, port native.Port, f *native.Format)
	BufferPolicy() BufferPolicy
}

// BufferPolicy picks the buffer count and size after a format commit.
// Zero selects the native recommendation. Whatever is picked is floored at
// the native minimum, below which the pipeline refuses to enable the port.
type BufferPolicy struct {
	Num  uint32
	Size uint32
}

// Recommended is the policy that takes both native recommendations.
var Recommended = BufferPolicy{}

func (p BufferPolicy) apply(cfg native.BufferConfig) (num, size uint32) {
	num = p.Num
	if num == 0 {
		num = cfg.NumRecommended
	}
	if num < cfg.NumMin {
		num = cfg.NumMin
	}
	size = p.Size
	if size == 0 {
		size = cfg.SizeRecommended
	}
	if size < cfg.SizeMin {
		size = cfg.SizeMin
	}
	return num, size
}

// Configure applies f to the port, commits the format and applies the
// buffer policy.
func (pt Port[E, P]) Configure(c *Component[E], f PortFormat) error {
	port, err := pt.Native(c)
	if err != nil {
		return err
	}
	b := c.Backend()
	format := b.PortFormat(port)
	f.ApplyFormat(b, port, &format)
	b.PortSetFormat(port, format)
	if err := statusError(b.PortFormatCommit(port), "unable to commit format on %s", pt.Name()); err != nil {
		return err
	}
	num, size := f.BufferPolicy().apply(b.PortBufferConfig(port))
	b.PortSetBufferConfig(port, num, size)
	return nil
}

// BuffersConfig is the buffer state of a port after commit.
type BuffersConfig struct {
	Num, NumRecommended, NumMin    uint32
	Size, SizeRecommended, SizeMin uint32
}

// BuffersConfig reads the port's buffer configuration.
func (pt Port[E, P]) BuffersConfig(c *Component[E]) (BuffersConfig, error) {
	port, err := pt.Native(c)
	if err != nil {
		return BuffersConfig{}, err
	}
	cfg := c.Backend().PortBufferConfig(port)
	return BuffersConfig{
		Num: cfg.Num, NumRecommended: cfg.NumRecommended, NumMin: cfg.NumMin,
		Size: cfg.Size, SizeRecommended: cfg.SizeRecommended, SizeMin: cfg.SizeMin,
	}, nil
}

// Format reads the port's current format.
func (pt Port[E, P]) Format(c *Component[E]) (native.Format, error) {
	port, err := pt.Native(c)
	if err != nil {
		return native.Format{}, err
	}
	return c.Backend().PortFormat(port), nil
}

// Write sets one parameter on the port.
func (pt Port[E, P]) Write(c *Component[E], p ParamIO[E, P]) error {
	return p.Write(c)
}

// Read fills one parameter from the port.
func (pt Port[E, P]) Read(c *Component[E], p ParamIO[E, P]) error {
	return p.Read(c)
}

// WriteMulti sets params in order and stops at the first failure. Params
// already written stay written.
func (pt Port[E, P]) WriteMulti(c *Component[E], params ...ParamIO[E, P]) error {
	for _, p := range params {
		if err := p.Write(c); err != nil {
			return err
		}
	}
	return nil
}

// ReadMulti fills params in order and stops at the first failure.
func (pt Port[E, P]) ReadMulti(c *Component[E], params ...ParamIO[E, P]) error {
	for _, p := range params {
		if err := p.Read(c); err != nil {
			return err
		}
	}
	return nil
}

// AlignUp rounds v up to a multiple of align, which must be a power of two.
func AlignUp(v, align uint32) uint32 {
	return (v + align - 1) &^ (align - 1)
}

// FixEncoding returns the encoding to request on port: firmware older than
// June 2016 had RGB24 and BGR24 swapped on the camera.
func FixEncoding(b native.Backend, port native.Port, enc native.FourCC) native.FourCC {
	if b.RGBOrderFixed(port) {
		return enc
	}
	switch enc {
	case native.EncodingRGB24:
		return native.EncodingBGR24
	case native.EncodingBGR24:
		return native.EncodingRGB24
	}
	return enc
}
