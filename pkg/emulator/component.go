package emulator

import (
	"fmt"

	"github.com/thesyncim/gommal/pkg/native"
)

type kind int

const (
	kindCamera kind = iota
	kindImageEncoder
	kindVideoEncoder
	kindNullSink
	kindCameraInfo
)

var rawEncodings = []native.FourCC{
	native.EncodingOpaque, native.EncodingI420, native.EncodingNV12, native.EncodingYUYV,
	native.EncodingRGB24, native.EncodingBGR24, native.EncodingRGBA,
}

type portSpec struct {
	encodings []native.FourCC
	encoding  native.FourCC
}

type layout struct {
	kind    kind
	inputs  []portSpec
	outputs []portSpec
}

var layouts = map[string]layout{
	native.ComponentCamera: {
		kind: kindCamera,
		outputs: []portSpec{
			{rawEncodings, native.EncodingI420}, // preview
			{rawEncodings, native.EncodingI420}, // video
			{rawEncodings, native.EncodingI420}, // capture
		},
	},
	native.ComponentImageEncoder: {
		kind:    kindImageEncoder,
		inputs:  []portSpec{{rawEncodings, native.EncodingI420}},
		outputs: []portSpec{{[]native.FourCC{native.EncodingJPEG, native.EncodingPNG}, native.EncodingJPEG}},
	},
	native.ComponentVideoEncoder: {
		kind:    kindVideoEncoder,
		inputs:  []portSpec{{rawEncodings, native.EncodingI420}},
		outputs: []portSpec{{[]native.FourCC{native.EncodingH264, native.EncodingMJPEG}, native.EncodingH264}},
	},
	native.ComponentNullSink: {
		kind:   kindNullSink,
		inputs: []portSpec{{rawEncodings, native.EncodingI420}},
	},
	native.ComponentCameraInfo: {
		kind: kindCameraInfo,
	},
}

type component struct {
	h       native.Component
	name    string
	kind    kind
	refs    int
	enabled bool
	control *port
	inputs  []*port
	outputs []*port
}

func (c *component) allPorts() []*port {
	ps := make([]*port, 0, 1+len(c.inputs)+len(c.outputs))
	ps = append(ps, c.control)
	ps = append(ps, c.inputs...)
	return append(ps, c.outputs...)
}

func (e *Emulator) ComponentCreate(name string) (native.Component, native.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.fault(OpComponentCreate); ok {
		return 0, st
	}
	l, ok := layouts[name]
	if !ok {
		return 0, native.StatusNotFound
	}
	c := &component{h: native.Component(e.handle()), name: name, kind: l.kind, refs: 1}
	c.control = e.newPort(c, native.PortTypeControl, 0, portSpec{})
	for i, s := range l.inputs {
		c.inputs = append(c.inputs, e.newPort(c, native.PortTypeInput, i, s))
	}
	for i, s := range l.outputs {
		c.outputs = append(c.outputs, e.newPort(c, native.PortTypeOutput, i, s))
	}
	e.setDefaults(c)
	e.components[c.h] = c
	e.log.WithField("component", name).Debug("component created")
	return c.h, native.StatusSuccess
}

func (e *Emulator) newPort(c *component, typ native.PortType, index int, s portSpec) *port {
	p := &port{
		h:         native.Port(e.handle()),
		comp:      c,
		typ:       typ,
		index:     index,
		encodings: s.encodings,
		params:    make(map[native.ParamID][]byte),
	}
	switch typ {
	case native.PortTypeControl:
		p.name = fmt.Sprintf("%s:ctr:%d", c.name, index)
		p.format.Type = native.ESTypeControl
	case native.PortTypeInput:
		p.name = fmt.Sprintf("%s:in:%d", c.name, index)
	default:
		p.name = fmt.Sprintf("%s:out:%d", c.name, index)
	}
	if typ != native.PortTypeControl {
		p.format = native.Format{
			Type:     native.ESTypeVideo,
			Encoding: s.encoding,
			Video: native.VideoFormat{
				Width: 640, Height: 480,
				Crop:      native.Rect{Width: 640, Height: 480},
				FrameRate: native.Rational{Num: 0, Den: 1},
				Par:       native.Rational{Num: 1, Den: 1},
			},
		}
		p.recommend()
		p.buf.Num, p.buf.Size = p.buf.NumRecommended, p.buf.SizeRecommended
	}
	e.ports[p.h] = p
	return p
}

func (e *Emulator) component(h native.Component) *component {
	c, ok := e.components[h]
	if !ok {
		panic(fmt.Sprintf("emulator: unknown component handle %#x", uintptr(h)))
	}
	return c
}

func (e *Emulator) ComponentAcquire(h native.Component) {
	e.mu.Lock()
	e.component(h).refs++
	e.mu.Unlock()
}

// ComponentRelease drops one reference; the last one destroys.
func (e *Emulator) ComponentRelease(h native.Component) native.Status {
	return e.ComponentDestroy(h)
}

func (e *Emulator) ComponentDestroy(h native.Component) native.Status {
	e.mu.Lock()
	c, ok := e.components[h]
	if !ok {
		e.mu.Unlock()
		return native.StatusInvalid
	}
	c.refs--
	if c.refs > 0 {
		e.mu.Unlock()
		return native.StatusSuccess
	}
	var teardowns []teardown
	for _, p := range c.allPorts() {
		p.stopCapture()
		if p.conn != nil {
			p.conn.unlinkLocked()
		}
		if p.enabled {
			teardowns = append(teardowns, e.disablePortLocked(p))
		}
	}
	for _, p := range c.allPorts() {
		delete(e.ports, p.h)
	}
	delete(e.components, h)
	e.mu.Unlock()
	for _, t := range teardowns {
		t.run()
	}
	e.log.WithField("component", c.name).Debug("component destroyed")
	return native.StatusSuccess
}

func (e *Emulator) ComponentEnable(h native.Component) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.fault(OpComponentEnable); ok {
		return st
	}
	e.component(h).enabled = true
	return native.StatusSuccess
}

func (e *Emulator) ComponentDisable(h native.Component) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := e.component(h)
	c.enabled = false
	for _, p := range c.outputs {
		p.stopCapture()
	}
	return native.StatusSuccess
}

func (e *Emulator) ComponentIsEnabled(h native.Component) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.component(h).enabled
}

func (e *Emulator) ComponentName(h native.Component) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.component(h).name
}

func (e *Emulator) ControlPort(h native.Component) native.Port {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.component(h).control.h
}

func (e *Emulator) InputCount(h native.Component) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.component(h).inputs)
}

func (e *Emulator) OutputCount(h native.Component) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.component(h).outputs)
}

// InputPort returns a null port for an index out of range.
func (e *Emulator) InputPort(h native.Component, n int) native.Port {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := e.component(h)
	if n < 0 || n >= len(c.inputs) {
		return 0
	}
	return c.inputs[n].h
}

// OutputPort returns a null port for an index out of range.
func (e *Emulator) OutputPort(h native.Component, n int) native.Port {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := e.component(h)
	if n < 0 || n >= len(c.outputs) {
		return 0
	}
	return c.outputs[n].h
}
