// Package emulator implements native.Backend in Go.
//
// It models the parts of the pipeline the core relies on: reference
// counted components with fixed port layouts, format commit and buffer
// recommendations, pools of mmap'd buffers, blocking queues, tunnelled
// connections and parameter records. Completion callbacks run on a
// goroutine per enabled port, never on the caller's goroutine and never
// while the emulator's state lock is held.
//
// Setting the capture parameter on a camera output produces frames: a
// test-pattern JPEG through the image encoder, synthetic Annex-B H.264
// through the video encoder, or raw pixels on an unconnected port.
package emulator

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/thesyncim/gommal/internal/logging"
	"github.com/thesyncim/gommal/pkg/native"
)

// Op names an operation that can be made to fail.
type Op string

const (
	OpComponentCreate  Op = "component_create"
	OpComponentEnable  Op = "component_enable"
	OpPortEnable       Op = "port_enable"
	OpPortDisable      Op = "port_disable"
	OpPortSendBuffer   Op = "port_send_buffer"
	OpFormatCommit     Op = "format_commit"
	OpParameterSet     Op = "parameter_set"
	OpParameterGet     Op = "parameter_get"
	OpConnectionCreate Op = "connection_create"
	OpConnectionEnable Op = "connection_enable"
	OpBufferLock       Op = "buffer_lock"
	// OpPoolCreate and OpQueueCreate make creation return a null handle;
	// the injected status is ignored.
	OpPoolCreate  Op = "pool_create"
	OpQueueCreate Op = "queue_create"
)

// Config tunes an Emulator.
type Config struct {
	// RGBOrderFixed reports the firmware RGB order fix. Default true.
	RGBOrderFixed *bool
	// FrameRate is used when a video port's frame rate is 0. Default 30.
	FrameRate int
	// MaxBacklog bounds the fragments waiting for buffers on one output
	// port; frames beyond it are dropped. Default 256.
	MaxBacklog int
	// CameraName is reported by the camera info component. Default ov5647.
	CameraName string
	// SensorWidth and SensorHeight are reported by camera info. Default
	// 2592x1944.
	SensorWidth, SensorHeight uint32
	// NoSensor makes camera info report no cameras.
	NoSensor bool
}

func (c *Config) setDefaults() {
	if c.RGBOrderFixed == nil {
		t := true
		c.RGBOrderFixed = &t
	}
	if c.FrameRate <= 0 {
		c.FrameRate = 30
	}
	if c.MaxBacklog <= 0 {
		c.MaxBacklog = 256
	}
	if c.CameraName == "" {
		c.CameraName = "ov5647"
	}
	if c.SensorWidth == 0 || c.SensorHeight == 0 {
		c.SensorWidth, c.SensorHeight = 2592, 1944
	}
}

// Stats counts live emulator objects and produced frames.
type Stats struct {
	Components  int
	Ports       int
	Pools       int
	Queues      int
	Buffers     int
	Connections int
	Workers     int
	Frames      uint64
	Dropped     uint64
}

// Emulator is an in-process native.Backend.
type Emulator struct {
	cfg Config

	mu          sync.Mutex
	next        uintptr
	initialized bool
	components  map[native.Component]*component
	ports       map[native.Port]*port
	pools       map[native.Pool]*pool
	queues      map[native.Queue]*fifo
	buffers     map[native.Buffer]*buffer
	conns       map[native.Connection]*connection
	faults      map[Op]native.Status
	frames      uint64
	dropped     uint64

	// wg tracks port workers and capture loops.
	wg sync.WaitGroup

	log *logrus.Entry
}

var _ native.Backend = (*Emulator)(nil)

// New returns an empty emulator.
func New(cfg Config) *Emulator {
	cfg.setDefaults()
	return &Emulator{
		cfg:        cfg,
		next:       0x1000,
		components: make(map[native.Component]*component),
		ports:      make(map[native.Port]*port),
		pools:      make(map[native.Pool]*pool),
		queues:     make(map[native.Queue]*fifo),
		buffers:    make(map[native.Buffer]*buffer),
		conns:      make(map[native.Connection]*connection),
		faults:     make(map[Op]native.Status),
		log:        logging.Logger().WithField("backend", "emulator"),
	}
}

// handle allocates a fresh non-zero handle value. Callers hold e.mu.
func (e *Emulator) handle() uintptr {
	e.next += 0x10
	return e.next
}

// Fail makes the next call of op fail with st.
func (e *Emulator) Fail(op Op, st native.Status) {
	e.mu.Lock()
	e.faults[op] = st
	e.mu.Unlock()
}

// ClearFaults drops every pending fault.
func (e *Emulator) ClearFaults() {
	e.mu.Lock()
	clear(e.faults)
	e.mu.Unlock()
}

// fault consumes a pending fault for op. Callers hold e.mu.
func (e *Emulator) fault(op Op) (native.Status, bool) {
	st, ok := e.faults[op]
	if ok {
		delete(e.faults, op)
	}
	return st, ok
}

// Stats returns a snapshot of the live object counts.
func (e *Emulator) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Stats{
		Components:  len(e.components),
		Ports:       len(e.ports),
		Pools:       len(e.pools),
		Queues:      len(e.queues),
		Buffers:     len(e.buffers),
		Connections: len(e.conns),
		Frames:      e.frames,
		Dropped:     e.dropped,
	}
	for _, p := range e.ports {
		if p.worker != nil {
			s.Workers++
		}
	}
	return s
}

// Close stops every port worker and capture loop. Objects the caller did
// not release stay allocated.
func (e *Emulator) Close() {
	e.mu.Lock()
	var workers []*worker
	for _, p := range e.ports {
		p.stopCapture()
		if p.worker != nil {
			workers = append(workers, p.worker)
			p.worker = nil
		}
	}
	e.mu.Unlock()
	for _, w := range workers {
		w.stop()
	}
	e.wg.Wait()
}

// Init marks the emulator initialized. It has no other effect.
func (e *Emulator) Init() error {
	e.mu.Lock()
	e.initialized = true
	e.mu.Unlock()
	return nil
}

// RGBOrderFixed reports the configured firmware fix.
func (e *Emulator) RGBOrderFixed(native.Port) bool { return *e.cfg.RGBOrderFixed }

func (e *Emulator) frameInterval(rate native.Rational) time.Duration {
	if rate.Num <= 0 || rate.Den <= 0 {
		return time.Second / time.Duration(e.cfg.FrameRate)
	}
	return time.Duration(int64(time.Second) * int64(rate.Den) / int64(rate.Num))
}

func (e *Emulator) String() string {
	s := e.Stats()
	return fmt.Sprintf("emulator{components=%d pools=%d queues=%d buffers=%d connections=%d}",
		s.Components, s.Pools, s.Queues, s.Buffers, s.Connections)
}
