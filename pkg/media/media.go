// Package media provides a browser-like API over the camera pipeline.
// GetUserMedia builds camera -> video encoder, and each video track
// packetizes the encoded H.264 into a pion TrackLocal.
package media

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/thesyncim/gommal/internal/logging"
	"github.com/thesyncim/gommal/pkg/camera"
	"github.com/thesyncim/gommal/pkg/camerainfo"
	"github.com/thesyncim/gommal/pkg/frame"
	"github.com/thesyncim/gommal/pkg/mmal"
	"github.com/thesyncim/gommal/pkg/native"
	"github.com/thesyncim/gommal/pkg/packetizer"
	"github.com/thesyncim/gommal/pkg/videoencoder"
)

// Errors
var (
	ErrInvalidConstraints = errors.New("invalid constraints")
	ErrTrackNotFound      = errors.New("track not found")
	ErrTrackEnded         = errors.New("track ended")
)

// Defaults applied by GetUserMedia.
const (
	DefaultWidth       = 1280
	DefaultHeight      = 720
	DefaultFrameRate   = 30
	DefaultIntraPeriod = 60
	maxFrameRate       = 90
)

// Track states, as reported by ReadyState.
const (
	TrackLive  = "live"
	TrackEnded = "ended"
)

// VideoConstraints mirrors browser's MediaTrackConstraints for video.
type VideoConstraints struct {
	Width     IntConstraint
	Height    IntConstraint
	FrameRate FloatConstraint
	// CameraNum selects the sensor on multi-camera boards.
	CameraNum int
	// Bitrate is the H.264 target; 0 uses videoencoder.DefaultBitrate.
	Bitrate uint32
	// IntraPeriod is the IDR interval in frames; 0 uses DefaultIntraPeriod.
	IntraPeriod uint32
}

// Constraints mirrors browser's MediaStreamConstraints. Only video is
// captured; a nil Video is rejected.
type Constraints struct {
	Video *VideoConstraints
}

// VideoTrackSettings represents current video track settings.
type VideoTrackSettings struct {
	Width       int
	Height      int
	FrameRate   float64
	Bitrate     uint32
	IntraPeriod uint32
	CameraNum   int
	DeviceID    string
}

// MediaStreamTrack mirrors browser's MediaStreamTrack interface.
type MediaStreamTrack interface {
	// ID returns the track's unique identifier.
	ID() string

	// Kind returns "video".
	Kind() string

	// Label returns the sensor name.
	Label() string

	// Enabled returns/sets whether the track is enabled. A disabled track
	// keeps capturing but sends nothing.
	Enabled() bool
	SetEnabled(enabled bool)

	// ReadyState returns "live" or "ended".
	ReadyState() string

	// Stop stops the track and tears the pipeline down.
	Stop()

	// GetConstraints returns the current constraints.
	GetConstraints() VideoConstraints

	// ApplyConstraints applies new constraints.
	ApplyConstraints(c VideoConstraints) error

	// GetSettings returns current settings.
	GetSettings() VideoTrackSettings
}

// MediaStream mirrors browser's MediaStream interface.
type MediaStream struct {
	id     string
	tracks []MediaStreamTrack
	mu     sync.RWMutex
}

// NewMediaStream creates a new empty MediaStream.
func NewMediaStream() *MediaStream {
	return &MediaStream{id: uuid.NewString()}
}

// ID returns the stream's unique identifier.
func (s *MediaStream) ID() string {
	return s.id
}

// GetVideoTracks returns all video tracks.
func (s *MediaStream) GetVideoTracks() []MediaStreamTrack {
	return s.GetTracks()
}

// GetTracks returns all tracks.
func (s *MediaStream) GetTracks() []MediaStreamTrack {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tracks := make([]MediaStreamTrack, len(s.tracks))
	copy(tracks, s.tracks)
	return tracks
}

// GetTrackByID returns a track by ID.
func (s *MediaStream) GetTrackByID(id string) (MediaStreamTrack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tracks {
		if t.ID() == id {
			return t, nil
		}
	}
	return nil, ErrTrackNotFound
}

// AddTrack adds a track to the stream.
func (s *MediaStream) AddTrack(t MediaStreamTrack) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks = append(s.tracks, t)
}

// RemoveTrack removes a track from the stream without stopping it.
func (s *MediaStream) RemoveTrack(t MediaStreamTrack) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, track := range s.tracks {
		if track.ID() == t.ID() {
			s.tracks = append(s.tracks[:i], s.tracks[i+1:]...)
			return
		}
	}
}

// Active returns true if any track is live.
func (s *MediaStream) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tracks {
		if t.ReadyState() == TrackLive {
			return true
		}
	}
	return false
}

// Stop stops every track.
func (s *MediaStream) Stop() {
	for _, t := range s.GetTracks() {
		t.Stop()
	}
}

// GetUserMedia mirrors browser's navigator.mediaDevices.getUserMedia().
// It resolves the constraints against the attached sensor and starts a
// capturing video track on b.
func GetUserMedia(b native.Backend, constraints Constraints) (*MediaStream, error) {
	if constraints.Video == nil {
		return nil, fmt.Errorf("%w: video is required", ErrInvalidConstraints)
	}
	vt, err := CreateVideoTrack(b, *constraints.Video)
	if err != nil {
		return nil, err
	}
	stream := NewMediaStream()
	stream.AddTrack(vt)
	return stream, nil
}

// Resolve turns constraints into concrete settings for sensor.
func Resolve(c VideoConstraints, sensor camerainfo.Camera) (VideoTrackSettings, error) {
	w, err := c.Width.resolve("width", DefaultWidth, int(sensor.MaxWidth))
	if err != nil {
		return VideoTrackSettings{}, err
	}
	h, err := c.Height.resolve("height", DefaultHeight, int(sensor.MaxHeight))
	if err != nil {
		return VideoTrackSettings{}, err
	}
	fps, ok := c.FrameRate.Value()
	if !ok {
		fps = DefaultFrameRate
	}
	if c.FrameRate.Max != nil && fps > *c.FrameRate.Max {
		fps = *c.FrameRate.Max
	}
	if fps <= 0 || fps > maxFrameRate {
		return VideoTrackSettings{}, &OverconstrainedError{
			Constraint: "frameRate",
			Message:    fmt.Sprintf("%v outside (0, %d]", fps, maxFrameRate),
		}
	}
	if err := c.FrameRate.Validate(fps); err != nil {
		err.(*OverconstrainedError).Constraint = "frameRate"
		return VideoTrackSettings{}, err
	}
	if c.CameraNum < 0 || c.CameraNum >= camerainfo.MaxCameras {
		return VideoTrackSettings{}, fmt.Errorf("%w: camera %d", ErrInvalidConstraints, c.CameraNum)
	}

	s := VideoTrackSettings{
		Width:       w,
		Height:      h,
		FrameRate:   fps,
		Bitrate:     c.Bitrate,
		IntraPeriod: c.IntraPeriod,
		CameraNum:   c.CameraNum,
		DeviceID:    sensor.Name,
	}
	if s.Bitrate == 0 {
		s.Bitrate = videoencoder.DefaultBitrate
	}
	if s.IntraPeriod == 0 {
		s.IntraPeriod = DefaultIntraPeriod
	}
	return s, nil
}

// VideoTrack is a live camera track. It owns a camera, a video encoder,
// the tunnel between them and a sink on the encoder output; a pump
// goroutine packetizes every encoded frame into the pion track.
type VideoTrack struct {
	id          string
	label       string
	constraints VideoConstraints
	settings    VideoTrackSettings
	mu          sync.Mutex

	cam  *camera.Component
	venc *videoencoder.Component
	conn *mmal.Connection
	sink *mmal.Sink[videoencoder.Entity, videoencoder.OutputPort]
	pkt  packetizer.Packetizer
	rtp  *webrtc.TrackLocalStaticRTP

	enabled  atomic.Bool
	ended    atomic.Bool
	frames   atomic.Uint64
	packets  atomic.Uint64
	cancel   context.CancelFunc
	group    *errgroup.Group
	stopOnce sync.Once
	err      error
	log      *logrus.Entry
}

var _ MediaStreamTrack = (*VideoTrack)(nil)

// CreateVideoTrack resolves c against the first attached sensor, builds
// the capture pipeline and starts it.
func CreateVideoTrack(b native.Backend, c VideoConstraints) (*VideoTrack, error) {
	sensor, err := camerainfo.Select(b)
	if err != nil {
		return nil, err
	}
	settings, err := Resolve(c, sensor)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	local, err := webrtc.NewTrackLocalStaticRTP(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeH264, ClockRate: packetizer.DefaultClockRate},
		"video-"+id, "gommal-"+id,
	)
	if err != nil {
		return nil, err
	}
	pkt, err := packetizer.New(packetizer.Config{Encoding: native.EncodingH264})
	if err != nil {
		return nil, err
	}

	t := &VideoTrack{
		id:          id,
		label:       sensor.Name,
		constraints: c,
		settings:    settings,
		pkt:         pkt,
		rtp:         local,
		log:         logging.Logger().WithFields(logrus.Fields{"track": id, "camera": sensor.Name}),
	}
	if err := t.build(b); err != nil {
		t.teardown()
		return nil, err
	}
	t.enabled.Store(true)

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.group, ctx = errgroup.WithContext(ctx)
	t.group.Go(func() error { return t.pump(ctx) })

	if err := camera.Video.Write(t.cam, camera.CaptureVideo(true)); err != nil {
		t.Stop()
		return nil, err
	}
	t.log.WithFields(logrus.Fields{
		"width": settings.Width, "height": settings.Height, "fps": settings.FrameRate, "bitrate": settings.Bitrate,
	}).Debug("video track started")
	return t, nil
}

func (t *VideoTrack) build(b native.Backend) error {
	s := t.settings
	var err error
	if t.cam, err = camera.Create(b); err != nil {
		return err
	}
	cfg := camera.DefaultConfig(uint32(s.Width), uint32(s.Height))
	cfg.MaxPreviewVideoW, cfg.MaxPreviewVideoH = uint32(s.Width), uint32(s.Height)
	if err := camera.Control.WriteMulti(t.cam,
		camera.CameraNum(int32(s.CameraNum)),
		camera.CameraConfig(cfg),
	); err != nil {
		return err
	}
	if err := camera.Video.Configure(t.cam, camera.PortConfig{
		Encoding:  native.EncodingOpaque,
		Width:     uint32(s.Width),
		Height:    uint32(s.Height),
		FrameRate: native.Rational{Num: int32(math.Round(s.FrameRate)), Den: 1},
	}); err != nil {
		return err
	}

	if t.venc, err = videoencoder.Create(b); err != nil {
		return err
	}
	if t.conn, err = mmal.Connect(camera.Video, t.cam, videoencoder.Input, t.venc); err != nil {
		return err
	}
	if err := videoencoder.Output.Configure(t.venc, videoencoder.OutFormat{
		Encoding: native.EncodingH264,
		Bitrate:  s.Bitrate,
	}); err != nil {
		return err
	}
	if err := videoencoder.Output.WriteMulti(t.venc,
		videoencoder.IntraPeriod(s.IntraPeriod),
		videoencoder.InlineHeader(true),
	); err != nil {
		return err
	}

	if t.sink, err = mmal.NewSink(videoencoder.Output, t.venc); err != nil {
		return err
	}
	if err := t.sink.Enable(); err != nil {
		return err
	}
	if err := t.venc.Enable(); err != nil {
		return err
	}
	if err := t.cam.Enable(); err != nil {
		return err
	}
	if err := t.conn.Enable(); err != nil {
		return err
	}
	return t.sink.FeedAll()
}

// pump runs until ctx ends or the pipeline fails.
func (t *VideoTrack) pump(ctx context.Context) error {
	var a frame.Assembler
	for {
		f, err := frame.Next(ctx, t.sink, &a)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read encoded frame: %w", err)
		}
		t.frames.Add(1)
		if f.Corrupted() {
			t.log.WithField("pts", f.Timestamp).Debug("dropping corrupted frame")
			continue
		}
		// Config frames are always fed through so the payloader keeps SPS/PPS.
		if !t.enabled.Load() && !f.IsConfig() {
			continue
		}
		pkts, err := t.pkt.Packetize(f)
		if err != nil {
			return fmt.Errorf("packetize: %w", err)
		}
		for _, p := range pkts {
			if err := t.rtp.WriteRTP(p); err != nil {
				return fmt.Errorf("write rtp: %w", err)
			}
		}
		t.packets.Add(uint64(len(pkts)))
	}
}

func (t *VideoTrack) ID() string        { return t.id }
func (t *VideoTrack) Kind() string      { return "video" }
func (t *VideoTrack) Label() string     { return t.label }
func (t *VideoTrack) Enabled() bool     { return t.enabled.Load() }
func (t *VideoTrack) SetEnabled(e bool) { t.enabled.Store(e) }

func (t *VideoTrack) ReadyState() string {
	if t.ended.Load() {
		return TrackEnded
	}
	return TrackLive
}

// Stop ends capture, waits for the pump and releases the pipeline.
// Stopping twice does nothing.
func (t *VideoTrack) Stop() {
	t.stopOnce.Do(func() {
		t.ended.Store(true)
		if err := camera.Video.Write(t.cam, camera.CaptureVideo(false)); err != nil {
			t.log.WithError(err).Debug("stop capture")
		}
		t.cancel()
		t.err = t.group.Wait()
		t.teardown()
		t.log.WithField("frames", t.frames.Load()).Debug("video track stopped")
	})
}

// Err returns the pump failure, if any, once the track is stopped.
func (t *VideoTrack) Err() error {
	if !t.ended.Load() {
		return nil
	}
	return t.err
}

func (t *VideoTrack) teardown() {
	if t.sink != nil {
		t.sink.Close()
	}
	if t.conn != nil {
		t.conn.Release()
	}
	if t.venc != nil {
		t.venc.Release()
	}
	if t.cam != nil {
		t.cam.Release()
	}
	_ = t.pkt.Close()
}

func (t *VideoTrack) GetConstraints() VideoConstraints {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.constraints
}

func (t *VideoTrack) GetSettings() VideoTrackSettings {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settings
}

// ApplyConstraints changes the bitrate at runtime. Geometry and frame
// rate are fixed once the pipeline runs; asking for different values is
// an OverconstrainedError.
func (t *VideoTrack) ApplyConstraints(c VideoConstraints) error {
	if t.ended.Load() {
		return ErrTrackEnded
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := c.Width.Validate(t.settings.Width); err != nil {
		err.(*OverconstrainedError).Constraint = "width"
		return err
	}
	if err := c.Height.Validate(t.settings.Height); err != nil {
		err.(*OverconstrainedError).Constraint = "height"
		return err
	}
	if err := c.FrameRate.Validate(t.settings.FrameRate); err != nil {
		err.(*OverconstrainedError).Constraint = "frameRate"
		return err
	}
	if c.Bitrate > 0 && c.Bitrate != t.settings.Bitrate {
		if err := videoencoder.Output.Write(t.venc, videoencoder.Bitrate(c.Bitrate)); err != nil {
			return err
		}
		t.settings.Bitrate = c.Bitrate
	}
	t.constraints = c
	return nil
}

// RequestKeyFrame asks the encoder for an IDR frame.
func (t *VideoTrack) RequestKeyFrame() error {
	if t.ended.Load() {
		return ErrTrackEnded
	}
	return videoencoder.Output.Write(t.venc, videoencoder.RequestIFrame())
}

// Stats reports the encoded frames read and the RTP packets written.
func (t *VideoTrack) Stats() (frames, packets uint64) {
	return t.frames.Load(), t.packets.Load()
}

func (t *VideoTrack) pionTrack() webrtc.TrackLocal { return t.rtp }
