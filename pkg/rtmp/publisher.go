// Package rtmp publishes encoded H.264 camera frames to an RTMP server and
// ingests published streams back into frames.
package rtmp

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	flvtag "github.com/yutopp/go-flv/tag"
	"github.com/yutopp/go-rtmp"
	rtmpmsg "github.com/yutopp/go-rtmp/message"

	"github.com/thesyncim/gommal/internal/logging"
	"github.com/thesyncim/gommal/pkg/frame"
)

const (
	DefaultPort      = "1935"
	DefaultChunkSize = 128
	videoChunkStream = 6
	flashVer         = "FMLE/3.0 (compatible; gommal)"
)

var (
	ErrPublisherClosed = errors.New("rtmp: publisher closed")
	ErrInvalidURL      = errors.New("rtmp: invalid url")
)

// Target is a parsed rtmp://host[:port]/app/stream URL.
type Target struct {
	Addr   string
	App    string
	Stream string
	TCURL  string
}

// ParseURL splits an RTMP URL into the dial address, the application and
// the stream name. The stream is the last path element.
func ParseURL(raw string) (Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "rtmp" || u.Hostname() == "" {
		return Target{}, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	path := strings.Trim(u.Path, "/")
	i := strings.LastIndexByte(path, '/')
	if i <= 0 || i == len(path)-1 {
		return Target{}, fmt.Errorf("%w: %q needs /app/stream", ErrInvalidURL, raw)
	}
	port := u.Port()
	if port == "" {
		port = DefaultPort
	}
	addr := net.JoinHostPort(u.Hostname(), port)
	return Target{
		Addr:   addr,
		App:    path[:i],
		Stream: path[i+1:],
		TCURL:  "rtmp://" + addr + "/" + path[:i],
	}, nil
}

// Config configures a Publisher.
type Config struct {
	// URL is rtmp://host[:port]/app/stream.
	URL string
	// ChunkSize is the outgoing chunk size; 0 uses DefaultChunkSize.
	ChunkSize uint32
	// Logger receives the connection's logs; nil uses the package logger.
	Logger logrus.FieldLogger
}

// Publisher sends H.264 frames as FLV video messages on one live stream.
// Config frames become the AVC sequence header; slices are converted from
// Annex-B to 4-byte length prefixed AVCC.
type Publisher struct {
	target Target
	client *rtmp.ClientConn
	stream *rtmp.Stream
	log    logrus.FieldLogger

	mu         sync.Mutex
	sps, pps   []byte
	headerSent bool
	started    bool
	baseSet    bool
	base, last time.Duration
	closed     bool
}

// Dial connects to the server, creates a stream and starts publishing.
func Dial(cfg Config) (*Publisher, error) {
	target, err := ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Logger()
	}
	chunk := cfg.ChunkSize
	if chunk == 0 {
		chunk = DefaultChunkSize
	}

	client, err := rtmp.Dial("rtmp", target.Addr, &rtmp.ConnConfig{Logger: log})
	if err != nil {
		return nil, fmt.Errorf("rtmp dial %s: %w", target.Addr, err)
	}
	if err := client.Connect(&rtmpmsg.NetConnectionConnect{
		Command: rtmpmsg.NetConnectionConnectCommand{
			App:      target.App,
			Type:     "nonprivate",
			FlashVer: flashVer,
			TCURL:    target.TCURL,
		},
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("rtmp connect: %w", err)
	}
	stream, err := client.CreateStream(nil, chunk)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("rtmp create stream: %w", err)
	}
	if err := stream.Publish(&rtmpmsg.NetStreamPublish{
		PublishingName: target.Stream,
		PublishingType: "live",
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("rtmp publish %s: %w", target.Stream, err)
	}
	log.WithFields(logrus.Fields{"addr": target.Addr, "app": target.App, "stream": target.Stream}).Debug("rtmp publishing")
	return &Publisher{target: target, client: client, stream: stream, log: log}, nil
}

// Target returns the parsed destination.
func (p *Publisher) Target() Target { return p.target }

// WriteFrame sends one encoded frame. Frames before the first keyframe
// that follows a sequence header are dropped. Timestamps are sent in
// milliseconds relative to the first frame written.
func (p *Publisher) WriteFrame(f *frame.EncodedFrame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPublisherClosed
	}

	nalus := SplitAnnexB(f.Data)
	if sps, pps := ParamSets(nalus); sps != nil && pps != nil {
		if !p.headerSent || !bytes.Equal(sps, p.sps) || !bytes.Equal(pps, p.pps) {
			if err := p.writeHeaderLocked(f.Timestamp, sps, pps); err != nil {
				return err
			}
		}
	}
	if f.IsConfig() {
		return nil
	}

	slices := make([][]byte, 0, len(nalus))
	key := f.IsKeyframe()
	for _, nal := range nalus {
		switch NALType(nal) {
		case nalSPS, nalPPS, nalAUD:
			continue
		case nalIDR:
			key = true
		}
		slices = append(slices, nal)
	}
	if len(slices) == 0 {
		return nil
	}
	if !p.headerSent || (!p.started && !key) {
		p.log.WithField("pts", f.Timestamp).Debug("dropping frame before keyframe")
		return nil
	}
	p.started = true
	tag, err := VideoTag(key, flvtag.AVCPacketTypeNALU, AVCC(slices))
	if err != nil {
		return err
	}
	return p.writeTagLocked(f.Timestamp, tag)
}

func (p *Publisher) writeHeaderLocked(pts time.Duration, sps, pps []byte) error {
	rec, err := DecoderConfig(sps, pps)
	if err != nil {
		return err
	}
	tag, err := VideoTag(true, flvtag.AVCPacketTypeSequenceHeader, rec)
	if err != nil {
		return err
	}
	if err := p.writeTagLocked(pts, tag); err != nil {
		return err
	}
	p.sps, p.pps = bytes.Clone(sps), bytes.Clone(pps)
	p.headerSent = true
	// A new sequence header needs a fresh keyframe.
	p.started = false
	return nil
}

func (p *Publisher) writeTagLocked(pts time.Duration, tag []byte) error {
	if err := p.stream.Write(videoChunkStream, p.timestampLocked(pts), &rtmpmsg.VideoMessage{Payload: bytes.NewReader(tag)}); err != nil {
		return fmt.Errorf("rtmp write video: %w", err)
	}
	return nil
}

// timestampLocked maps pts to milliseconds since the first tag. A negative
// pts is the encoder's unknown time and reuses the previous one.
func (p *Publisher) timestampLocked(pts time.Duration) uint32 {
	if pts < 0 {
		pts = p.last
	}
	if !p.baseSet {
		p.base, p.baseSet = pts, true
	}
	p.last = pts
	return uint32(max(0, pts-p.base) / time.Millisecond)
}

// Close ends the connection. Closing twice does nothing.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.client.Close()
}
