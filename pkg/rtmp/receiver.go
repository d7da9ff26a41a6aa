package rtmp

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	flvtag "github.com/yutopp/go-flv/tag"
	"github.com/yutopp/go-rtmp"
	rtmpmsg "github.com/yutopp/go-rtmp/message"

	"github.com/thesyncim/gommal/internal/logging"
	"github.com/thesyncim/gommal/pkg/frame"
	"github.com/thesyncim/gommal/pkg/mmal"
)

// FrameHandler receives the frames of a published stream. The sequence
// header arrives as a config frame holding SPS and PPS in Annex-B.
type FrameHandler func(stream string, f *frame.EncodedFrame)

// Receiver is an RTMP ingest server that turns published AVC video back
// into Annex-B frames. Audio and data messages are ignored.
type Receiver struct {
	srv     *rtmp.Server
	onFrame FrameHandler
	log     *logrus.Entry

	mu      sync.Mutex
	streams map[string]int
}

// NewReceiver returns a receiver delivering frames to onFrame.
func NewReceiver(onFrame FrameHandler) *Receiver {
	r := &Receiver{
		onFrame: onFrame,
		log:     logging.Logger().WithField("rtmp", "receiver"),
		streams: make(map[string]int),
	}
	r.srv = rtmp.NewServer(&rtmp.ServerConfig{
		OnConnect: func(conn net.Conn) (io.ReadWriteCloser, *rtmp.ConnConfig) {
			return conn, &rtmp.ConnConfig{
				Handler: &ingestHandler{r: r},
				ControlState: rtmp.StreamControlStateConfig{
					DefaultBandwidthWindowSize: 6 * 1024 * 1024,
				},
				Logger: logging.Logger(),
			}
		},
	})
	return r
}

// Serve accepts connections on ln until Close.
func (r *Receiver) Serve(ln net.Listener) error {
	return r.srv.Serve(ln)
}

// Close stops the server.
func (r *Receiver) Close() error {
	return r.srv.Close()
}

// Publishing returns the number of connections publishing stream.
func (r *Receiver) Publishing(stream string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.streams[stream]
}

func (r *Receiver) track(stream string, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams[stream] += delta
	if r.streams[stream] <= 0 {
		delete(r.streams, stream)
	}
}

type ingestHandler struct {
	rtmp.DefaultHandler
	r        *Receiver
	stream   string
	sps, pps []byte
}

func (h *ingestHandler) OnPublish(_ *rtmp.StreamContext, _ uint32, cmd *rtmpmsg.NetStreamPublish) error {
	if h.stream != "" {
		h.r.track(h.stream, -1)
	}
	h.stream = cmd.PublishingName
	h.r.track(h.stream, 1)
	h.r.log.WithField("stream", h.stream).Debug("publish started")
	return nil
}

// OnVideo drops malformed tags rather than failing the connection.
func (h *ingestHandler) OnVideo(timestamp uint32, payload io.Reader) error {
	if h.stream == "" {
		return nil
	}
	tag, err := ParseVideoTag(payload)
	if err != nil {
		h.r.log.WithError(err).Debug("dropping video tag")
		return nil
	}
	pts := time.Duration(timestamp) * time.Millisecond

	switch tag.AVCType {
	case flvtag.AVCPacketTypeSequenceHeader:
		sps, pps, err := ParseDecoderConfig(tag.Body)
		if err != nil {
			h.r.log.WithError(err).Debug("dropping sequence header")
			return nil
		}
		h.sps, h.pps = sps, pps
		h.r.onFrame(h.stream, &frame.EncodedFrame{
			Data:      JoinAnnexB([][]byte{sps, pps}),
			Timestamp: pts,
			Flags:     mmal.FlagConfig | mmal.FlagFrameEnd,
		})
	case flvtag.AVCPacketTypeNALU:
		if h.sps == nil {
			return nil
		}
		nalus, err := ParseAVCC(tag.Body)
		if err != nil {
			h.r.log.WithError(err).Debug("dropping video tag")
			return nil
		}
		flags := mmal.FlagFrame
		if tag.Keyframe {
			flags |= mmal.FlagKeyframe
		}
		h.r.onFrame(h.stream, &frame.EncodedFrame{
			Data:      JoinAnnexB(nalus),
			Timestamp: pts + time.Duration(tag.CTS)*time.Millisecond,
			Flags:     flags,
		})
	}
	return nil
}

func (h *ingestHandler) OnClose() {
	if h.stream != "" {
		h.r.track(h.stream, -1)
		h.r.log.WithField("stream", h.stream).Debug("publish ended")
	}
}
