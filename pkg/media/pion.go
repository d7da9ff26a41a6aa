package media

import (
	"errors"
	"io"

	"github.com/pion/rtcp"
	"github.com/pion/webrtc/v4"

	"github.com/thesyncim/gommal/internal/logging"
)

// pionTrackProvider is an internal interface for tracks that can provide
// their underlying Pion TrackLocal. This is not part of the public API.
type pionTrackProvider interface {
	pionTrack() webrtc.TrackLocal
}

// keyFrameRequester is implemented by tracks whose encoder can be asked
// for an IDR frame.
type keyFrameRequester interface {
	RequestKeyFrame() error
}

// PionTrackLocal extracts the underlying Pion TrackLocal from a MediaStreamTrack.
// This is an escape hatch for users who need direct Pion integration.
//
// Returns (nil, false) if the track doesn't support Pion integration.
//
// Example usage:
//
//	track := stream.GetVideoTracks()[0]
//	if pionTrack, ok := media.PionTrackLocal(track); ok {
//	    pc.AddTrack(pionTrack)
//	}
func PionTrackLocal(t MediaStreamTrack) (webrtc.TrackLocal, bool) {
	if p, ok := t.(pionTrackProvider); ok {
		return p.pionTrack(), true
	}
	return nil, false
}

// AddTracksToPC is a convenience function that adds all tracks from a MediaStream
// to a Pion PeerConnection. Each sender gets a goroutine that turns
// incoming PLI/FIR into keyframe requests; it exits when the sender stops.
//
// Returns the list of RTPSenders created, or an error if any track fails to add.
func AddTracksToPC(pc *webrtc.PeerConnection, stream *MediaStream) ([]*webrtc.RTPSender, error) {
	tracks := stream.GetTracks()
	senders := make([]*webrtc.RTPSender, 0, len(tracks))

	for _, t := range tracks {
		pionTrack, ok := PionTrackLocal(t)
		if !ok {
			// Skip tracks that don't support Pion integration
			continue
		}

		sender, err := pc.AddTrack(pionTrack)
		if err != nil {
			return senders, err
		}
		senders = append(senders, sender)
		if kf, ok := t.(keyFrameRequester); ok {
			go WatchRTCP(sender, kf)
		}
	}

	return senders, nil
}

// WatchRTCP reads RTCP from sender until it is closed and requests a
// keyframe on every picture loss or full intra request.
func WatchRTCP(sender *webrtc.RTPSender, t keyFrameRequester) {
	for {
		pkts, _, err := sender.ReadRTCP()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				logging.Logger().WithError(err).Debug("rtcp reader stopped")
			}
			return
		}
		if NeedsKeyFrame(pkts) {
			if err := t.RequestKeyFrame(); err != nil {
				logging.Logger().WithError(err).Debug("keyframe request failed")
			}
		}
	}
}

// NeedsKeyFrame reports whether pkts carry a PLI or FIR.
func NeedsKeyFrame(pkts []rtcp.Packet) bool {
	for _, p := range pkts {
		switch p.(type) {
		case *rtcp.PictureLossIndication, *rtcp.FullIntraRequest:
			return true
		}
	}
	return false
}
