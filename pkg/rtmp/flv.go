package rtmp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	flvtag "github.com/yutopp/go-flv/tag"
)

// H.264 NAL unit types handled here.
const (
	nalIDR = 5
	nalSPS = 7
	nalPPS = 8
	nalAUD = 9
)

var (
	ErrShortSPS        = errors.New("rtmp: SPS shorter than 4 bytes")
	ErrNoParamSets     = errors.New("rtmp: config frame without SPS and PPS")
	ErrNotAVC          = errors.New("rtmp: video tag is not AVC")
	ErrMalformedTag    = errors.New("rtmp: malformed video tag")
	ErrMalformedAVCC   = errors.New("rtmp: malformed AVCC payload")
	ErrMalformedConfig = errors.New("rtmp: malformed AVC decoder configuration")
)

var startCode = []byte{0, 0, 0, 1}

// NALType returns the type of a NAL unit without start code.
func NALType(nal []byte) byte {
	if len(nal) == 0 {
		return 0
	}
	return nal[0] & 0x1f
}

// SplitAnnexB returns the NAL units of an Annex-B stream. Both 3- and
// 4-byte start codes are accepted; the units alias b.
func SplitAnnexB(b []byte) [][]byte {
	var nalus [][]byte
	start := -1
	for i := 0; i+2 < len(b); {
		if b[i] == 0 && b[i+1] == 0 && b[i+2] == 1 {
			if start >= 0 {
				nalus = appendNAL(nalus, b[start:i])
			}
			i += 3
			start = i
			continue
		}
		i++
	}
	if start >= 0 && start < len(b) {
		nalus = append(nalus, b[start:])
	}
	return nalus
}

// appendNAL drops the trailing zero that belongs to a 4-byte start code.
func appendNAL(nalus [][]byte, nal []byte) [][]byte {
	for len(nal) > 0 && nal[len(nal)-1] == 0 {
		nal = nal[:len(nal)-1]
	}
	if len(nal) == 0 {
		return nalus
	}
	return append(nalus, nal)
}

// JoinAnnexB prefixes every unit with a 4-byte start code.
func JoinAnnexB(nalus [][]byte) []byte {
	n := 0
	for _, nal := range nalus {
		n += len(startCode) + len(nal)
	}
	out := make([]byte, 0, n)
	for _, nal := range nalus {
		out = append(out, startCode...)
		out = append(out, nal...)
	}
	return out
}

// ParamSets picks the first SPS and PPS out of nalus.
func ParamSets(nalus [][]byte) (sps, pps []byte) {
	for _, nal := range nalus {
		switch NALType(nal) {
		case nalSPS:
			if sps == nil {
				sps = nal
			}
		case nalPPS:
			if pps == nil {
				pps = nal
			}
		}
	}
	return sps, pps
}

// DecoderConfig builds an AVCDecoderConfigurationRecord with 4-byte NAL
// lengths, one SPS and one PPS.
func DecoderConfig(sps, pps []byte) ([]byte, error) {
	if len(sps) < 4 {
		return nil, ErrShortSPS
	}
	if len(pps) == 0 {
		return nil, ErrNoParamSets
	}
	out := make([]byte, 0, 11+len(sps)+len(pps))
	out = append(out, 1, sps[1], sps[2], sps[3], 0xff, 0xe1)
	out = binary.BigEndian.AppendUint16(out, uint16(len(sps)))
	out = append(out, sps...)
	out = append(out, 1)
	out = binary.BigEndian.AppendUint16(out, uint16(len(pps)))
	out = append(out, pps...)
	return out, nil
}

// ParseDecoderConfig returns the first SPS and PPS of a record.
func ParseDecoderConfig(data []byte) (sps, pps []byte, err error) {
	if len(data) < 7 {
		return nil, nil, ErrMalformedConfig
	}
	off := 5
	numSPS := int(data[off] & 0x1f)
	off++
	for range numSPS {
		var nal []byte
		if nal, off, err = lengthPrefixed16(data, off); err != nil {
			return nil, nil, err
		}
		if sps == nil {
			sps = nal
		}
	}
	if off >= len(data) {
		return nil, nil, ErrMalformedConfig
	}
	numPPS := int(data[off])
	off++
	for range numPPS {
		var nal []byte
		if nal, off, err = lengthPrefixed16(data, off); err != nil {
			return nil, nil, err
		}
		if pps == nil {
			pps = nal
		}
	}
	if sps == nil || pps == nil {
		return nil, nil, ErrNoParamSets
	}
	return sps, pps, nil
}

func lengthPrefixed16(data []byte, off int) ([]byte, int, error) {
	if off+2 > len(data) {
		return nil, 0, ErrMalformedConfig
	}
	n := int(binary.BigEndian.Uint16(data[off:]))
	off += 2
	if off+n > len(data) {
		return nil, 0, ErrMalformedConfig
	}
	return data[off : off+n], off + n, nil
}

// AVCC encodes nalus with 4-byte big-endian lengths.
func AVCC(nalus [][]byte) []byte {
	n := 0
	for _, nal := range nalus {
		n += 4 + len(nal)
	}
	out := make([]byte, 0, n)
	for _, nal := range nalus {
		out = binary.BigEndian.AppendUint32(out, uint32(len(nal)))
		out = append(out, nal...)
	}
	return out
}

// ParseAVCC splits a 4-byte length prefixed payload; the units alias data.
func ParseAVCC(data []byte) ([][]byte, error) {
	var nalus [][]byte
	for off := 0; off < len(data); {
		if off+4 > len(data) {
			return nil, ErrMalformedAVCC
		}
		n := int(binary.BigEndian.Uint32(data[off:]))
		off += 4
		if n == 0 || off+n > len(data) {
			return nil, ErrMalformedAVCC
		}
		nalus = append(nalus, data[off:off+n])
		off += n
	}
	return nalus, nil
}

// VideoTag encodes an FLV AVC video tag body.
func VideoTag(keyframe bool, avcType flvtag.AVCPacketType, body []byte) ([]byte, error) {
	v := &flvtag.VideoData{
		FrameType:     flvtag.FrameTypeInterFrame,
		CodecID:       flvtag.CodecIDAVC,
		AVCPacketType: avcType,
		Data:          bytes.NewReader(body),
	}
	if keyframe {
		v.FrameType = flvtag.FrameTypeKeyFrame
	}
	var buf bytes.Buffer
	buf.Grow(5 + len(body))
	if err := flvtag.EncodeVideoData(&buf, v); err != nil {
		return nil, fmt.Errorf("rtmp: encode video tag: %w", err)
	}
	return buf.Bytes(), nil
}

// Tag is a parsed FLV AVC video tag.
type Tag struct {
	Keyframe bool
	AVCType  flvtag.AVCPacketType
	// CTS is the composition time offset in milliseconds.
	CTS  int32
	Body []byte
}

// ParseVideoTag reads an FLV video tag from r.
func ParseVideoTag(r io.Reader) (Tag, error) {
	var v flvtag.VideoData
	if err := flvtag.DecodeVideoData(r, &v); err != nil {
		return Tag{}, fmt.Errorf("%w: %v", ErrMalformedTag, err)
	}
	if v.CodecID != flvtag.CodecIDAVC {
		return Tag{}, ErrNotAVC
	}
	body, err := io.ReadAll(v.Data)
	if err != nil {
		return Tag{}, fmt.Errorf("%w: %v", ErrMalformedTag, err)
	}
	return Tag{
		Keyframe: v.FrameType == flvtag.FrameTypeKeyFrame,
		AVCType:  v.AVCPacketType,
		// The field is 24 bits on the wire; sign-extend it.
		CTS:  v.CompositionTime << 8 >> 8,
		Body: body,
	}, nil
}
