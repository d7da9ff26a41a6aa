package rtmp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	flvtag "github.com/yutopp/go-flv/tag"
)

var (
	testSPS = []byte{0x67, 0x42, 0xc0, 0x1e, 0x8c, 0x8d, 0x40}
	testPPS = []byte{0x68, 0xce, 0x3c, 0x80}
	testIDR = []byte{0x65, 0x88, 0x84, 0x00, 0x33, 0xff}
	testP   = []byte{0x41, 0x9a, 0x24, 0x6c}
)

func TestSplitAnnexB(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want [][]byte
	}{
		{"empty", nil, nil},
		{"no start code", []byte{1, 2, 3}, nil},
		{"four byte", JoinAnnexB([][]byte{testSPS, testPPS, testIDR}), [][]byte{testSPS, testPPS, testIDR}},
		{
			"mixed start codes",
			append(append([]byte{0, 0, 1}, testSPS...), append([]byte{0, 0, 0, 1}, testP...)...),
			[][]byte{testSPS, testP},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitAnnexB(tt.in))
		})
	}
}

func TestParamSets(t *testing.T) {
	sps, pps := ParamSets([][]byte{testIDR, testSPS, testPPS})
	assert.Equal(t, testSPS, sps)
	assert.Equal(t, testPPS, pps)

	sps, pps = ParamSets([][]byte{testP})
	assert.Nil(t, sps)
	assert.Nil(t, pps)
	assert.Equal(t, byte(nalIDR), NALType(testIDR))
	assert.Zero(t, NALType(nil))
}

func TestDecoderConfigRoundTrip(t *testing.T) {
	rec, err := DecoderConfig(testSPS, testPPS)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0x42, 0xc0, 0x1e, 0xff, 0xe1}, rec[:6])

	sps, pps, err := ParseDecoderConfig(rec)
	require.NoError(t, err)
	assert.Equal(t, testSPS, sps)
	assert.Equal(t, testPPS, pps)

	_, err = DecoderConfig(testSPS[:3], testPPS)
	assert.ErrorIs(t, err, ErrShortSPS)
	_, err = DecoderConfig(testSPS, nil)
	assert.ErrorIs(t, err, ErrNoParamSets)
	_, _, err = ParseDecoderConfig(rec[:10])
	assert.ErrorIs(t, err, ErrMalformedConfig)
	_, _, err = ParseDecoderConfig([]byte{1, 0x42, 0, 0x1e, 0xff, 0xe0, 0})
	assert.ErrorIs(t, err, ErrNoParamSets)
}

func TestAVCC(t *testing.T) {
	b := AVCC([][]byte{testIDR, testP})
	assert.Equal(t, []byte{0, 0, 0, byte(len(testIDR))}, b[:4])
	nalus, err := ParseAVCC(b)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{testIDR, testP}, nalus)

	_, err = ParseAVCC(b[:len(b)-1])
	assert.ErrorIs(t, err, ErrMalformedAVCC)
	_, err = ParseAVCC([]byte{0, 0, 0, 0})
	assert.ErrorIs(t, err, ErrMalformedAVCC)
}

func TestVideoTag(t *testing.T) {
	body := AVCC([][]byte{testIDR})
	b, err := VideoTag(true, flvtag.AVCPacketTypeNALU, body)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x17, 1, 0, 0, 0}, b[:5])

	tag, err := ParseVideoTag(bytes.NewReader(b))
	require.NoError(t, err)
	assert.True(t, tag.Keyframe)
	assert.Equal(t, flvtag.AVCPacketTypeNALU, tag.AVCType)
	assert.Zero(t, tag.CTS)
	assert.Equal(t, body, tag.Body)

	b, err = VideoTag(false, flvtag.AVCPacketTypeSequenceHeader, nil)
	require.NoError(t, err)
	tag, err = ParseVideoTag(bytes.NewReader(b))
	require.NoError(t, err)
	assert.False(t, tag.Keyframe)
	assert.Equal(t, flvtag.AVCPacketTypeSequenceHeader, tag.AVCType)
	assert.Empty(t, tag.Body)

	tag, err = ParseVideoTag(bytes.NewReader([]byte{0x27, 1, 0xff, 0xff, 0xfe}))
	require.NoError(t, err)
	assert.Equal(t, int32(-2), tag.CTS)

	_, err = ParseVideoTag(bytes.NewReader([]byte{0x17, 1}))
	assert.ErrorIs(t, err, ErrMalformedTag)
	_, err = ParseVideoTag(bytes.NewReader([]byte{0x12, 1, 0, 0, 0}))
	assert.ErrorIs(t, err, ErrNotAVC)
}

func TestParseURL(t *testing.T) {
	target, err := ParseURL("rtmp://example.com/live/cam0")
	require.NoError(t, err)
	assert.Equal(t, Target{
		Addr:   "example.com:1935",
		App:    "live",
		Stream: "cam0",
		TCURL:  "rtmp://example.com:1935/live",
	}, target)

	target, err = ParseURL("rtmp://127.0.0.1:19350/app/inst/key")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:19350", target.Addr)
	assert.Equal(t, "app/inst", target.App)
	assert.Equal(t, "key", target.Stream)

	for _, bad := range []string{"http://x/live/s", "rtmp:///live/s", "rtmp://x/live", "rtmp://x/live/", "::"} {
		_, err := ParseURL(bad)
		assert.ErrorIs(t, err, ErrInvalidURL, bad)
	}
}
