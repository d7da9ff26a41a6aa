package mmal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlagsPredicates(t *testing.T) {
	f := FlagFrameEnd | FlagKeyframe
	assert.True(t, f.Has(FlagFrame))
	assert.False(t, f.HasAll(FlagFrame))
	assert.True(t, f.HasAll(FlagFrameEnd|FlagKeyframe))
	assert.True(t, f.IsTerminalFrame())

	assert.True(t, FlagTransmissionFailed.IsTerminalFrame())
	assert.False(t, FlagFrameStart.IsTerminalFrame())
	assert.False(t, Flags(0).IsTerminalFrame())
	assert.Equal(t, FlagFrameStart|FlagFrameEnd, FlagFrame)
}

func TestFlagsString(t *testing.T) {
	tests := []struct {
		f    Flags
		want string
	}{
		{0, "0"},
		{FlagEOS, "EOS"},
		{FlagFrame, "FRAME_START|FRAME_END"},
		{FlagConfig | FlagFrameEnd, "FRAME_END|CONFIG"},
		{FlagKeyframe | FlagUser3, "KEYFRAME|USER3"},
		{FlagVideoInterlaced, "INTERLACED"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.f.String())
	}
}

func TestWrapBufferNil(t *testing.T) {
	assert.Nil(t, wrapBuffer(nil, 0))
}
