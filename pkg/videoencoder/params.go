package videoencoder

import (
	"github.com/thesyncim/gommal/pkg/mmal"
	"github.com/thesyncim/gommal/pkg/native"
)

// Profile is MMAL_VIDEO_PROFILE_T.
type Profile uint32

const (
	ProfileH263Baseline Profile = iota
	ProfileH263H320Coding
	ProfileH263BackwardCompatible
	ProfileH263ISWV2
	ProfileH263ISWV3
	ProfileH263HighCompression
	ProfileH263Internet
	ProfileH263Interlace
	ProfileH263HighLatency
	ProfileMP4VSimple
	ProfileMP4VSimpleScalable
	ProfileMP4VCore
	ProfileMP4VMain
	ProfileMP4VNBit
	ProfileMP4VScalableTexture
	ProfileMP4VSimpleFace
	ProfileMP4VSimpleFBA
	ProfileMP4VBasicAnimated
	ProfileMP4VHybrid
	ProfileMP4VAdvancedRealTime
	ProfileMP4VCoreScalable
	ProfileMP4VAdvancedCoding
	ProfileMP4VAdvancedCore
	ProfileMP4VAdvancedScalable
	ProfileMP4VAdvancedSimple
	ProfileH264Baseline
	ProfileH264Main
	ProfileH264Extended
	ProfileH264High
	ProfileH264High10
	ProfileH264High422
	ProfileH264High444
	ProfileH264ConstrainedBaseline
	ProfileDummy Profile = 0x7FFFFFFF
)

var Profiles = mmal.NewEnumTable("VideoProfile", map[Profile]string{
	ProfileH263Baseline:            "h263_baseline",
	ProfileH263H320Coding:          "h263_h320coding",
	ProfileH263BackwardCompatible:  "h263_backwardcompatible",
	ProfileH263ISWV2:               "h263_iswv2",
	ProfileH263ISWV3:               "h263_iswv3",
	ProfileH263HighCompression:     "h263_highcompression",
	ProfileH263Internet:            "h263_internet",
	ProfileH263Interlace:           "h263_interlace",
	ProfileH263HighLatency:         "h263_highlatency",
	ProfileMP4VSimple:              "mp4v_simple",
	ProfileMP4VSimpleScalable:      "mp4v_simplescalable",
	ProfileMP4VCore:                "mp4v_core",
	ProfileMP4VMain:                "mp4v_main",
	ProfileMP4VNBit:                "mp4v_nbit",
	ProfileMP4VScalableTexture:     "mp4v_scalabletexture",
	ProfileMP4VSimpleFace:          "mp4v_simpleface",
	ProfileMP4VSimpleFBA:           "mp4v_simplefba",
	ProfileMP4VBasicAnimated:       "mp4v_basicanimated",
	ProfileMP4VHybrid:              "mp4v_hybrid",
	ProfileMP4VAdvancedRealTime:    "mp4v_advancedrealtime",
	ProfileMP4VCoreScalable:        "mp4v_corescalable",
	ProfileMP4VAdvancedCoding:      "mp4v_advancedcoding",
	ProfileMP4VAdvancedCore:        "mp4v_advancedcore",
	ProfileMP4VAdvancedScalable:    "mp4v_advancedscalable",
	ProfileMP4VAdvancedSimple:      "mp4v_advancedsimple",
	ProfileH264Baseline:            "baseline",
	ProfileH264Main:                "main",
	ProfileH264Extended:            "extended",
	ProfileH264High:                "high",
	ProfileH264High10:              "high10",
	ProfileH264High422:             "high422",
	ProfileH264High444:             "high444",
	ProfileH264ConstrainedBaseline: "constrained_baseline",
	ProfileDummy:                   "dummy",
})

func (v Profile) String() string                { return Profiles.String(v) }
func (v Profile) MarshalText() ([]byte, error)  { return Profiles.MarshalText(v) }
func (v *Profile) UnmarshalText(b []byte) error { return Profiles.UnmarshalText(v, b) }

// Level is MMAL_VIDEO_LEVEL_T.
type Level uint32

const (
	LevelH263_10 Level = iota
	LevelH263_20
	LevelH263_30
	LevelH263_40
	LevelH263_45
	LevelH263_50
	LevelH263_60
	LevelH263_70
	LevelMP4V_0
	LevelMP4V_0b
	LevelMP4V_1
	LevelMP4V_2
	LevelMP4V_3
	LevelMP4V_4
	LevelMP4V_4a
	LevelMP4V_5
	LevelMP4V_6
	LevelH264_1
	LevelH264_1b
	LevelH264_11
	LevelH264_12
	LevelH264_13
	LevelH264_2
	LevelH264_21
	LevelH264_22
	LevelH264_3
	LevelH264_31
	LevelH264_32
	LevelH264_4
	LevelH264_41
	LevelH264_42
	LevelH264_5
	LevelH264_51
	LevelDummy Level = 0x7FFFFFFF
)

var Levels = mmal.NewEnumTable("VideoLevel", map[Level]string{
	LevelH263_10: "h263_10",
	LevelH263_20: "h263_20",
	LevelH263_30: "h263_30",
	LevelH263_40: "h263_40",
	LevelH263_45: "h263_45",
	LevelH263_50: "h263_50",
	LevelH263_60: "h263_60",
	LevelH263_70: "h263_70",
	LevelMP4V_0:  "mp4v_0",
	LevelMP4V_0b: "mp4v_0b",
	LevelMP4V_1:  "mp4v_1",
	LevelMP4V_2:  "mp4v_2",
	LevelMP4V_3:  "mp4v_3",
	LevelMP4V_4:  "mp4v_4",
	LevelMP4V_4a: "mp4v_4a",
	LevelMP4V_5:  "mp4v_5",
	LevelMP4V_6:  "mp4v_6",
	LevelH264_1:  "1",
	LevelH264_1b: "1b",
	LevelH264_11: "1.1",
	LevelH264_12: "1.2",
	LevelH264_13: "1.3",
	LevelH264_2:  "2",
	LevelH264_21: "2.1",
	LevelH264_22: "2.2",
	LevelH264_3:  "3",
	LevelH264_31: "3.1",
	LevelH264_32: "3.2",
	LevelH264_4:  "4",
	LevelH264_41: "4.1",
	LevelH264_42: "4.2",
	LevelH264_5:  "5",
	LevelH264_51: "5.1",
	LevelDummy:   "dummy",
})

func (v Level) String() string                { return Levels.String(v) }
func (v Level) MarshalText() ([]byte, error)  { return Levels.MarshalText(v) }
func (v *Level) UnmarshalText(b []byte) error { return Levels.UnmarshalText(v, b) }

// ProfileLevel is one MMAL_PARAMETER_VIDEO_PROFILE_T entry.
type ProfileLevel struct {
	Profile Profile
	Level   Level
}

type nativeProfileLevel struct {
	Profile uint32
	Level   uint32
}

func encodeProfile(p ProfileLevel) nativeProfileLevel {
	return nativeProfileLevel{uint32(p.Profile), uint32(p.Level)}
}

func decodeProfile(n nativeProfileLevel) (ProfileLevel, error) {
	p, err := Profiles.FromNative(n.Profile)
	if err != nil {
		return ProfileLevel{}, err
	}
	l, err := Levels.FromNative(n.Level)
	if err != nil {
		return ProfileLevel{}, err
	}
	return ProfileLevel{p, l}, nil
}

type (
	PProfile      = mmal.Param[Entity, OutputPort, *mmal.Struct[ProfileLevel, nativeProfileLevel]]
	PBitrate      = mmal.Param[Entity, OutputPort, *mmal.Uint32]
	PIntraPeriod  = mmal.Param[Entity, OutputPort, *mmal.Uint32]
	PInlineHeader = mmal.Param[Entity, OutputPort, *mmal.Boolean]
	PRequestIDR   = mmal.Param[Entity, OutputPort, *mmal.Boolean]
)

// H264Profile sets the encoded profile and level.
func H264Profile(p Profile, l Level) PProfile {
	return mmal.NewParam[Entity, OutputPort](
		mmal.NewStruct(native.ParamProfile, ProfileLevel{p, l}, encodeProfile, decodeProfile))
}

// Bitrate changes the target bitrate in bits per second.
func Bitrate(bps uint32) PBitrate {
	return mmal.NewParam[Entity, OutputPort](&mmal.Uint32{ID: native.ParamVideoBitRate, Value: bps})
}

// IntraPeriod is the number of frames between IDR frames.
func IntraPeriod(frames uint32) PIntraPeriod {
	return mmal.NewParam[Entity, OutputPort](&mmal.Uint32{ID: native.ParamIntraPeriod, Value: frames})
}

// InlineHeader repeats SPS and PPS before every IDR frame.
func InlineHeader(on bool) PInlineHeader {
	return mmal.NewParam[Entity, OutputPort](&mmal.Boolean{ID: native.ParamVideoInlineHeader, Value: on})
}

// RequestIFrame makes the next encoded frame an IDR frame. The encoder
// clears the request once served.
func RequestIFrame() PRequestIDR {
	return mmal.NewParam[Entity, OutputPort](&mmal.Boolean{ID: native.ParamVideoRequestIFrame, Value: true})
}
