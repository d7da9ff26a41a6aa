package native

// FourCC is a MMAL_FOURCC_T encoding tag.
type FourCC uint32

// MakeFourCC builds a FourCC the way the MMAL_FOURCC macro does.
func MakeFourCC(a, b, c, d byte) FourCC {
	return FourCC(uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24)
}

// String returns the four characters of the code, or "0" for the empty code.
func (f FourCC) String() string {
	if f == 0 {
		return "0"
	}
	return string([]byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)})
}

var (
	EncodingH264   = MakeFourCC('H', '2', '6', '4')
	EncodingMJPEG  = MakeFourCC('M', 'J', 'P', 'G')
	EncodingJPEG   = MakeFourCC('J', 'P', 'E', 'G')
	EncodingGIF    = MakeFourCC('G', 'I', 'F', ' ')
	EncodingPNG    = MakeFourCC('P', 'N', 'G', ' ')
	EncodingBMP    = MakeFourCC('B', 'M', 'P', ' ')
	EncodingI420   = MakeFourCC('I', '4', '2', '0')
	EncodingNV12   = MakeFourCC('N', 'V', '1', '2')
	EncodingYUYV   = MakeFourCC('Y', 'U', 'Y', 'V')
	EncodingRGB24  = MakeFourCC('R', 'G', 'B', '3')
	EncodingBGR24  = MakeFourCC('B', 'G', 'R', '3')
	EncodingRGBA   = MakeFourCC('R', 'G', 'B', 'A')
	EncodingOpaque = MakeFourCC('O', 'P', 'Q', 'V')
)

// IsRaw reports whether f carries uncompressed pixels.
func (f FourCC) IsRaw() bool {
	switch f {
	case EncodingI420, EncodingNV12, EncodingYUYV, EncodingRGB24, EncodingBGR24, EncodingRGBA, EncodingOpaque:
		return true
	}
	return false
}

// Default component names (mmal_default_components.h).
const (
	ComponentCamera       = "vc.ril.camera"
	ComponentImageEncoder = "vc.ril.image_encode"
	ComponentVideoEncoder = "vc.ril.video_encode"
	ComponentNullSink     = "vc.null_sink"
	ComponentCameraInfo   = "vc.camera_info"
)

// Buffer header flags (MMAL_BUFFER_HEADER_FLAG_* and MMAL_BUFFER_HEADER_VIDEO_FLAG_*).
const (
	BufferFlagEOS                uint32 = 1 << 0
	BufferFlagFrameStart         uint32 = 1 << 1
	BufferFlagFrameEnd           uint32 = 1 << 2
	BufferFlagFrame              uint32 = BufferFlagFrameStart | BufferFlagFrameEnd
	BufferFlagKeyframe           uint32 = 1 << 3
	BufferFlagDiscontinuity      uint32 = 1 << 4
	BufferFlagConfig             uint32 = 1 << 5
	BufferFlagEncrypted          uint32 = 1 << 6
	BufferFlagCodecSideInfo      uint32 = 1 << 7
	BufferFlagSnapshot           uint32 = 1 << 8
	BufferFlagCorrupted          uint32 = 1 << 9
	BufferFlagTransmissionFailed uint32 = 1 << 10
	BufferFlagDecodeOnly         uint32 = 1 << 11
	BufferFlagNALEnd             uint32 = 1 << 12
	BufferFlagUser0              uint32 = 1 << 28
	BufferFlagUser1              uint32 = 1 << 29
	BufferFlagUser2              uint32 = 1 << 30
	BufferFlagUser3              uint32 = 1 << 31

	BufferVideoFlagInterlaced      uint32 = 1 << 16
	BufferVideoFlagTopFieldFirst   uint32 = 1 << 17
	BufferVideoFlagDisplayExternal uint32 = 1 << 19
	BufferVideoFlagProtected       uint32 = 1 << 20
)

// Boolean values as the pipeline stores them (MMAL_BOOL_T).
const (
	False uint32 = 0
	True  uint32 = 1
)
