package native

import "fmt"

// ParamID is a MMAL_PARAMETER_* identifier.
type ParamID uint32

// ParamHeaderSize is the size of MMAL_PARAMETER_HEADER_T.
const ParamHeaderSize = 8

// Parameter groups.
const (
	paramGroupCommon ParamID = 0 << 16
	paramGroupCamera ParamID = 1 << 16
	paramGroupVideo  ParamID = 2 << 16
)

// Common group.
const (
	ParamSupportedEncodings ParamID = paramGroupCommon + 1
	ParamZeroCopy           ParamID = paramGroupCommon + 4
	ParamBufferRequirements ParamID = paramGroupCommon + 5
	ParamStatistics         ParamID = paramGroupCommon + 6
	ParamSystemTime         ParamID = paramGroupCommon + 13
	ParamNoImagePadding     ParamID = paramGroupCommon + 14
)

// Camera group.
const (
	ParamThumbnailConfig         ParamID = paramGroupCamera + 0
	ParamCaptureQuality          ParamID = paramGroupCamera + 1
	ParamRotation                ParamID = paramGroupCamera + 2
	ParamExifDisable             ParamID = paramGroupCamera + 3
	ParamExif                    ParamID = paramGroupCamera + 4
	ParamAWBMode                 ParamID = paramGroupCamera + 5
	ParamImageEffect             ParamID = paramGroupCamera + 6
	ParamColourEffect            ParamID = paramGroupCamera + 7
	ParamFlickerAvoid            ParamID = paramGroupCamera + 8
	ParamExposureComp            ParamID = paramGroupCamera + 13
	ParamZoom                    ParamID = paramGroupCamera + 14
	ParamMirror                  ParamID = paramGroupCamera + 15
	ParamCameraNum               ParamID = paramGroupCamera + 16
	ParamCapture                 ParamID = paramGroupCamera + 17
	ParamExposureMode            ParamID = paramGroupCamera + 18
	ParamExpMeteringMode         ParamID = paramGroupCamera + 19
	ParamCameraConfig            ParamID = paramGroupCamera + 21
	ParamJPEGQFactor             ParamID = paramGroupCamera + 25
	ParamFrameRate               ParamID = paramGroupCamera + 26
	ParamUseSTC                  ParamID = paramGroupCamera + 27
	ParamCameraInfo              ParamID = paramGroupCamera + 28
	ParamVideoStabilisation      ParamID = paramGroupCamera + 29
	ParamInputCrop               ParamID = paramGroupCamera + 37
	ParamDynamicRangeCompression ParamID = paramGroupCamera + 42
	ParamSharpness               ParamID = paramGroupCamera + 44
	ParamContrast                ParamID = paramGroupCamera + 45
	ParamBrightness              ParamID = paramGroupCamera + 46
	ParamSaturation              ParamID = paramGroupCamera + 47
	ParamISO                     ParamID = paramGroupCamera + 48
	ParamFPSRange                ParamID = paramGroupCamera + 62
	ParamShutterSpeed            ParamID = paramGroupCamera + 67
	ParamCustomAWBGains          ParamID = paramGroupCamera + 68
	ParamAnnotate                ParamID = paramGroupCamera + 73
	ParamStereoscopicMode        ParamID = paramGroupCamera + 74
	ParamJPEGRestartInterval     ParamID = paramGroupCamera + 80
)

// Video group.
const (
	ParamDisplayRegion       ParamID = paramGroupVideo + 0
	ParamSupportedProfiles   ParamID = paramGroupVideo + 1
	ParamProfile             ParamID = paramGroupVideo + 2
	ParamIntraPeriod         ParamID = paramGroupVideo + 3
	ParamRateControl         ParamID = paramGroupVideo + 4
	ParamNALUnitFormat       ParamID = paramGroupVideo + 5
	ParamVideoRequestIFrame  ParamID = paramGroupVideo + 11
	ParamVideoBitRate        ParamID = paramGroupVideo + 14
	ParamVideoFrameRate      ParamID = paramGroupVideo + 15
	ParamVideoEncodeMinQuant ParamID = paramGroupVideo + 16
	ParamVideoEncodeMaxQuant ParamID = paramGroupVideo + 17
	ParamVideoInlineHeader   ParamID = paramGroupVideo + 42
	ParamVideoSPSTiming      ParamID = paramGroupVideo + 48
)

var paramNames = map[ParamID]string{
	ParamSupportedEncodings:      "supported_encodings",
	ParamZeroCopy:                "zero_copy",
	ParamBufferRequirements:      "buffer_requirements",
	ParamStatistics:              "statistics",
	ParamSystemTime:              "system_time",
	ParamNoImagePadding:          "no_image_padding",
	ParamThumbnailConfig:         "thumbnail_configuration",
	ParamCaptureQuality:          "capture_quality",
	ParamRotation:                "rotation",
	ParamExifDisable:             "exif_disable",
	ParamExif:                    "exif",
	ParamAWBMode:                 "awb_mode",
	ParamImageEffect:             "image_effect",
	ParamColourEffect:            "colour_effect",
	ParamFlickerAvoid:            "flicker_avoid",
	ParamExposureComp:            "exposure_comp",
	ParamZoom:                    "zoom",
	ParamMirror:                  "mirror",
	ParamCameraNum:               "camera_num",
	ParamCapture:                 "capture",
	ParamExposureMode:            "exposure_mode",
	ParamExpMeteringMode:         "exp_metering_mode",
	ParamCameraConfig:            "camera_config",
	ParamJPEGQFactor:             "jpeg_q_factor",
	ParamFrameRate:               "frame_rate",
	ParamUseSTC:                  "use_stc",
	ParamCameraInfo:              "camera_info",
	ParamVideoStabilisation:      "video_stabilisation",
	ParamInputCrop:               "input_crop",
	ParamDynamicRangeCompression: "dynamic_range_compression",
	ParamSharpness:               "sharpness",
	ParamContrast:                "contrast",
	ParamBrightness:              "brightness",
	ParamSaturation:              "saturation",
	ParamISO:                     "iso",
	ParamFPSRange:                "fps_range",
	ParamShutterSpeed:            "shutter_speed",
	ParamCustomAWBGains:          "custom_awb_gains",
	ParamAnnotate:                "annotate",
	ParamStereoscopicMode:        "stereoscopic_mode",
	ParamJPEGRestartInterval:     "jpeg_restart_interval",
	ParamDisplayRegion:           "displayregion",
	ParamSupportedProfiles:       "supported_profiles",
	ParamProfile:                 "profile",
	ParamIntraPeriod:             "intraperiod",
	ParamRateControl:             "ratecontrol",
	ParamNALUnitFormat:           "nalunitformat",
	ParamVideoRequestIFrame:      "video_request_i_frame",
	ParamVideoBitRate:            "video_bit_rate",
	ParamVideoFrameRate:          "video_frame_rate",
	ParamVideoEncodeMinQuant:     "video_encode_min_quant",
	ParamVideoEncodeMaxQuant:     "video_encode_max_quant",
	ParamVideoInlineHeader:       "video_encode_inline_header",
	ParamVideoSPSTiming:          "video_encode_sps_timing",
}

// String returns the lower-case MMAL name of the parameter, or its hex value.
func (id ParamID) String() string {
	if name, ok := paramNames[id]; ok {
		return name
	}
	return fmt.Sprintf("param(0x%05x)", uint32(id))
}
