// Package config loads capture settings from YAML and applies them to the
// camera and encoder stages.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/thesyncim/gommal/pkg/camera"
	"github.com/thesyncim/gommal/pkg/native"
	"github.com/thesyncim/gommal/pkg/videoencoder"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Encoding names accepted in Encoder.Encoding.
const (
	EncodingJPEG  = "jpeg"
	EncodingH264  = "h264"
	EncodingMJPEG = "mjpeg"
)

// Settings is the root of a settings file.
type Settings struct {
	Camera  Camera  `yaml:"camera"`
	Encoder Encoder `yaml:"encoder"`
	Output  Output  `yaml:"output"`
}

// Camera holds the sensor and image controls.
type Camera struct {
	Num       int32  `yaml:"num"`
	Width     uint32 `yaml:"width"`
	Height    uint32 `yaml:"height"`
	FrameRate int32  `yaml:"frame_rate"`
	// ShutterSpeed in microseconds; 0 is auto.
	ShutterSpeed uint32 `yaml:"shutter_speed"`
	// ISO; 0 is auto.
	ISO          uint32              `yaml:"iso"`
	Saturation   int32               `yaml:"saturation"`
	Sharpness    int32               `yaml:"sharpness"`
	Contrast     int32               `yaml:"contrast"`
	Brightness   int32               `yaml:"brightness"`
	ExposureComp int32               `yaml:"exposure_compensation"`
	Exposure     camera.ExposureMode `yaml:"exposure"`
	Metering     camera.MeteringMode `yaml:"metering"`
	AWB          camera.AWBMode      `yaml:"awb"`
	Effect       camera.ImageFX      `yaml:"effect"`
	Rotation     int32               `yaml:"rotation"`
	Flip         camera.Mirror       `yaml:"flip"`
}

// Encoder selects the output encoding.
type Encoder struct {
	Encoding    string `yaml:"encoding"`
	Bitrate     uint32 `yaml:"bitrate"`
	IntraPeriod uint32 `yaml:"intra_period"`
	// Quality is the JPEG Q factor.
	Quality uint32 `yaml:"quality"`
}

// Output says where frames go.
type Output struct {
	// Frames to capture; 0 runs until interrupted.
	Frames int    `yaml:"frames"`
	Path   string `yaml:"path"`
	Listen string `yaml:"listen"`
	RTMP   string `yaml:"rtmp_url"`
}

// Default returns 1280x720 H.264 at 30 fps with automatic exposure and
// white balance.
func Default() Settings {
	return Settings{
		Camera: Camera{
			Width:      1280,
			Height:     720,
			FrameRate:  30,
			Brightness: 50,
			Exposure:   camera.ExposureAuto,
			Metering:   camera.MeteringAverage,
			AWB:        camera.AWBAuto,
			Effect:     camera.FXNone,
			Flip:       camera.MirrorNone,
		},
		Encoder: Encoder{
			Encoding:    EncodingH264,
			Bitrate:     videoencoder.DefaultBitrate,
			IntraPeriod: 60,
			Quality:     85,
		},
		Output: Output{
			Path:   "-",
			Listen: ":8080",
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are an error.
func Parse(data []byte) (Settings, error) {
	s := Default()
	if err := yaml.UnmarshalStrict(data, &s); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Marshal renders s as YAML.
func (s Settings) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// Validate checks ranges the firmware would otherwise reject or clamp.
func (s Settings) Validate() error {
	if err := validateCamera(s.Camera); err != nil {
		return err
	}
	return validateEncoder(s.Encoder)
}

func validateCamera(c Camera) error {
	switch {
	case c.Num < 0 || c.Num > 3:
		return fmt.Errorf("%w: camera num %d", ErrInvalidConfig, c.Num)
	case c.Width == 0 || c.Height == 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case c.FrameRate < 0 || c.FrameRate > 90:
		return fmt.Errorf("%w: frame rate %d", ErrInvalidConfig, c.FrameRate)
	case c.ISO != 0 && (c.ISO < 100 || c.ISO > 800):
		return fmt.Errorf("%w: iso %d", ErrInvalidConfig, c.ISO)
	case !inRange(c.Saturation, -100, 100), !inRange(c.Sharpness, -100, 100), !inRange(c.Contrast, -100, 100):
		return fmt.Errorf("%w: saturation/sharpness/contrast outside [-100, 100]", ErrInvalidConfig)
	case !inRange(c.Brightness, 0, 100):
		return fmt.Errorf("%w: brightness %d", ErrInvalidConfig, c.Brightness)
	case !inRange(c.ExposureComp, -10, 10):
		return fmt.Errorf("%w: exposure compensation %d", ErrInvalidConfig, c.ExposureComp)
	case c.Rotation%90 != 0 || !inRange(c.Rotation, 0, 270):
		return fmt.Errorf("%w: rotation %d", ErrInvalidConfig, c.Rotation)
	}
	return nil
}

func validateEncoder(e Encoder) error {
	switch e.Encoding {
	case EncodingJPEG:
		if e.Quality == 0 || e.Quality > 100 {
			return fmt.Errorf("%w: quality %d", ErrInvalidConfig, e.Quality)
		}
	case EncodingH264, EncodingMJPEG:
		if e.Bitrate == 0 || e.Bitrate > 25_000_000 {
			return fmt.Errorf("%w: bitrate %d", ErrInvalidConfig, e.Bitrate)
		}
	default:
		return fmt.Errorf("%w: encoding %q", ErrInvalidConfig, e.Encoding)
	}
	return nil
}

func inRange(v, lo, hi int32) bool { return v >= lo && v <= hi }

// FourCC returns the native encoding for Encoder.Encoding.
func (e Encoder) FourCC() native.FourCC {
	switch e.Encoding {
	case EncodingJPEG:
		return native.EncodingJPEG
	case EncodingMJPEG:
		return native.EncodingMJPEG
	default:
		return native.EncodingH264
	}
}

// VideoFormat is the video encoder output for these settings.
func (s Settings) VideoFormat() videoencoder.OutFormat {
	return videoencoder.OutFormat{Encoding: s.Encoder.FourCC(), Bitrate: s.Encoder.Bitrate}
}

// VideoPort is the camera video port preset, opaque for tunnelling.
func (s Settings) VideoPort() camera.PortConfig {
	return camera.PortConfig{
		Encoding:  native.EncodingOpaque,
		Width:     s.Camera.Width,
		Height:    s.Camera.Height,
		FrameRate: native.Rational{Num: s.Camera.FrameRate, Den: 1},
	}
}

// StillPort is the camera capture port preset.
func (s Settings) StillPort() camera.PortConfig {
	return camera.PortConfig{
		Encoding:  native.EncodingOpaque,
		Width:     s.Camera.Width,
		Height:    s.Camera.Height,
		FrameRate: native.Rational{Den: 1},
	}
}

// SensorConfig is the camera configuration record for these settings.
func (s Settings) SensorConfig() camera.Config {
	cfg := camera.DefaultConfig(s.Camera.Width, s.Camera.Height)
	if s.Camera.Width <= cfg.MaxPreviewVideoW && s.Camera.Height <= cfg.MaxPreviewVideoH {
		return cfg
	}
	cfg.MaxPreviewVideoW, cfg.MaxPreviewVideoH = s.Camera.Width, s.Camera.Height
	return cfg
}

// Apply writes the camera controls. The sensor number and configuration go
// first, so call it before the camera is enabled.
func (s Settings) Apply(cam *camera.Component) error {
	c := s.Camera
	if err := camera.Control.WriteMulti(cam,
		camera.CameraNum(c.Num),
		camera.CameraConfig(s.SensorConfig()),
		camera.Saturation(c.Saturation),
		camera.Sharpness(c.Sharpness),
		camera.Contrast(c.Contrast),
		camera.Brightness(c.Brightness),
		camera.ISO(c.ISO),
		camera.ShutterSpeed(c.ShutterSpeed),
		camera.ExposureCompensation(c.ExposureComp),
		camera.Exposure(c.Exposure),
		camera.Metering(c.Metering),
		camera.AWB(c.AWB),
		camera.ImageEffect(c.Effect),
	); err != nil {
		return err
	}
	if err := camera.Video.WriteMulti(cam,
		camera.Rotation[camera.VideoPort](c.Rotation),
		camera.Flip[camera.VideoPort](c.Flip),
	); err != nil {
		return err
	}
	return camera.Capture.WriteMulti(cam,
		camera.Rotation[camera.CapturePort](c.Rotation),
		camera.Flip[camera.CapturePort](c.Flip),
	)
}

// ApplyEncoder writes the H.264 controls to a configured video encoder.
func (s Settings) ApplyEncoder(venc *videoencoder.Component) error {
	if s.Encoder.FourCC() != native.EncodingH264 {
		return nil
	}
	return videoencoder.Output.WriteMulti(venc,
		videoencoder.IntraPeriod(s.Encoder.IntraPeriod),
		videoencoder.InlineHeader(true),
	)
}
