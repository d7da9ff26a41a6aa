// Package camerainfo is the camera-info stage. Its only use is reading the
// attached sensors and flashes from the control port.
package camerainfo

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/thesyncim/gommal/pkg/mmal"
	"github.com/thesyncim/gommal/pkg/native"
)

type Entity struct{}

func (Entity) Name() string          { return "camera-info" }
func (Entity) ComponentName() string { return native.ComponentCameraInfo }

type Component = mmal.Component[Entity]

func Create(b native.Backend) (*Component, error) {
	return mmal.Create[Entity](b)
}

type ControlPort struct{}

func (ControlPort) Resolve(c *Component) native.Port { return c.Control() }
func (ControlPort) Name() string                     { return "camera-info control port" }

var Control mmal.Port[Entity, ControlPort]

const (
	MaxCameras = 4
	MaxFlashes = 2
	nameLen    = 16
)

// Camera describes one attached sensor.
type Camera struct {
	PortID      uint32
	MaxWidth    uint32
	MaxHeight   uint32
	LensPresent bool
	Name        string
}

// FlashType is MMAL_PARAMETER_CAMERA_INFO_FLASH_TYPE_T.
type FlashType uint32

const (
	FlashXenon FlashType = iota
	FlashLED
	FlashOther
)

var FlashTypes = mmal.SequentialEnumTable[FlashType]("FlashType", "xenon", "led", "other")

func (v FlashType) String() string                { return FlashTypes.String(v) }
func (v FlashType) MarshalText() ([]byte, error)  { return FlashTypes.MarshalText(v) }
func (v *FlashType) UnmarshalText(b []byte) error { return FlashTypes.UnmarshalText(v, b) }

// Info is MMAL_PARAMETER_CAMERA_INFO_T.
type Info struct {
	Cameras []Camera
	Flashes []FlashType
}

type nativeCamera struct {
	PortID      uint32
	MaxWidth    uint32
	MaxHeight   uint32
	LensPresent uint32
	Name        [nameLen]byte
}

type nativeInfo struct {
	NumCameras uint32
	NumFlashes uint32
	Cameras    [MaxCameras]nativeCamera
	Flashes    [MaxFlashes]uint32
}

func encodeInfo(in Info) nativeInfo {
	var n nativeInfo
	n.NumCameras = uint32(min(len(in.Cameras), MaxCameras))
	for i := range n.NumCameras {
		c := in.Cameras[i]
		n.Cameras[i] = nativeCamera{
			PortID:      c.PortID,
			MaxWidth:    c.MaxWidth,
			MaxHeight:   c.MaxHeight,
			LensPresent: mmal.NativeBool(c.LensPresent),
		}
		copy(n.Cameras[i].Name[:nameLen-1], c.Name)
	}
	n.NumFlashes = uint32(min(len(in.Flashes), MaxFlashes))
	for i := range n.NumFlashes {
		n.Flashes[i] = uint32(in.Flashes[i])
	}
	return n
}

func decodeInfo(n nativeInfo) (Info, error) {
	if n.NumCameras > MaxCameras {
		return Info{}, fmt.Errorf("camera info reports %d cameras, at most %d supported", n.NumCameras, MaxCameras)
	}
	if n.NumFlashes > MaxFlashes {
		return Info{}, fmt.Errorf("camera info reports %d flashes, at most %d supported", n.NumFlashes, MaxFlashes)
	}
	var info Info
	for _, c := range n.Cameras[:n.NumCameras] {
		name := c.Name[:]
		if i := bytes.IndexByte(name, 0); i >= 0 {
			name = name[:i]
		}
		info.Cameras = append(info.Cameras, Camera{
			PortID:      c.PortID,
			MaxWidth:    c.MaxWidth,
			MaxHeight:   c.MaxHeight,
			LensPresent: mmal.GoBool(c.LensPresent),
			Name:        string(name),
		})
	}
	for _, f := range n.Flashes[:n.NumFlashes] {
		t, err := FlashTypes.FromNative(f)
		if err != nil {
			return Info{}, err
		}
		info.Flashes = append(info.Flashes, t)
	}
	return info, nil
}

type PCameraInfo = mmal.Param[Entity, ControlPort, *mmal.Struct[Info, nativeInfo]]

// CameraInfo is the read-only sensor inventory.
func CameraInfo() PCameraInfo {
	return mmal.NewParam[Entity, ControlPort](
		mmal.NewStruct(native.ParamCameraInfo, Info{}, encodeInfo, decodeInfo))
}

// Read creates a camera-info component, reads the inventory and releases
// the component.
func Read(b native.Backend) (Info, error) {
	c, err := Create(b)
	if err != nil {
		return Info{}, err
	}
	defer c.Release()

	p := CameraInfo()
	if err := Control.Read(c, p); err != nil {
		return Info{}, err
	}
	return p.Shape().Value, nil
}

// ErrNoCamera is returned by Select when no sensor is attached.
var ErrNoCamera = errors.New("camera-info: no camera detected")

// Select returns the first attached sensor.
func Select(b native.Backend) (Camera, error) {
	info, err := Read(b)
	if err != nil {
		return Camera{}, err
	}
	if len(info.Cameras) == 0 {
		return Camera{}, ErrNoCamera
	}
	return info.Cameras[0], nil
}
