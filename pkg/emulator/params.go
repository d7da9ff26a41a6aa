package emulator

import (
	"bytes"
	"encoding/binary"

	"github.com/thesyncim/gommal/pkg/native"
)

// cameraInfoBody mirrors MMAL_PARAMETER_CAMERA_INFO_T without its header.
type cameraInfoBody struct {
	NumCameras uint32
	NumFlashes uint32
	Cameras    [4]struct {
		PortID      uint32
		MaxWidth    uint32
		MaxHeight   uint32
		LensPresent uint32
		Name        [16]byte
	}
	Flashes [2]struct {
		FlashType uint32
	}
}

func encodeBody(v any) []byte {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// setDefaults installs the parameter values a freshly created component
// reports before anything is written.
func (e *Emulator) setDefaults(c *component) {
	switch c.kind {
	case kindCamera:
		ctl := c.control.params
		for _, id := range []native.ParamID{native.ParamSaturation, native.ParamSharpness, native.ParamContrast} {
			ctl[id] = encodeBody(native.Rational{Num: 0, Den: 100})
		}
		ctl[native.ParamBrightness] = encodeBody(native.Rational{Num: 50, Den: 100})
		for _, id := range []native.ParamID{
			native.ParamISO, native.ParamShutterSpeed, native.ParamRotation, native.ParamMirror,
			native.ParamExpMeteringMode, native.ParamImageEffect, native.ParamVideoStabilisation,
			native.ParamDynamicRangeCompression,
		} {
			ctl[id] = encodeBody(uint32(0))
		}
		ctl[native.ParamExposureComp] = encodeBody(int32(0))
		ctl[native.ParamCameraNum] = encodeBody(int32(0))
		ctl[native.ParamExposureMode] = encodeBody(uint32(1))
		ctl[native.ParamAWBMode] = encodeBody(uint32(1))
		for _, p := range c.outputs {
			p.params[native.ParamCapture] = encodeBody(native.False)
		}
	case kindImageEncoder:
		out := c.outputs[0].params
		out[native.ParamJPEGQFactor] = encodeBody(uint32(85))
		out[native.ParamJPEGRestartInterval] = encodeBody(uint32(0))
	case kindVideoEncoder:
		out := c.outputs[0].params
		out[native.ParamIntraPeriod] = encodeBody(uint32(60))
		out[native.ParamVideoInlineHeader] = encodeBody(native.False)
		out[native.ParamVideoRequestIFrame] = encodeBody(native.False)
		out[native.ParamVideoBitRate] = encodeBody(uint32(0))
		out[native.ParamProfile] = encodeBody([2]uint32{25, 28}) // baseline, level 4
	case kindCameraInfo:
		var info cameraInfoBody
		if !e.cfg.NoSensor {
			info.NumCameras = 1
			info.Cameras[0].MaxWidth = e.cfg.SensorWidth
			info.Cameras[0].MaxHeight = e.cfg.SensorHeight
			info.Cameras[0].LensPresent = native.True
			copy(info.Cameras[0].Name[:15], e.cfg.CameraName)
		}
		c.control.params[native.ParamCameraInfo] = encodeBody(&info)
	}
}

var readOnly = map[native.ParamID]bool{
	native.ParamCameraInfo:         true,
	native.ParamSupportedEncodings: true,
	native.ParamSupportedProfiles:  true,
}

func (e *Emulator) PortParameterSet(h native.Port, record []byte) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.fault(OpParameterSet); ok {
		return st
	}
	id, st := checkRecord(record)
	if st != native.StatusSuccess {
		return st
	}
	if readOnly[id] {
		return native.StatusInvalid
	}
	p := e.port(h)
	body := bytes.Clone(record[native.ParamHeaderSize:])
	p.params[id] = body
	e.applyParamLocked(p, id, body)
	return native.StatusSuccess
}

func (e *Emulator) PortParameterGet(h native.Port, record []byte) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.fault(OpParameterGet); ok {
		return st
	}
	id, st := checkRecord(record)
	if st != native.StatusSuccess {
		return st
	}
	body, ok := e.port(h).params[id]
	if !ok {
		return native.StatusNotImplemented
	}
	dst := record[native.ParamHeaderSize:]
	if len(body) > len(dst) {
		return native.StatusNoSpace
	}
	clear(dst[copy(dst, body):])
	return native.StatusSuccess
}

func checkRecord(record []byte) (native.ParamID, native.Status) {
	if len(record) < native.ParamHeaderSize {
		return 0, native.StatusInvalid
	}
	id := native.ParamID(binary.LittleEndian.Uint32(record[0:]))
	if size := binary.LittleEndian.Uint32(record[4:]); int(size) != len(record) {
		return 0, native.StatusInvalid
	}
	return id, native.StatusSuccess
}

// applyParamLocked gives the parameters with side effects their effect.
func (e *Emulator) applyParamLocked(p *port, id native.ParamID, body []byte) {
	switch id {
	case native.ParamCapture:
		if p.comp.kind != kindCamera || p.typ != native.PortTypeOutput || len(body) < 4 {
			return
		}
		if binary.LittleEndian.Uint32(body) != native.False {
			e.startCaptureLocked(p)
		} else {
			p.stopCapture()
		}
	case native.ParamVideoRequestIFrame:
		if p.comp.kind != kindVideoEncoder || len(body) < 4 || binary.LittleEndian.Uint32(body) == native.False {
			return
		}
		p.forceIDR = true
		p.params[id] = encodeBody(native.False)
	case native.ParamVideoBitRate:
		if p.typ == native.PortTypeOutput && len(body) >= 4 {
			p.format.Bitrate = binary.LittleEndian.Uint32(body)
		}
	}
}

// Param returns the stored body of parameter id on port h.
func (e *Emulator) Param(h native.Port, id native.ParamID) ([]byte, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	body, ok := e.port(h).params[id]
	return bytes.Clone(body), ok
}

// SetParam stores a raw body for parameter id on port h without any side
// effect, e.g. to plant a value the core must reject.
func (e *Emulator) SetParam(h native.Port, id native.ParamID, body []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.port(h).params[id] = bytes.Clone(body)
}
