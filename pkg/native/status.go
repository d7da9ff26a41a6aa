package native

import "fmt"

// Status matches MMAL_STATUS_T. It implements error so that parameter shapes
// can return native rejections directly; StatusSuccess is never returned as
// an error, use Err for that.
type Status uint32

const (
	StatusSuccess        Status = 0
	StatusNoMemory       Status = 1  // MMAL_ENOMEM
	StatusNoSpace        Status = 2  // MMAL_ENOSPC
	StatusInvalid        Status = 3  // MMAL_EINVAL
	StatusNotImplemented Status = 4  // MMAL_ENOSYS
	StatusNotFound       Status = 5  // MMAL_ENOENT
	StatusNoDevice       Status = 6  // MMAL_ENXIO
	StatusIO             Status = 7  // MMAL_EIO
	StatusIllegalSeek    Status = 8  // MMAL_ESPIPE
	StatusCorrupt        Status = 9  // MMAL_ECORRUPT
	StatusNotReady       Status = 10 // MMAL_ENOTREADY
	StatusBadConfig      Status = 11 // MMAL_ECONFIG
	StatusIsConnected    Status = 12 // MMAL_EISCONN
	StatusNotConnected   Status = 13 // MMAL_ENOTCONN
	StatusAgain          Status = 14 // MMAL_EAGAIN
	StatusFault          Status = 15 // MMAL_EFAULT
)

var statusNames = [...]string{
	StatusSuccess:        "SUCCESS",
	StatusNoMemory:       "ENOMEM",
	StatusNoSpace:        "ENOSPC",
	StatusInvalid:        "EINVAL",
	StatusNotImplemented: "ENOSYS",
	StatusNotFound:       "ENOENT",
	StatusNoDevice:       "ENXIO",
	StatusIO:             "EIO",
	StatusIllegalSeek:    "ESPIPE",
	StatusCorrupt:        "ECORRUPT",
	StatusNotReady:       "ENOTREADY",
	StatusBadConfig:      "ECONFIG",
	StatusIsConnected:    "EISCONN",
	StatusNotConnected:   "ENOTCONN",
	StatusAgain:          "EAGAIN",
	StatusFault:          "EFAULT",
}

// String returns the mmal_status_to_string form of the status.
func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "UNKNOWN"
}

func (s Status) Error() string {
	return fmt.Sprintf("mmal status %s (%d)", s.String(), uint32(s))
}

// Err returns nil for StatusSuccess and s otherwise.
func (s Status) Err() error {
	if s == StatusSuccess {
		return nil
	}
	return s
}
