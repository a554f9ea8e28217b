// Package pulseout provides a PulseAudio playback backend with a device-independent state machine and timing model.
package pulseout

import (
	"errors"
	"time"
)

// State defines the externally visible state of an Output.
type State int32

const (
	StateStopped   State = 0 // No stream is open. Initial and terminal state.
	StateActive    State = 1 // Audio data is flowing to the server.
	StateIdle      State = 2 // The stream is open but starved of data.
	StateSuspended State = 3 // The stream was paused and the connection released.
)

// String returns a human-readable name of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateActive:
		return "active"
	case StateIdle:
		return "idle"
	case StateSuspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// ErrorKind defines the last error observed by an Output.
// It always changes together with a state notification.
type ErrorKind int32

const (
	NoError       ErrorKind = 0 // No error occurred.
	OpenError     ErrorKind = 1 // The connection could not be opened or the format is unsupported.
	IOError       ErrorKind = 2 // A write to an open connection failed.
	UnderrunError ErrorKind = 3 // The data source did not supply data fast enough.
)

// String returns a human-readable name of the error kind.
func (e ErrorKind) String() string {
	switch e {
	case NoError:
		return "no error"
	case OpenError:
		return "open error"
	case IOError:
		return "io error"
	case UnderrunError:
		return "underrun"
	default:
		return "unknown"
	}
}

// Mode defines the direction of a device.
type Mode int32

const (
	// ModeOutput selects playback devices.
	ModeOutput Mode = 0
	// ModeInput selects capture devices. No capture devices are provided.
	ModeInput Mode = 1
)

// Timing constants of the feed loop.
const (
	// TickPeriod is the interval between two feed ticks.
	TickPeriod = 20 * time.Millisecond
	// StallTimeout is the time without a write after which a push-mode stream is considered starved.
	StallTimeout = 40 * time.Millisecond
	// DefaultNotifyInterval is the default progress notification interval in milliseconds.
	DefaultNotifyInterval = 1000
)

// sinkRetries is the number of zero-length writes the push sink tolerates before giving up.
const sinkRetries = 10

var (
	// ErrUnsupportedFormat indicates a format the transport cannot carry.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrNotOpen indicates an operation that requires an open stream.
	ErrNotOpen = errors.New("stream not open")

	// ErrClosed indicates the connection was already closed.
	ErrClosed = errors.New("connection closed")

	// ErrShortWrite indicates the push sink accepted fewer bytes than requested.
	ErrShortWrite = errors.New("short write")
)
