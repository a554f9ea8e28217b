package pulseout

import (
	"fmt"
)

// BufferAttr holds the server-side buffering attributes of a playback stream, in bytes.
type BufferAttr struct {
	MaxLength    uint32
	TargetLength uint32
	MinRequest   uint32
	Prebuffer    uint32
	FragmentSize uint32
}

// NewBufferAttr derives the buffering attributes from the stream format.
// The attributes are not configurable; they bound the output latency while
// tolerating the scheduling jitter of a 20 ms feed tick.
func NewBufferAttr(f Format) BufferAttr {
	tlength := uint32(f.BytesPerSecond() / 6)
	minreq := tlength / 50

	return BufferAttr{
		MaxLength:    tlength * 3 / 2,
		TargetLength: tlength,
		MinRequest:   minreq,
		Prebuffer:    (tlength - minreq) / 4,
		FragmentSize: tlength / 50,
	}
}

// BufferSize returns the size of the locally tracked buffer in bytes.
func (a BufferAttr) BufferSize() int {
	return int(a.TargetLength) * 3
}

// PeriodSize returns the number of bytes the feed loop moves per tick.
func (a BufferAttr) PeriodSize() int {
	return a.BufferSize() / 5
}

// String returns a human-readable representation of the attributes.
func (a BufferAttr) String() string {
	return fmt.Sprintf("maxlength=%d tlength=%d minreq=%d prebuf=%d fragsize=%d",
		a.MaxLength, a.TargetLength, a.MinRequest, a.Prebuffer, a.FragmentSize)
}

// Params describes the playback connection to open.
type Params struct {
	Device          string
	ApplicationName string
	Server          string
	Wire            WireFormat
	Rate            int
	Channels        int
	Attr            BufferAttr
}

// Transport opens playback connections to a sound server.
type Transport interface {
	Open(params Params) (Conn, error)
}

// Conn is an open playback connection.
//
// Write blocks until the server accepted the data and returns the number of bytes taken.
// Drain blocks until all written data was played.
// Close releases the connection; it must be safe to call at any point and more than once.
type Conn interface {
	Write(p []byte) (int, error)
	Drain() error
	Close() error
}

// drainAndClose flushes outstanding audio and releases the connection.
func drainAndClose(c Conn) error {
	if c == nil {
		return nil
	}

	drainErr := c.Drain()
	if err := c.Close(); err != nil {
		return err
	}

	return drainErr
}
