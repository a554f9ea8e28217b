package pulseout

import (
	"fmt"
	"time"
)

// SampleType defines how a sample value is encoded.
type SampleType int32

const (
	SampleTypeUnknown SampleType = 0
	SignedInt         SampleType = 1
	UnSignedInt       SampleType = 2
	Float             SampleType = 3
)

// Endian defines the byte order of multi-byte samples.
type Endian int32

const (
	LittleEndian Endian = 0
	BigEndian    Endian = 1
)

// CodecPCM is the only codec carried by the backend.
const CodecPCM = "audio/pcm"

// SampleTypeNames provides human-readable names for sample types.
var SampleTypeNames = map[SampleType]string{
	SampleTypeUnknown: "unknown",
	SignedInt:         "signed",
	UnSignedInt:       "unsigned",
	Float:             "float",
}

// Format describes an interleaved PCM stream as requested by the host.
type Format struct {
	SampleType SampleType
	SampleSize int // Bits per sample.
	ByteOrder  Endian
	Channels   int
	Rate       int // Frames per second.
	Codec      string
}

// String returns a compact description such as "s16le 44100Hz 2ch".
func (f Format) String() string {
	order := "le"
	if f.ByteOrder == BigEndian {
		order = "be"
	}

	var kind string
	switch f.SampleType {
	case SignedInt:
		kind = "s"
	case UnSignedInt:
		kind = "u"
	case Float:
		kind = "f"
	default:
		kind = "?"
	}

	return fmt.Sprintf("%s%d%s %dHz %dch", kind, f.SampleSize, order, f.Rate, f.Channels)
}

// Supported reports whether the sample encoding is one the transport accepts:
// signed 16-bit or unsigned 8-bit.
func (f Format) Supported() bool {
	switch {
	case f.SampleType == SignedInt && f.SampleSize == 16:
		return true
	case f.SampleType == UnSignedInt && f.SampleSize == 8:
		return true
	default:
		return false
	}
}

// BytesPerFrame returns the size of a single frame in bytes.
func (f Format) BytesPerFrame() int {
	if f.SampleSize <= 0 || f.Channels <= 0 {
		return 0
	}

	return f.Channels * (f.SampleSize / 8)
}

// BytesPerSecond returns the byte rate of the stream.
func (f Format) BytesPerSecond() int {
	if f.Rate <= 0 {
		return 0
	}

	return f.BytesPerFrame() * f.Rate
}

// DurationToBytes converts a duration to a frame-aligned number of bytes.
func (f Format) DurationToBytes(d time.Duration) int {
	frame := f.BytesPerFrame()
	if frame == 0 || f.Rate <= 0 {
		return 0
	}

	frames := int64(d) * int64(f.Rate) / int64(time.Second)

	return int(frames) * frame
}

// BytesToMicroseconds converts a byte count to the playback time it represents.
func (f Format) BytesToMicroseconds(n int64) int64 {
	bps := int64(f.BytesPerSecond())
	if bps == 0 {
		return 0
	}

	return n * 1000000 / bps
}

// WireFormat is the sample format handed to the sound server.
// Values follow the PulseAudio protocol numbering.
type WireFormat byte

const (
	WireU8      WireFormat = 0
	WireS16LE   WireFormat = 3
	WireS16BE   WireFormat = 4
	WireInvalid WireFormat = 0xff
)

// WireFormatNames provides human-readable names for wire formats.
var WireFormatNames = map[WireFormat]string{
	WireU8:      "u8",
	WireS16LE:   "s16le",
	WireS16BE:   "s16be",
	WireInvalid: "invalid",
}

// String returns the PulseAudio name of the wire format.
func (w WireFormat) String() string {
	if name, ok := WireFormatNames[w]; ok {
		return name
	}

	return fmt.Sprintf("WireFormat(%d)", byte(w))
}

// WireFormatOf maps a host format to the wire format used by the transport.
// Unsupported encodings and formats without channels or rate fail with ErrUnsupportedFormat.
func WireFormatOf(f Format) (WireFormat, error) {
	if f.Channels <= 0 || f.Rate <= 0 {
		return WireInvalid, fmt.Errorf("%w: %d channels at %d Hz", ErrUnsupportedFormat, f.Channels, f.Rate)
	}

	switch {
	case f.SampleType == SignedInt && f.SampleSize == 16:
		if f.ByteOrder == BigEndian {
			return WireS16BE, nil
		}

		return WireS16LE, nil
	case f.SampleType == UnSignedInt && f.SampleSize == 8:
		return WireU8, nil
	}

	return WireInvalid, fmt.Errorf("%w: %s %d-bit", ErrUnsupportedFormat, SampleTypeNames[f.SampleType], f.SampleSize)
}
