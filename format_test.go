package pulseout_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gen2brain/pulseout"
)

func TestWireFormatOf(t *testing.T) {
	s16 := func(order pulseout.Endian) pulseout.Format {
		f := cdFormat
		f.ByteOrder = order

		return f
	}

	testCases := []struct {
		name   string
		format pulseout.Format
		want   pulseout.WireFormat
		err    bool
	}{
		{"S16LE", s16(pulseout.LittleEndian), pulseout.WireS16LE, false},
		{"S16BE", s16(pulseout.BigEndian), pulseout.WireS16BE, false},
		{"U8", pulseout.Format{SampleType: pulseout.UnSignedInt, SampleSize: 8, Channels: 1, Rate: 8000}, pulseout.WireU8, false},
		{"U8IgnoresByteOrder", pulseout.Format{SampleType: pulseout.UnSignedInt, SampleSize: 8, ByteOrder: pulseout.BigEndian, Channels: 2, Rate: 22050}, pulseout.WireU8, false},
		{"S8", pulseout.Format{SampleType: pulseout.SignedInt, SampleSize: 8, Channels: 2, Rate: 44100}, pulseout.WireInvalid, true},
		{"U16", pulseout.Format{SampleType: pulseout.UnSignedInt, SampleSize: 16, Channels: 2, Rate: 44100}, pulseout.WireInvalid, true},
		{"S24", pulseout.Format{SampleType: pulseout.SignedInt, SampleSize: 24, Channels: 2, Rate: 44100}, pulseout.WireInvalid, true},
		{"Float32", pulseout.Format{SampleType: pulseout.Float, SampleSize: 32, Channels: 2, Rate: 44100}, pulseout.WireInvalid, true},
		{"UnknownType", pulseout.Format{SampleSize: 16, Channels: 2, Rate: 44100}, pulseout.WireInvalid, true},
		{"NoChannels", pulseout.Format{SampleType: pulseout.SignedInt, SampleSize: 16, Rate: 44100}, pulseout.WireInvalid, true},
		{"NoRate", pulseout.Format{SampleType: pulseout.SignedInt, SampleSize: 16, Channels: 2}, pulseout.WireInvalid, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			wire, err := pulseout.WireFormatOf(tc.format)
			assert.Equal(t, tc.want, wire)

			if tc.err {
				assert.ErrorIs(t, err, pulseout.ErrUnsupportedFormat)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWireFormatString(t *testing.T) {
	assert.Equal(t, "s16le", pulseout.WireS16LE.String())
	assert.Equal(t, "s16be", pulseout.WireS16BE.String())
	assert.Equal(t, "u8", pulseout.WireU8.String())
	assert.Equal(t, "WireFormat(7)", pulseout.WireFormat(7).String())
}

func TestFormatSupported(t *testing.T) {
	assert.True(t, cdFormat.Supported())
	assert.True(t, pulseout.Format{SampleType: pulseout.UnSignedInt, SampleSize: 8}.Supported())
	assert.False(t, pulseout.Format{SampleType: pulseout.Float, SampleSize: 32}.Supported())
	assert.False(t, pulseout.Format{SampleType: pulseout.SignedInt, SampleSize: 32}.Supported())
}

func TestFormatConversions(t *testing.T) {
	assert.Equal(t, 4, cdFormat.BytesPerFrame())
	assert.Equal(t, 176400, cdFormat.BytesPerSecond())
	assert.Equal(t, "s16le 44100Hz 2ch", cdFormat.String())

	// 100 ms at 44100 Hz is 4410 frames.
	assert.Equal(t, 17640, cdFormat.DurationToBytes(100*time.Millisecond))
	assert.Equal(t, int64(100000), cdFormat.BytesToMicroseconds(17640))
	assert.Equal(t, int64(1000000), cdFormat.BytesToMicroseconds(176400))

	var empty pulseout.Format
	assert.Zero(t, empty.BytesPerFrame())
	assert.Zero(t, empty.BytesPerSecond())
	assert.Zero(t, empty.DurationToBytes(time.Second))
	assert.Zero(t, empty.BytesToMicroseconds(1000))
}

func TestNewBufferAttr(t *testing.T) {
	testCases := []struct {
		name   string
		format pulseout.Format
		attr   pulseout.BufferAttr
		buffer int
		period int
	}{
		{
			name:   "CD",
			format: cdFormat,
			attr:   pulseout.BufferAttr{MaxLength: 44100, TargetLength: 29400, MinRequest: 588, Prebuffer: 7203, FragmentSize: 588},
			buffer: 88200,
			period: 17640,
		},
		{
			name:   "DAT",
			format: pulseout.Format{SampleType: pulseout.SignedInt, SampleSize: 16, Channels: 2, Rate: 48000},
			attr:   pulseout.BufferAttr{MaxLength: 48000, TargetLength: 32000, MinRequest: 640, Prebuffer: 7840, FragmentSize: 640},
			buffer: 96000,
			period: 19200,
		},
		{
			name:   "TelephoneU8",
			format: pulseout.Format{SampleType: pulseout.UnSignedInt, SampleSize: 8, Channels: 1, Rate: 8000},
			attr:   pulseout.BufferAttr{MaxLength: 1999, TargetLength: 1333, MinRequest: 26, Prebuffer: 326, FragmentSize: 26},
			buffer: 3999,
			period: 799,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			attr := pulseout.NewBufferAttr(tc.format)
			require.Equal(t, tc.attr, attr)
			assert.Equal(t, tc.buffer, attr.BufferSize())
			assert.Equal(t, tc.period, attr.PeriodSize())
			assert.LessOrEqual(t, attr.MinRequest, attr.TargetLength)
			assert.LessOrEqual(t, attr.TargetLength, attr.MaxLength)
		})
	}
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "stopped", pulseout.StateStopped.String())
	assert.Equal(t, "active", pulseout.StateActive.String())
	assert.Equal(t, "idle", pulseout.StateIdle.String())
	assert.Equal(t, "suspended", pulseout.StateSuspended.String())
	assert.Equal(t, "underrun", pulseout.UnderrunError.String())
	assert.Equal(t, "open error", pulseout.OpenError.String())
}
