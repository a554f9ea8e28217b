package pulseout_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gen2brain/pulseout"
)

// writeWAV encodes samples into a temporary WAV file and returns it opened for reading.
func writeWAV(t *testing.T, rate, depth, channels int, samples []int) *os.File {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.wav")

	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, rate, depth, channels, 1)
	err = enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: depth,
	})
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	f, err = os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	return f
}

func TestWAVSource(t *testing.T) {
	t.Run("S16", func(t *testing.T) {
		f := writeWAV(t, 44100, 16, 2, []int{1, -1, 1000, -1000, 32767, -32768})

		src, format, err := pulseout.NewWAVSource(f)
		require.NoError(t, err)
		assert.Equal(t, cdFormat, format)

		data, err := io.ReadAll(src)
		require.NoError(t, err)
		assert.Equal(t, []byte{
			0x01, 0x00, 0xff, 0xff,
			0xe8, 0x03, 0x18, 0xfc,
			0xff, 0x7f, 0x00, 0x80,
		}, data)

		// Seeking back replays the same bytes.
		_, err = src.Seek(-4, io.SeekCurrent)
		require.NoError(t, err)

		tail := make([]byte, 4)
		_, err = io.ReadFull(src, tail)
		require.NoError(t, err)
		assert.Equal(t, data[8:], tail)
	})

	t.Run("U8", func(t *testing.T) {
		f := writeWAV(t, 8000, 8, 1, []int{0, 128, 255})

		src, format, err := pulseout.NewWAVSource(f)
		require.NoError(t, err)
		assert.Equal(t, pulseout.UnSignedInt, format.SampleType)
		assert.Equal(t, 8, format.SampleSize)
		assert.Equal(t, 1, format.Channels)
		assert.Equal(t, 8000, format.Rate)

		wire, err := pulseout.WireFormatOf(format)
		require.NoError(t, err)
		assert.Equal(t, pulseout.WireU8, wire)

		data, err := io.ReadAll(src)
		require.NoError(t, err)
		assert.Equal(t, []byte{0, 128, 255}, data)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, _, err := pulseout.NewWAVSource(bytes.NewReader([]byte("definitely not a wav file")))
		assert.Error(t, err)
	})
}

func TestCompressedSourcesRejectGarbage(t *testing.T) {
	_, _, err := pulseout.NewMP3Source(bytes.NewReader(nil))
	assert.Error(t, err)

	_, _, err = pulseout.NewVorbisSource(bytes.NewReader([]byte("OggS but not really")))
	assert.Error(t, err)
}

func TestToneSource(t *testing.T) {
	src, err := pulseout.NewToneSource(cdFormat, 440, 0)
	require.NoError(t, err)

	first := make([]byte, 4)
	_, err = io.ReadFull(src, first)
	require.NoError(t, err)

	// The left channel starts at zero, the right channel a quarter period ahead at full scale.
	assert.Equal(t, []byte{0x00, 0x00, 0xff, 0x7f}, first)

	// Reads of any size produce the same stream.
	_, err = src.Seek(0, io.SeekStart)
	require.NoError(t, err)

	whole := make([]byte, 64)
	_, err = io.ReadFull(src, whole)
	require.NoError(t, err)

	_, err = src.Seek(0, io.SeekStart)
	require.NoError(t, err)

	var pieces []byte
	for _, size := range []int{3, 5, 1, 7, 48} {
		buf := make([]byte, size)
		_, err = io.ReadFull(src, buf)
		require.NoError(t, err)
		pieces = append(pieces, buf...)
	}
	assert.Equal(t, whole, pieces)

	pos, err := src.Seek(-10, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(54), pos)

	_, err = src.Seek(0, io.SeekEnd)
	assert.Error(t, err, "An endless source has no end to seek to")

	_, err = src.Seek(-1, io.SeekStart)
	assert.Error(t, err)

	_, err = pulseout.NewToneSource(pulseout.Format{SampleType: pulseout.Float, SampleSize: 32, Channels: 2, Rate: 44100}, 440, 0)
	assert.ErrorIs(t, err, pulseout.ErrUnsupportedFormat)
}
