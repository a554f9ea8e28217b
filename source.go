package pulseout

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// NewWAVSource decodes a PCM WAV file into a seekable pull-mode source.
// 8-bit files stay unsigned 8-bit; deeper integer files are reduced to signed 16-bit little endian.
func NewWAVSource(r io.ReadSeeker) (io.ReadSeeker, Format, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, Format{}, errors.New("invalid WAV file")
	}

	if decoder.WavAudioFormat != 1 {
		return nil, Format{}, fmt.Errorf("%w: WAV audio format %d", ErrUnsupportedFormat, decoder.WavAudioFormat)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, Format{}, fmt.Errorf("failed to decode WAV: %w", err)
	}

	format := formatOf(buf.Format)
	depth := int(decoder.BitDepth)

	var data []byte
	switch {
	case depth == 8:
		format.SampleType = UnSignedInt
		format.SampleSize = 8
		data = make([]byte, len(buf.Data))
		for i, s := range buf.Data {
			data[i] = byte(s)
		}
	case depth >= 16 && depth <= 32:
		data = int16Bytes(buf, depth)
	default:
		return nil, Format{}, fmt.Errorf("%w: %d-bit WAV", ErrUnsupportedFormat, depth)
	}

	return bytes.NewReader(data), format, nil
}

// formatOf returns the signed 16-bit little endian Format for a go-audio format.
func formatOf(f *audio.Format) Format {
	format := Format{
		SampleType: SignedInt,
		SampleSize: 16,
		ByteOrder:  LittleEndian,
		Codec:      CodecPCM,
	}

	if f != nil {
		format.Channels = f.NumChannels
		format.Rate = f.SampleRate
	}

	return format
}

// int16Bytes converts integer samples of the given bit depth to 16-bit little endian bytes.
func int16Bytes(buf *audio.IntBuffer, depth int) []byte {
	shift := depth - 16

	data := make([]byte, len(buf.Data)*2)
	for i, s := range buf.Data {
		s >>= shift
		// Clamp value to int16 range before casting.
		if s > math.MaxInt16 {
			s = math.MaxInt16
		} else if s < math.MinInt16 {
			s = math.MinInt16
		}
		binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(s)))
	}

	return data
}

// NewMP3Source decodes an MP3 stream. The decoder always produces signed 16-bit
// little endian stereo. Seeking requires r to implement io.Seeker.
func NewMP3Source(r io.Reader) (io.ReadSeeker, Format, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, Format{}, fmt.Errorf("failed to decode MP3: %w", err)
	}

	format := Format{
		SampleType: SignedInt,
		SampleSize: 16,
		ByteOrder:  LittleEndian,
		Channels:   2,
		Rate:       decoder.SampleRate(),
		Codec:      CodecPCM,
	}

	return decoder, format, nil
}

// vorbisSource converts decoded Ogg Vorbis audio to signed 16-bit little endian bytes.
type vorbisSource struct {
	dec     *oggvorbis.Reader
	frame   int // Bytes per frame.
	pos     int64
	samples []float32
	buf     []byte
	pending []byte // Unread part of buf.
}

// NewVorbisSource decodes an Ogg Vorbis stream. Seeking requires r to implement io.Seeker.
func NewVorbisSource(r io.Reader) (io.ReadSeeker, Format, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, Format{}, fmt.Errorf("failed to decode Ogg Vorbis: %w", err)
	}

	format := Format{
		SampleType: SignedInt,
		SampleSize: 16,
		ByteOrder:  LittleEndian,
		Channels:   dec.Channels(),
		Rate:       dec.SampleRate(),
		Codec:      CodecPCM,
	}

	return &vorbisSource{
		dec:     dec,
		frame:   format.BytesPerFrame(),
		samples: make([]float32, 4096*dec.Channels()),
	}, format, nil
}

func (v *vorbisSource) Read(p []byte) (int, error) {
	if len(v.pending) == 0 {
		if err := v.decode(); err != nil {
			return 0, err
		}
	}

	n := copy(p, v.pending)
	v.pending = v.pending[n:]
	v.pos += int64(n)

	return n, nil
}

// decode fills pending with the next block of samples.
func (v *vorbisSource) decode() error {
	n, err := v.dec.Read(v.samples)
	if n == 0 {
		if err == nil {
			err = io.EOF
		}

		return err
	}

	if cap(v.buf) < n*2 {
		v.buf = make([]byte, n*2)
	}
	v.buf = v.buf[:n*2]

	for i, s := range v.samples[:n] {
		binary.LittleEndian.PutUint16(v.buf[i*2:], uint16(floatToInt16(s)))
	}
	v.pending = v.buf

	return nil
}

func (v *vorbisSource) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = v.pos + offset
	case io.SeekEnd:
		target = v.dec.Length()*int64(v.frame) + offset
	default:
		return v.pos, fmt.Errorf("invalid whence %d", whence)
	}

	if target < 0 {
		return v.pos, fmt.Errorf("negative position %d", target)
	}

	if err := v.dec.SetPosition(target / int64(v.frame)); err != nil {
		return v.pos, fmt.Errorf("failed to seek: %w", err)
	}

	v.pending = nil
	v.pos = target - target%int64(v.frame)

	// Skip into the middle of a frame.
	if rem := int(target % int64(v.frame)); rem > 0 {
		if err := v.decode(); err != nil {
			return v.pos, err
		}
		v.pending = v.pending[rem:]
		v.pos = target
	}

	return v.pos, nil
}

func floatToInt16(s float32) int16 {
	if s >= 1 {
		return math.MaxInt16
	}
	if s <= -1 {
		return math.MinInt16
	}

	return int16(s * math.MaxInt16)
}

// toneSource generates an endless sine wave. Samples are computed from the
// byte position, so seeking is free.
type toneSource struct {
	format  Format
	wire    WireFormat
	frame   int
	step    float64 // Phase increment per frame.
	gain    float64
	phases  []float64
	pos     int64
	scratch []byte
}

// NewToneSource returns a sine wave source of the given frequency in Hz.
// levelDB is the gain in decibels, 0 for full scale. Channels are phase shifted
// against each other so a stereo signal is not mono.
func NewToneSource(f Format, frequency, levelDB float64) (io.ReadSeeker, error) {
	wire, err := WireFormatOf(f)
	if err != nil {
		return nil, err
	}

	t := &toneSource{
		format:  f,
		wire:    wire,
		frame:   f.BytesPerFrame(),
		step:    frequency * 2 * math.Pi / float64(f.Rate),
		gain:    math.Pow(10, levelDB/20.0),
		phases:  make([]float64, f.Channels),
		scratch: make([]byte, f.BytesPerFrame()),
	}

	phaseStep := 0.0
	if f.Channels > 1 {
		phaseStep = math.Pi / 2 / float64(f.Channels-1)
	}

	for i := range t.phases {
		t.phases[i] = float64(i) * phaseStep
	}

	return t, nil
}

func (t *toneSource) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		index := t.pos / int64(t.frame)
		offset := int(t.pos % int64(t.frame))

		t.render(index)
		c := copy(p[n:], t.scratch[offset:])
		n += c
		t.pos += int64(c)
	}

	return n, nil
}

// render writes frame number index into scratch.
func (t *toneSource) render(index int64) {
	size := t.format.SampleSize / 8

	for c, phase := range t.phases {
		sine := math.Sin(phase+t.step*float64(index)) * t.gain
		sample := t.scratch[c*size:]

		switch t.wire {
		case WireU8:
			sample[0] = byte(128 + int(floatToInt16(float32(sine))>>8))
		case WireS16BE:
			binary.BigEndian.PutUint16(sample, uint16(floatToInt16(float32(sine))))
		default:
			binary.LittleEndian.PutUint16(sample, uint16(floatToInt16(float32(sine))))
		}
	}
}

func (t *toneSource) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = t.pos + offset
	default:
		return t.pos, fmt.Errorf("invalid whence %d", whence)
	}

	if target < 0 {
		return t.pos, fmt.Errorf("negative position %d", target)
	}
	t.pos = target

	return t.pos, nil
}
