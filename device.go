package pulseout

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sys/unix"
)

// SampleRates lists the frequencies advertised by DeviceInfo.
var SampleRates = []int{8000, 11025, 22050, 44100, 48000}

// DeviceInfo describes the capabilities of an output device.
type DeviceInfo struct {
	name string
	mode Mode
}

// NewDeviceInfo returns the capabilities of the named device.
func NewDeviceInfo(name string, mode Mode) *DeviceInfo {
	return &DeviceInfo{name: name, mode: mode}
}

// AvailableDevices returns the device names for the given mode.
// Only playback is provided, through the server's default sink.
func AvailableDevices(mode Mode) []string {
	if mode != ModeOutput {
		return nil
	}

	return []string{DefaultDevice}
}

// DeviceName returns the name of the device.
func (d *DeviceInfo) DeviceName() string {
	return d.name
}

// String returns a human-readable representation of the DeviceInfo.
func (d *DeviceInfo) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Device: %s\n", d.name))
	sb.WriteString(fmt.Sprintf("  Codecs:       %s\n", strings.Join(d.SupportedCodecs(), ", ")))
	sb.WriteString(fmt.Sprintf("  Rates:        %v\n", d.SupportedRates()))
	sb.WriteString(fmt.Sprintf("  Channels:     %v\n", d.SupportedChannels()))
	sb.WriteString(fmt.Sprintf("  Sample sizes: %v\n", d.SupportedSampleSizes()))

	orders := make([]string, 0, 2)
	for _, o := range d.SupportedByteOrders() {
		if o == BigEndian {
			orders = append(orders, "big endian")
		} else {
			orders = append(orders, "little endian")
		}
	}
	sb.WriteString(fmt.Sprintf("  Byte orders:  %s\n", strings.Join(orders, ", ")))

	types := make([]string, 0, 1)
	for _, t := range d.SupportedSampleTypes() {
		types = append(types, SampleTypeNames[t])
	}
	sb.WriteString(fmt.Sprintf("  Sample types: %s\n", strings.Join(types, ", ")))
	sb.WriteString(fmt.Sprintf("  Preferred:    %s\n", d.PreferredFormat()))

	return sb.String()
}

// PreferredFormat returns CD-quality stereo, signed 16-bit little endian.
func (d *DeviceInfo) PreferredFormat() Format {
	return Format{
		SampleType: SignedInt,
		SampleSize: 16,
		ByteOrder:  LittleEndian,
		Channels:   2,
		Rate:       44100,
		Codec:      CodecPCM,
	}
}

// NearestFormat returns f if it is supported, the preferred format otherwise.
func (d *DeviceInfo) NearestFormat(f Format) Format {
	if d.IsFormatSupported(f) {
		return f
	}

	return d.PreferredFormat()
}

// IsFormatSupported reports whether every property of f is in the capability lists.
func (d *DeviceInfo) IsFormatSupported(f Format) bool {
	if d.mode != ModeOutput {
		return false
	}

	return slices.Contains(d.SupportedChannels(), f.Channels) &&
		slices.Contains(d.SupportedCodecs(), f.Codec) &&
		slices.Contains(d.SupportedRates(), f.Rate) &&
		slices.Contains(d.SupportedSampleSizes(), f.SampleSize) &&
		slices.Contains(d.SupportedByteOrders(), f.ByteOrder) &&
		slices.Contains(d.SupportedSampleTypes(), f.SampleType)
}

// SupportedCodecs returns the advertised codecs, only PCM.
func (d *DeviceInfo) SupportedCodecs() []string { return []string{CodecPCM} }

// SupportedRates returns the advertised sample rates.
func (d *DeviceInfo) SupportedRates() []int { return slices.Clone(SampleRates) }

// SupportedChannels returns the advertised channel counts.
func (d *DeviceInfo) SupportedChannels() []int { return []int{2} }

// SupportedSampleSizes returns the advertised sample sizes in bits.
func (d *DeviceInfo) SupportedSampleSizes() []int { return []int{16} }

// SupportedByteOrders returns the advertised byte orders.
func (d *DeviceInfo) SupportedByteOrders() []Endian {
	return []Endian{LittleEndian, BigEndian}
}

// SupportedSampleTypes returns the advertised sample types.
func (d *DeviceInfo) SupportedSampleTypes() []SampleType {
	return []SampleType{SignedInt}
}

// ServerSocket returns the path of the native protocol socket the client would
// connect to, or "" if the server is not reachable through a local socket.
func ServerSocket() string {
	if server := os.Getenv("PULSE_SERVER"); server != "" {
		if path, ok := strings.CutPrefix(server, "unix:"); ok {
			return path
		}

		if filepath.IsAbs(server) {
			return server
		}

		return ""
	}

	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "pulse", "native")
	}

	return fmt.Sprintf("/run/user/%d/pulse/native", unix.Getuid())
}

// ServerAvailable reports whether a local sound server socket is present and writable.
// Remote servers configured through PULSE_SERVER are assumed to be available.
func ServerAvailable() bool {
	if server := os.Getenv("PULSE_SERVER"); server != "" && ServerSocket() == "" {
		return true
	}

	return unix.Access(ServerSocket(), unix.W_OK) == nil
}
