package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/gen2brain/pulseout"
	"github.com/gen2brain/pulseout/cmd/internal/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	var (
		device string
		stream string
	)

	flag.StringVar(&device, "device", cfg.Device, "The device name.")
	flag.StringVar(&stream, "stream", "playback", "The stream direction ('playback' or 'capture').")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Displays the capabilities of a sound server device.")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
	}

	flag.Parse()

	var mode pulseout.Mode
	switch strings.ToLower(stream) {
	case "playback":
		mode = pulseout.ModeOutput
	case "capture":
		mode = pulseout.ModeInput
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid stream direction '%s'. Must be 'playback' or 'capture'.\n", stream)
		os.Exit(1)
	}

	socket := pulseout.ServerSocket()
	if socket == "" {
		socket = cfg.Server
	}

	fmt.Printf("Server:    %s (available: %t)\n", socket, pulseout.ServerAvailable())
	fmt.Printf("Devices:   %s\n", strings.Join(pulseout.AvailableDevices(mode), ", "))
	fmt.Println()

	info := pulseout.NewDeviceInfo(device, mode)
	if mode != pulseout.ModeOutput {
		fmt.Printf("Device %s has no %s support.\n", device, stream)

		return
	}

	fmt.Print(info)

	preferred := info.PreferredFormat()
	wire, err := pulseout.WireFormatOf(preferred)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error mapping preferred format: %v\n", err)
		os.Exit(1)
	}

	attr := pulseout.NewBufferAttr(preferred)
	fmt.Printf("  Wire format:  %s\n", wire)
	fmt.Printf("  Buffering:    %s\n", attr)
	fmt.Printf("  Buffer size:  %d bytes, period %d bytes\n", attr.BufferSize(), attr.PeriodSize())
}
