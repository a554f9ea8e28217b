package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/wav"

	"github.com/gen2brain/pulseout"
)

func main() {
	var help bool
	flag.BoolVar(&help, "help", false, "Show this help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <wav-file>\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "\nShows the WAV header and the stream format it is played with.")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		fmt.Fprintln(os.Stderr, "  --help      Show this help message")
	}

	flag.Parse()

	if help || flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	wavPath := flag.Arg(0)

	file, err := os.Open(wavPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		fmt.Fprintln(os.Stderr, "Invalid WAV file")
		os.Exit(1)
	}

	duration, err := decoder.Duration()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get duration: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Filename:           %s\n", wavPath)
	fmt.Printf("Channels:           %d\n", decoder.NumChans)
	fmt.Printf("Sample Rate:        %d Hz\n", decoder.SampleRate)
	fmt.Printf("Bits Per Sample:    %d\n", decoder.BitDepth)
	fmt.Printf("Duration:           %s\n", formatDuration(duration))

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to rewind file: %v\n", err)
		os.Exit(1)
	}

	_, format, err := pulseout.NewWAVSource(file)
	if err != nil {
		fmt.Printf("Stream Format:      none (%v)\n", err)

		return
	}

	wire, err := pulseout.WireFormatOf(format)
	if err != nil {
		fmt.Printf("Stream Format:      %s (%v)\n", format, err)

		return
	}

	info := pulseout.NewDeviceInfo(pulseout.DefaultDevice, pulseout.ModeOutput)

	fmt.Printf("Stream Format:      %s\n", format)
	fmt.Printf("Wire Format:        %s\n", wire)
	fmt.Printf("Buffering:          %s\n", pulseout.NewBufferAttr(format))
	fmt.Printf("Advertised:         %t (nearest %s)\n", info.IsFormatSupported(format), info.NearestFormat(format))
}

// formatDuration formats a time.Duration into a more readable HH:MM:SS.ms format.
func formatDuration(d time.Duration) string {
	nanos := d.Nanoseconds() % 1e9
	millis := nanos / 1e6

	seconds := int(d.Seconds()) % 60
	minutes := int(d.Minutes()) % 60
	hours := int(d.Hours())

	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}
