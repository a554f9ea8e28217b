package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

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
		device    string
		server    string
		frequency float64
		level     float64
		duration  time.Duration
		rate      int
		channels  int
		bigEndian bool
		verbose   bool
	)

	flag.StringVar(&device, "device", cfg.Device, "The sink to play to ('pulse' for the default sink)")
	flag.StringVar(&server, "server", cfg.Server, "The sound server address (empty for the default server)")
	flag.Float64Var(&frequency, "freq", 440, "The tone frequency in Hz")
	flag.Float64Var(&level, "level", -20, "The tone level in dB (0 for full scale)")
	flag.DurationVar(&duration, "duration", 3*time.Second, "How long to play")
	flag.IntVar(&rate, "rate", 44100, "The amount of frames per second")
	flag.IntVar(&channels, "channels", 2, "The amount of channels per frame (1 or 2)")
	flag.BoolVar(&bigEndian, "be", false, "Send big endian samples")
	flag.BoolVar(&verbose, "v", false, "Enable debug logging")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Plays a sine tone by writing to the stream (push mode).")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
	}

	flag.Parse()

	pulseout.SetLogLevel(cfg.LogLevel)
	if verbose {
		pulseout.SetLogLevel(slog.LevelDebug)
	}

	format := pulseout.Format{
		SampleType: pulseout.SignedInt,
		SampleSize: 16,
		ByteOrder:  pulseout.LittleEndian,
		Channels:   channels,
		Rate:       rate,
		Codec:      pulseout.CodecPCM,
	}
	if bigEndian {
		format.ByteOrder = pulseout.BigEndian
	}

	tone, err := pulseout.NewToneSource(format, frequency, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating tone: %v\n", err)
		os.Exit(1)
	}

	out := pulseout.NewOutput(device, format, &pulseout.Config{
		ApplicationName: cfg.AppName,
		Server:          server,
	})

	w, err := out.StartPush()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting playback: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Playing %.1f Hz at %.1f dB for %v\n", frequency, level, duration)
	fmt.Printf("Device: %s, format: %s\n", device, format)
	fmt.Printf("Buffer: %d bytes, period: %d bytes\n", out.BufferSize(), out.PeriodSize())

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	frame := format.BytesPerFrame()
	buf := make([]byte, out.PeriodSize())
	ticker := time.NewTicker(pulseout.TickPeriod / 2)
	defer ticker.Stop()

	deadline := time.After(duration)

loop:
	for {
		select {
		case <-interrupt:
			fmt.Println("Interrupted.")

			break loop
		case <-deadline:
			break loop
		case <-ticker.C:
			// Only write whole frames that fit into the free buffer space.
			n := min(out.BytesFree(), len(buf))
			n -= n % frame
			if n == 0 {
				continue
			}

			if _, err := io.ReadFull(tone, buf[:n]); err != nil {
				fmt.Fprintf(os.Stderr, "Error generating tone: %v\n", err)

				break loop
			}

			if _, err := w.Write(buf[:n]); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing to stream: %v (%s)\n", err, out.Error())

				break loop
			}
		}
	}

	processed := time.Duration(out.ProcessedMicroseconds()) * time.Microsecond
	elapsed := time.Duration(out.ElapsedMicroseconds()) * time.Microsecond
	out.Stop()

	fmt.Printf("Wrote %v of audio in %v.\n", processed.Round(time.Millisecond), elapsed.Round(time.Millisecond))
}
