package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
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
		device   string
		server   string
		interval int
		verbose  bool
	)

	flag.StringVar(&device, "device", cfg.Device, "The sink to play to ('pulse' for the default sink)")
	flag.StringVar(&server, "server", cfg.Server, "The sound server address (empty for the default server)")
	flag.IntVar(&interval, "notify", 1000, "The progress report interval in milliseconds (0 to disable)")
	flag.BoolVar(&verbose, "v", false, "Enable debug logging")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <wav|mp3|ogg file>\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	pulseout.SetLogLevel(cfg.LogLevel)
	if verbose {
		pulseout.SetLogLevel(slog.LevelDebug)
	}

	path := flag.Arg(0)
	file, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	src, format, err := openSource(path, file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding file: %v\n", err)
		os.Exit(1)
	}

	states := make(chan pulseout.State, 16)
	progress := make(chan struct{}, 1)

	out := pulseout.NewOutput(device, format, &pulseout.Config{
		ApplicationName: cfg.AppName,
		Server:          server,
		NotifyInterval:  interval,
		Notifier: pulseout.NotifierFuncs{
			OnStateChanged: func(s pulseout.State) {
				select {
				case states <- s:
				default:
				}
			},
			OnNotify: func() {
				select {
				case progress <- struct{}{}:
				default:
				}
			},
		},
	})
	out.SetNotifyInterval(interval)

	fmt.Printf("Playing file: %s\n", path)
	fmt.Printf("Device: %s\n", device)
	fmt.Printf("Format: %s\n", format)

	start := time.Now()
	if err := out.Start(src); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting playback: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Buffer: %d bytes, period: %d bytes\n", out.BufferSize(), out.PeriodSize())

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

loop:
	for {
		select {
		case <-interrupt:
			fmt.Println("\nInterrupted.")

			break loop
		case <-progress:
			fmt.Printf("\r%s played", formatDuration(time.Duration(out.ProcessedMicroseconds())*time.Microsecond))
		case s := <-states:
			switch {
			case s == pulseout.StateStopped:
				if out.Error() != pulseout.NoError {
					fmt.Fprintf(os.Stderr, "\nPlayback failed: %s\n", out.Error())
					os.Exit(1)
				}

				break loop
			case s == pulseout.StateIdle && out.Error() == pulseout.UnderrunError:
				// The source is exhausted.
				break loop
			}
		}
	}

	processed := time.Duration(out.ProcessedMicroseconds()) * time.Microsecond
	out.Stop()

	fmt.Printf("\nPlayback finished in %v. (%s of audio played)\n", time.Since(start).Round(time.Millisecond), formatDuration(processed))
}

// openSource picks a decoder by file extension.
func openSource(path string, file *os.File) (io.ReadSeeker, pulseout.Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav", ".wave":
		return pulseout.NewWAVSource(file)
	case ".mp3":
		return pulseout.NewMP3Source(file)
	case ".ogg", ".oga":
		return pulseout.NewVorbisSource(file)
	default:
		return nil, pulseout.Format{}, fmt.Errorf("unsupported file type %q", ext)
	}
}

// formatDuration formats a time.Duration as MM:SS.ms.
func formatDuration(d time.Duration) string {
	millis := d.Milliseconds() % 1000
	seconds := int(d.Seconds()) % 60
	minutes := int(d.Minutes())

	return fmt.Sprintf("%02d:%02d.%03d", minutes, seconds, millis)
}
