package pulseout_test

import (
	"fmt"
	"os"
	"testing"

	"github.com/gen2brain/pulseout"
)

// serverAvailable reports whether a sound server socket was found. Tests that
// need a real server are skipped without one; everything else runs against fakes.
var serverAvailable bool

// TestMain checks for a sound server before running tests.
func TestMain(m *testing.M) {
	serverAvailable = pulseout.ServerAvailable()
	if !serverAvailable {
		fmt.Println("Sound server not found. Skipping server tests.")
		fmt.Println("Please start PulseAudio (or pipewire-pulse), or set PULSE_SERVER.")
	}

	os.Exit(m.Run())
}

func requireServer(t *testing.T) {
	t.Helper()

	if !serverAvailable {
		t.Skip("sound server not available")
	}
}
