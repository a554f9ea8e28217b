package pulseout_test

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gen2brain/pulseout"
)

var (
	// cdFormat is the preferred format: 44100 Hz, stereo, signed 16-bit little endian.
	cdFormat = pulseout.Format{
		SampleType: pulseout.SignedInt,
		SampleSize: 16,
		ByteOrder:  pulseout.LittleEndian,
		Channels:   2,
		Rate:       44100,
		Codec:      pulseout.CodecPCM,
	}

	// Derived from cdFormat: tlength = 176400/6.
	cdBufferSize = 88200
	cdPeriodSize = 17640

	errBoom = errors.New("boom")
)

// fakeTicker fires only when the test calls Tick.
type fakeTicker struct {
	fn      func()
	period  time.Duration
	running bool
	starts  int
	stops   int
}

func (t *fakeTicker) Start(period time.Duration, fn func()) {
	t.fn = fn
	t.period = period
	t.running = true
	t.starts++
}

func (t *fakeTicker) Stop() {
	t.running = false
	t.stops++
}

func (t *fakeTicker) Tick() {
	if t.running && t.fn != nil {
		t.fn()
	}
}

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// fakeConn records everything written to it.
type fakeConn struct {
	mu       sync.Mutex
	data     bytes.Buffer
	writes   int
	limit    int // Maximum bytes accepted per write, 0 for no limit.
	writeErr error
	drained  int
	closed   int
}

func (c *fakeConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writes++
	if c.writeErr != nil {
		return 0, c.writeErr
	}

	n := len(p)
	if c.limit > 0 {
		n = min(n, c.limit)
	}
	c.data.Write(p[:n])

	return n, nil
}

func (c *fakeConn) Drain() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drained++

	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++

	return nil
}

func (c *fakeConn) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.data.Len()
}

// fakeTransport hands out fakeConns configured from its fields.
type fakeTransport struct {
	openErr  error
	limit    int
	writeErr error
	params   []pulseout.Params
	conns    []*fakeConn
}

func (t *fakeTransport) Open(params pulseout.Params) (pulseout.Conn, error) {
	t.params = append(t.params, params)
	if t.openErr != nil {
		return nil, t.openErr
	}

	conn := &fakeConn{limit: t.limit, writeErr: t.writeErr}
	t.conns = append(t.conns, conn)

	return conn, nil
}

func (t *fakeTransport) last() *fakeConn {
	if len(t.conns) == 0 {
		return nil
	}

	return t.conns[len(t.conns)-1]
}

// transition is a state notification together with the error kind observed from inside the handler.
type transition struct {
	State pulseout.State
	Error pulseout.ErrorKind
}

// recorder collects notifications. It reads the error back from the Output while
// the notification is delivered, which would deadlock if the Output held its lock.
type recorder struct {
	out         *pulseout.Output
	transitions []transition
	notifies    int
}

func (r *recorder) StateChanged(state pulseout.State) {
	r.transitions = append(r.transitions, transition{State: state, Error: r.out.Error()})
}

func (r *recorder) Notify() {
	r.notifies++
}

func (r *recorder) states() []pulseout.State {
	states := make([]pulseout.State, 0, len(r.transitions))
	for _, tr := range r.transitions {
		states = append(states, tr.State)
	}

	return states
}

// harness bundles an Output with its fake collaborators.
type harness struct {
	out       *pulseout.Output
	transport *fakeTransport
	ticker    *fakeTicker
	clock     *fakeClock
	rec       *recorder
}

func newHarness(t *testing.T, format pulseout.Format) *harness {
	t.Helper()

	h := &harness{
		transport: &fakeTransport{},
		ticker:    &fakeTicker{},
		clock:     newFakeClock(),
		rec:       &recorder{},
	}

	h.out = pulseout.NewOutput(pulseout.DefaultDevice, format, &pulseout.Config{
		Transport: h.transport,
		Ticker:    h.ticker,
		Clock:     h.clock,
		Notifier:  h.rec,
		Logger:    pulseout.NewLogger(io.Discard),
	})
	h.rec.out = h.out

	t.Cleanup(func() { _ = h.out.Close() })

	return h
}

// emptySource never has data.
type emptySource struct{}

func (emptySource) Read([]byte) (int, error)       { return 0, nil }
func (emptySource) Seek(int64, int) (int64, error) { return 0, nil }

// failingSource fails every read.
type failingSource struct{}

func (failingSource) Read([]byte) (int, error)       { return 0, errBoom }
func (failingSource) Seek(int64, int) (int64, error) { return 0, nil }
