package pulseout

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Config holds the collaborators and settings of an Output.
// Zero fields select the defaults.
type Config struct {
	Transport       Transport // Defaults to a PulseTransport.
	Ticker          Ticker    // Defaults to a time.Ticker based ticker.
	Clock           Clock     // Defaults to the system clock.
	Notifier        Notifier
	Logger          *slog.Logger
	ApplicationName string // Client name announced to the server.
	Server          string // Server address, empty for the default server.
	NotifyInterval  int    // Progress notification interval in ms; 0 selects DefaultNotifyInterval.
}

// session is the state of one open connection. It is created by open and
// dropped by close, so nothing outlives the connection it belongs to.
type session struct {
	format     Format
	conn       Conn
	attr       BufferAttr
	cap        capacity
	buf        []byte // Feed buffer, one period long.
	total      int64  // Bytes accepted by the transport.
	opened     time.Time
	lastWrite  time.Time
	lastNotify time.Time
}

// Output streams PCM data to a sound server.
//
// In pull mode (Start) the Output reads from a seekable source on every tick.
// In push mode (StartPush) the host writes into the returned io.Writer.
// All methods are safe for concurrent use.
type Output struct {
	mu sync.Mutex

	device string
	format Format
	config Config
	log    *slog.Logger

	state          State
	errorKind      ErrorKind
	pullMode       bool
	source         io.ReadSeeker
	sess           *session
	bufferSize     int
	periodSize     int
	notifyInterval int
	savedBytes     int64
	savedElapsed   time.Duration

	pending    []event
	delivering bool
}

// NewOutput creates a stopped Output for the given device and format.
// If config is nil, defaults are used.
func NewOutput(device string, format Format, config *Config) *Output {
	var cfg Config
	if config != nil {
		cfg = *config
	}

	if cfg.Transport == nil {
		cfg.Transport = NewPulseTransport()
	}
	if cfg.Ticker == nil {
		cfg.Ticker = NewTimeTicker()
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NotifierFuncs{}
	}
	if cfg.Logger == nil {
		cfg.Logger = Logger()
	}

	interval := cfg.NotifyInterval
	if interval == 0 {
		interval = DefaultNotifyInterval
	}

	return &Output{
		device:         device,
		format:         format,
		config:         cfg,
		log:            cfg.Logger.With("device", device),
		state:          StateStopped,
		pullMode:       true,
		notifyInterval: max(interval, 0),
	}
}

// Start opens the stream in pull mode. On every tick the Output reads up to
// one period from src. A read of zero bytes (or io.EOF) is an underrun, any
// other read error stops the stream. Partially written chunks are given back
// to src by seeking backwards.
func (o *Output) Start(src io.ReadSeeker) error {
	if src == nil {
		return errors.New("nil source")
	}

	o.mu.Lock()
	defer o.unlock()

	o.reset()

	o.source = src
	o.pullMode = true

	if err := o.open(); err != nil {
		return err
	}

	o.setState(StateActive)

	return nil
}

// StartPush opens the stream in push mode and returns the writer the host
// feeds. The stream is idle until the first successful write.
func (o *Output) StartPush() (io.Writer, error) {
	o.mu.Lock()
	defer o.unlock()

	o.reset()

	o.source = nil
	o.pullMode = false

	if err := o.open(); err != nil {
		return nil, err
	}

	o.setState(StateIdle)

	return &sink{out: o}, nil
}

// reset drains and closes a previous stream before a new start and reports
// the stop.
func (o *Output) reset() {
	o.errorKind = NoError
	if o.state == StateStopped {
		return
	}

	o.close(true)
	o.emit(StateStopped)
}

// Stop drains and closes the stream. It does nothing if the Output is stopped.
func (o *Output) Stop() {
	o.mu.Lock()
	defer o.unlock()

	if o.state == StateStopped {
		return
	}

	o.errorKind = NoError
	o.close(true)
	o.emit(StateStopped)
}

// Close stops the Output. It is safe to call more than once.
func (o *Output) Close() error {
	o.Stop()

	return nil
}

// Suspend releases the connection while keeping the processed byte count.
// It only has an effect on an active or idle Output.
func (o *Output) Suspend() {
	o.mu.Lock()
	defer o.unlock()

	if o.state != StateActive && o.state != StateIdle {
		return
	}

	if o.sess != nil {
		o.savedBytes = o.sess.total
		o.savedElapsed = o.config.Clock.Now().Sub(o.sess.opened)
	}

	o.close(true)
	o.errorKind = NoError
	o.setState(StateSuspended)
}

// Resume reopens a suspended Output with the current format.
// If the connection cannot be reopened the Output stops with OpenError.
func (o *Output) Resume() error {
	o.mu.Lock()
	defer o.unlock()

	if o.state != StateSuspended {
		return nil
	}

	if err := o.open(); err != nil {
		return err
	}

	o.sess.total = o.savedBytes
	o.setState(StateActive)

	return nil
}

// Write hands p to the transport, limited by the free buffer space, and
// returns the number of bytes accepted. It returns 0 if the stream is not open.
func (o *Output) Write(p []byte) int {
	o.mu.Lock()
	defer o.unlock()

	return o.write(p)
}

// BytesFree returns the estimated free space of the server buffer.
func (o *Output) BytesFree() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.sess == nil || (o.state != StateActive && o.state != StateIdle) {
		return 0
	}

	return o.sess.cap.available()
}

// PeriodSize returns the number of bytes moved per tick.
func (o *Output) PeriodSize() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.periodSize
}

// SetBufferSize records a buffer size. The size is recomputed from the
// format on the next open.
func (o *Output) SetBufferSize(value int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.bufferSize = value
}

// BufferSize returns the buffer size in bytes.
func (o *Output) BufferSize() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.bufferSize
}

// SetNotifyInterval sets the progress notification interval in milliseconds.
// Zero or negative values disable progress notifications.
func (o *Output) SetNotifyInterval(ms int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.notifyInterval = max(ms, 0)
}

// NotifyInterval returns the progress notification interval in milliseconds.
func (o *Output) NotifyInterval() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.notifyInterval
}

// ProcessedMicroseconds returns the playback time of all data accepted since
// Start. It is 0 while stopped.
func (o *Output) ProcessedMicroseconds() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case o.state == StateStopped:
		return 0
	case o.sess == nil:
		return o.format.BytesToMicroseconds(o.savedBytes)
	default:
		return o.sess.format.BytesToMicroseconds(o.sess.total)
	}
}

// ElapsedMicroseconds returns the wall-clock time since the connection was
// opened. It is 0 while stopped.
func (o *Output) ElapsedMicroseconds() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case o.state == StateStopped:
		return 0
	case o.sess == nil:
		return o.savedElapsed.Microseconds()
	default:
		return o.config.Clock.Now().Sub(o.sess.opened).Microseconds()
	}
}

// Error returns the error kind of the last state transition.
func (o *Output) Error() ErrorKind {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.errorKind
}

// State returns the current state.
func (o *Output) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.state
}

// Format returns the stream format.
func (o *Output) Format() Format {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.format
}

// SetFormat changes the stream format. It is ignored unless the Output is stopped.
func (o *Output) SetFormat(format Format) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateStopped {
		o.log.Debug("format change ignored", "state", o.state, "format", format)

		return
	}

	o.format = format
}

// Device returns the device name the Output was created for.
func (o *Output) Device() string {
	return o.device
}

// open connects to the server with the current format and starts the ticker.
// On failure the Output is stopped with OpenError.
func (o *Output) open() error {
	wire, err := WireFormatOf(o.format)
	if err != nil {
		o.log.Warn("unsupported format", "format", o.format, "error", err)
		o.fail(OpenError)

		return err
	}

	attr := NewBufferAttr(o.format)
	params := Params{
		Device:          o.device,
		ApplicationName: o.config.ApplicationName,
		Server:          o.config.Server,
		Wire:            wire,
		Rate:            o.format.Rate,
		Channels:        o.format.Channels,
		Attr:            attr,
	}

	o.log.Debug("opening stream", "format", o.format, "wire", wire, "attr", attr)

	conn, err := o.config.Transport.Open(params)
	if err != nil {
		o.log.Warn("failed to open stream, is the sound server running?", "error", err)
		o.fail(OpenError)

		return fmt.Errorf("failed to open %q: %w", o.device, err)
	}

	now := o.config.Clock.Now()
	s := &session{
		format:     o.format,
		conn:       conn,
		attr:       attr,
		buf:        make([]byte, attr.PeriodSize()),
		opened:     now,
		lastWrite:  now,
		lastNotify: now,
	}
	s.cap.reset(attr.BufferSize(), attr.PeriodSize())

	o.sess = s
	o.bufferSize = attr.BufferSize()
	o.periodSize = attr.PeriodSize()
	o.errorKind = NoError

	o.config.Ticker.Start(TickPeriod, func() { o.tick(s) })

	return nil
}

// close stops the ticker and releases the connection, leaving the Output stopped.
// With drain set, outstanding audio is played before the connection is released.
func (o *Output) close(drain bool) {
	o.state = StateStopped
	o.config.Ticker.Stop()

	s := o.sess
	if s == nil {
		return
	}
	o.sess = nil

	var err error
	if drain {
		err = drainAndClose(s.conn)
	} else {
		err = s.conn.Close()
	}

	if err != nil {
		o.log.Debug("close failed", "error", err)
	}
}

// fail closes the connection without draining and stops with the given error.
func (o *Output) fail(kind ErrorKind) {
	o.close(false)
	o.errorKind = kind
	o.emit(StateStopped)
}

// write is Write with o.mu held.
func (o *Output) write(p []byte) int {
	s := o.sess
	if s == nil {
		return 0
	}

	n := s.cap.reserve(len(p))
	if n == 0 {
		return 0
	}

	written, err := s.conn.Write(p[:n])
	if err != nil {
		o.log.Warn("write to sound server failed", "error", err)
		o.fail(IOError)

		return 0
	}

	written = min(max(written, 0), n)
	if written == 0 {
		return 0
	}

	s.lastWrite = o.config.Clock.Now()
	s.total += int64(written)
	s.cap.commit(written)
	o.errorKind = NoError

	if o.state != StateActive {
		o.setState(StateActive)
	}

	return written
}

func (o *Output) setState(state State) {
	o.state = state
	o.emit(state)
}

// emit queues a state notification, delivered by unlock.
func (o *Output) emit(state State) {
	o.log.Debug("state changed", "state", state, "error", o.errorKind)
	o.pending = append(o.pending, event{state: state})
}

// unlock releases o.mu and delivers the queued notifications in the order
// they were emitted. Only one goroutine delivers at a time; events queued
// meanwhile, including ones raised by a handler, are left to it.
func (o *Output) unlock() {
	if o.delivering {
		o.mu.Unlock()

		return
	}

	o.delivering = true
	for len(o.pending) > 0 {
		events := o.pending
		o.pending = nil
		n := o.config.Notifier
		o.mu.Unlock()

		for _, ev := range events {
			if ev.notify {
				n.Notify()
			} else {
				n.StateChanged(ev.state)
			}
		}

		o.mu.Lock()
	}

	o.delivering = false
	o.mu.Unlock()
}
