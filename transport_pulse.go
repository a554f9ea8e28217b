package pulseout

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
	"golang.org/x/sys/unix"
)

// DefaultDevice is the name of the server's default sink.
const DefaultDevice = "pulse"

// writeTimeout bounds how long a write may wait for the server to take data.
const writeTimeout = 2 * time.Second

// readWait bounds how long the stream callback waits for queued data. The
// callback runs on the stream goroutine, which must keep taking requests.
const readWait = 10 * time.Millisecond

var (
	errWriteTimeout = errors.New("write timed out")
	errStartTimeout = errors.New("playback stream did not start")
)

// PulseTransport opens playback streams on a PulseAudio (or PipeWire-pulse) server
// using the native protocol. Every connection uses its own client.
type PulseTransport struct{}

// NewPulseTransport creates a PulseTransport.
func NewPulseTransport() *PulseTransport {
	return &PulseTransport{}
}

// Open connects to the server and creates a corked playback stream.
// The stream starts playing once the prebuffer has been written.
// Device "" or DefaultDevice selects the default sink.
func (t *PulseTransport) Open(params Params) (Conn, error) {
	var channels pulse.PlaybackOption
	switch params.Channels {
	case 1:
		channels = pulse.PlaybackMono
	case 2:
		channels = pulse.PlaybackStereo
	default:
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, params.Channels)
	}

	name := params.ApplicationName
	if name == "" {
		name = fmt.Sprintf("pulseaudio:%d", unix.Getpid())
	}

	opts := []pulse.ClientOption{pulse.ClientApplicationName(name)}
	if params.Server != "" {
		opts = append(opts, pulse.ClientServerString(params.Server))
	}

	client, err := pulse.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sound server: %w", err)
	}

	playbackOpts := []pulse.PlaybackOption{
		channels,
		pulse.PlaybackSampleRate(params.Rate),
		pulse.PlaybackRawOption(func(req *proto.CreatePlaybackStream) {
			applyBufferAttr(req, params.Attr)
		}),
	}

	if params.Device != "" && params.Device != DefaultDevice {
		sink, err := client.SinkByID(params.Device)
		if err != nil {
			client.Close()

			return nil, fmt.Errorf("failed to find sink %q: %w", params.Device, err)
		}

		playbackOpts = append(playbackOpts, pulse.PlaybackSink(sink))
	}

	queue := newByteQueue(max(int(params.Attr.MaxLength), int(params.Attr.Prebuffer), 1))
	reader := &queueReader{queue: queue, format: byte(params.Wire)}

	stream, err := client.NewPlayback(reader, playbackOpts...)
	if err != nil {
		client.Close()

		return nil, fmt.Errorf("failed to create playback stream: %w", err)
	}

	return newPulseConn(stream, queue, params, client.Close), nil
}

// applyBufferAttr copies the buffering attributes into the create-stream request.
func applyBufferAttr(req *proto.CreatePlaybackStream, a BufferAttr) {
	req.BufferMaxLength = a.MaxLength
	req.BufferTargetLength = a.TargetLength
	req.BufferPrebufferLength = a.Prebuffer
	req.BufferMinimumRequest = a.MinRequest
}

// playbackStream is the part of *pulse.PlaybackStream a connection drives.
type playbackStream interface {
	Start()
	Drain()
	Close()
	Closed() bool
	Running() bool
	Error() error
}

// pulseConn queues written data for the stream callback. The stream is
// started asynchronously once prebuffer bytes are queued, because Start
// blocks until the server has received the prebuffer.
type pulseConn struct {
	stream      playbackStream
	queue       *byteQueue
	closeClient func()
	prebuffer   int
	silence     byte

	mu        sync.Mutex
	queued    int
	startOnce sync.Once
	started   chan struct{}
	closeOnce sync.Once
}

func newPulseConn(stream playbackStream, queue *byteQueue, params Params, closeClient func()) *pulseConn {
	c := &pulseConn{
		stream:      stream,
		queue:       queue,
		closeClient: closeClient,
		prebuffer:   max(int(params.Attr.Prebuffer), 1),
		started:     make(chan struct{}),
	}

	if params.Wire == WireU8 {
		c.silence = 0x80
	}

	return c
}

func (c *pulseConn) Write(p []byte) (int, error) {
	if err := c.stream.Error(); err != nil {
		return 0, fmt.Errorf("playback stream failed: %w", err)
	}

	if c.stream.Closed() {
		return 0, ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Until the stream runs nothing reads the queue, so only fill it up to the prebuffer.
	head := len(p)
	if c.queued < c.prebuffer {
		head = min(head, c.prebuffer-c.queued)
	}

	n, err := c.queue.write(p[:head], writeTimeout)
	c.queued += n
	if c.queued >= c.prebuffer {
		c.start()
	}

	if err != nil || n == len(p) {
		return n, err
	}

	m, err := c.queue.write(p[n:], writeTimeout)
	c.queued += m

	return n + m, err
}

// Drain plays out everything queued and waits for the server to finish.
// Data shorter than the prebuffer is padded with silence so the server starts.
func (c *pulseConn) Drain() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream.Closed() {
		return nil
	}

	if c.queued == 0 {
		c.queue.finish()

		return nil
	}

	if c.queued < c.prebuffer {
		pad := bytes.Repeat([]byte{c.silence}, c.prebuffer-c.queued)
		n, err := c.queue.write(pad, writeTimeout)
		c.queued += n
		if err != nil {
			return err
		}

		c.start()
	}

	select {
	case <-c.started:
	case <-time.After(writeTimeout):
		return errStartTimeout
	}

	if !c.queue.waitEmpty(writeTimeout) {
		return errWriteTimeout
	}

	if c.stream.Running() {
		c.stream.Drain()
	}

	c.queue.finish()

	return c.stream.Error()
}

func (c *pulseConn) Close() error {
	c.closeOnce.Do(func() {
		c.queue.abort()
		c.stream.Close()
		c.closeClient()
	})

	return nil
}

// start uncorks the stream on its own goroutine, once.
func (c *pulseConn) start() {
	c.startOnce.Do(func() {
		go func() {
			c.stream.Start()
			close(c.started)
		}()
	})
}

// queueReader feeds the playback stream from the byte queue.
type queueReader struct {
	queue  *byteQueue
	format byte
}

func (r *queueReader) Format() byte { return r.format }

func (r *queueReader) Read(p []byte) (int, error) {
	return r.queue.read(p, readWait)
}

// byteQueue is a bounded FIFO between the blocking writer and the stream callback.
type byteQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []byte
	limit  int
	closed bool
}

func newByteQueue(limit int) *byteQueue {
	q := &byteQueue{
		buf:   make([]byte, 0, limit),
		limit: limit,
	}
	q.cond = sync.NewCond(&q.mu)

	return q
}

// wakeAfter broadcasts on the queue's condition once d has passed.
func (q *byteQueue) wakeAfter(d time.Duration) *time.Timer {
	return time.AfterFunc(d, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
}

// write appends p, waiting for room. It gives up after timeout.
func (q *byteQueue) write(p []byte, timeout time.Duration) (int, error) {
	deadline := time.Now().Add(timeout)
	wake := q.wakeAfter(timeout)
	defer wake.Stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	written := 0
	for written < len(p) {
		for len(q.buf) >= q.limit && !q.closed {
			if !time.Now().Before(deadline) {
				return written, errWriteTimeout
			}

			q.cond.Wait()
		}

		if q.closed {
			return written, ErrClosed
		}

		n := min(q.limit-len(q.buf), len(p)-written)
		q.buf = append(q.buf, p[written:written+n]...)
		written += n

		q.cond.Broadcast()
	}

	return written, nil
}

// read takes up to len(p) bytes, waiting at most wait for data. It returns
// 0 bytes when nothing arrived in time. Once the queue is finished and empty
// it reports pulse.EndOfData.
func (q *byteQueue) read(p []byte, wait time.Duration) (int, error) {
	deadline := time.Now().Add(wait)
	wake := q.wakeAfter(wait)
	defer wake.Stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.buf) == 0 && !q.closed {
		if !time.Now().Before(deadline) {
			return 0, nil
		}

		q.cond.Wait()
	}

	if len(q.buf) == 0 {
		return 0, pulse.EndOfData
	}

	n := copy(p, q.buf)
	rest := copy(q.buf, q.buf[n:])
	q.buf = q.buf[:rest]

	q.cond.Broadcast()

	return n, nil
}

// waitEmpty waits until the reader has taken everything queued.
func (q *byteQueue) waitEmpty(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	wake := q.wakeAfter(timeout)
	defer wake.Stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.buf) > 0 {
		if !time.Now().Before(deadline) {
			return false
		}

		q.cond.Wait()
	}

	return true
}

// finish rejects further writes; queued data is still read.
func (q *byteQueue) finish() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

// abort rejects further writes and discards queued data.
func (q *byteQueue) abort() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.buf = q.buf[:0]
	q.cond.Broadcast()
}
