package pulseout

import (
	"errors"
	"io"
	"time"
)

// tick runs one feed cycle for session s. Ticks of a session that was
// closed in the meantime are ignored.
func (o *Output) tick(s *session) {
	o.mu.Lock()
	defer o.unlock()

	if o.sess != s || (o.state != StateActive && o.state != StateIdle) {
		return
	}

	if o.pullMode {
		o.feed(s)
	} else {
		o.checkStall(s)
	}

	if o.sess == s {
		o.checkNotify(s)
	}

	s.cap.replenish()
}

// feed moves whole periods from the source to the transport while the
// buffer has room for them.
func (o *Output) feed(s *session) {
	period := s.cap.period

	for s.cap.available() >= period {
		n, err := o.source.Read(s.buf[:period])

		switch {
		case n > 0:
			written := o.write(s.buf[:n])
			if written == n {
				continue
			}

			// Give back what the transport did not take.
			if _, err := o.source.Seek(int64(written-n), io.SeekCurrent); err != nil {
				o.log.Warn("failed to rewind source", "bytes", n-written, "error", err)
			}

			return
		case err == nil || errors.Is(err, io.EOF):
			if o.state != StateIdle {
				o.log.Debug("underrun", "processed", s.total)
				o.errorKind = UnderrunError
				o.setState(StateIdle)
			}

			return
		default:
			o.log.Warn("failed to read source", "error", err)
			o.fail(IOError)

			return
		}
	}
}

// checkStall moves a push-mode stream to idle when the host stopped writing.
func (o *Output) checkStall(s *session) {
	if o.state == StateIdle {
		return
	}

	if o.config.Clock.Now().Sub(s.lastWrite) > StallTimeout {
		o.log.Debug("underrun", "processed", s.total)
		o.errorKind = UnderrunError
		o.setState(StateIdle)
	}
}

func (o *Output) checkNotify(s *session) {
	if o.notifyInterval <= 0 {
		return
	}

	now := o.config.Clock.Now()
	if now.Sub(s.lastNotify) > time.Duration(o.notifyInterval)*time.Millisecond {
		o.pending = append(o.pending, event{notify: true})
		s.lastNotify = now
	}
}
