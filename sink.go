package pulseout

import "fmt"

// sink is the io.Writer handed out in push mode.
type sink struct {
	out *Output
}

// Write forwards p to the Output. Zero-length transfers are retried a few
// times; if the buffer stays full the short count is returned with ErrShortWrite.
func (s *sink) Write(p []byte) (int, error) {
	written := 0
	retries := 0

	for written < len(p) {
		state := s.out.State()
		if state != StateActive && state != StateIdle {
			return written, fmt.Errorf("%w: output is %s", ErrNotOpen, state)
		}

		n := s.out.Write(p[written:])
		if n <= 0 {
			retries++
			if retries > sinkRetries {
				return written, ErrShortWrite
			}

			continue
		}

		written += n
	}

	return written, nil
}
