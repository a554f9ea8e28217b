package pulseout

// capacity estimates the free space of the server-side buffer.
// It assumes the server drains one period per feed tick instead of asking
// the server, so it never blocks.
type capacity struct {
	avail  int
	size   int
	period int
}

func (c *capacity) reset(size, period int) {
	c.size = max(size, 0)
	c.period = max(period, 0)
	c.avail = c.size
}

func (c *capacity) available() int {
	return c.avail
}

// reserve returns how many of n bytes may be written now.
func (c *capacity) reserve(n int) int {
	if n <= 0 {
		return 0
	}

	return min(n, c.avail)
}

// commit accounts for bytes accepted by the transport.
func (c *capacity) commit(n int) {
	c.avail = max(c.avail-n, 0)
}

// replenish credits one period, as the server is assumed to have played it.
func (c *capacity) replenish() {
	c.avail = min(c.avail+c.period, c.size)
}
