package audio

import "sync"

// ring is a fixed-capacity PCM queue between a capture callback and a
// playback callback. Writers overwrite the oldest samples when full.
type ring struct {
	mu   sync.Mutex
	buf  []int16
	r, n int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]int16, capacity)}
}

func (rb *ring) write(samples []int16) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	size := len(rb.buf)
	if len(samples) > size {
		samples = samples[len(samples)-size:]
	}
	for _, s := range samples {
		w := (rb.r + rb.n) % size
		rb.buf[w] = s
		if rb.n == size {
			rb.r = (rb.r + 1) % size
		} else {
			rb.n++
		}
	}
}

// read fills dst and returns how many samples were available. The rest of
// dst is zeroed.
func (rb *ring) read(dst []int16) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	size := len(rb.buf)
	got := min(len(dst), rb.n)
	for i := 0; i < got; i++ {
		dst[i] = rb.buf[(rb.r+i)%size]
	}
	clear(dst[got:])
	rb.r = (rb.r + got) % size
	rb.n -= got
	return got
}

func (rb *ring) reset() {
	rb.mu.Lock()
	rb.r, rb.n = 0, 0
	rb.mu.Unlock()
}

func (rb *ring) len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.n
}
