package track

import "time"

// Position is a timestamped [lon, lat] pair.
type Position struct {
	Time  time.Time  `json:"time"`
	Coord [2]float64 `json:"coord"`
}

func (p Position) Lon() float64 { return p.Coord[0] }
func (p Position) Lat() float64 { return p.Coord[1] }

// history is a fixed capacity ring of positions. Once full, every push
// overwrites the oldest entry.
type history struct {
	buf   []Position
	start int
	n     int
}

func newHistory(capacity int) history {
	if capacity < 1 {
		capacity = 1
	}
	return history{buf: make([]Position, capacity)}
}

func (h *history) push(p Position) {
	if h.n < len(h.buf) {
		h.buf[(h.start+h.n)%len(h.buf)] = p
		h.n++
		return
	}
	h.buf[h.start] = p
	h.start = (h.start + 1) % len(h.buf)
}

func (h *history) at(i int) Position {
	return h.buf[(h.start+i)%len(h.buf)]
}

func (h *history) len() int { return h.n }

// slice returns the positions oldest first.
func (h *history) slice() []Position {
	out := make([]Position, h.n)
	for i := range out {
		out[i] = h.at(i)
	}
	return out
}

func (h *history) clone() history {
	buf := make([]Position, len(h.buf))
	copy(buf, h.buf)
	return history{buf: buf, start: h.start, n: h.n}
}
