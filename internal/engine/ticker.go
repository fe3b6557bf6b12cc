package engine

// Ticker keeps at most one tick loop alive. Each loop carries the generation
// it was started with; stopping bumps the generation so ticks from an old
// loop are rejected and the loop ends instead of double counting.
type Ticker struct {
	gen  int
	live bool
}

// Sync reconciles the loop with the engine's running state. When start is
// true the caller must begin a new loop tagged with gen.
func (t *Ticker) Sync(running bool) (gen int, start bool) {
	switch {
	case running && !t.live:
		t.gen++
		t.live = true
		return t.gen, true
	case !running && t.live:
		t.gen++
		t.live = false
	}
	return t.gen, false
}

// Accept reports whether a tick from loop gen should be applied. A false
// result means the loop is stale and must not be rescheduled.
func (t *Ticker) Accept(gen int) bool {
	return t.live && gen == t.gen
}

// Live reports whether a loop is currently running.
func (t *Ticker) Live() bool { return t.live }
