package inflight

import "sync"

// Guard refuses a second submission of the same form while the first is
// still running.
type Guard struct {
	mu      sync.Mutex
	running map[string]struct{}
}

func New() *Guard {
	return &Guard{running: map[string]struct{}{}}
}

// Acquire marks form as busy. It returns a release func and true, or nil and
// false when form is already busy.
func (g *Guard) Acquire(form string) (func(), bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.running[form]; busy {
		return nil, false
	}
	g.running[form] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.running, form)
			g.mu.Unlock()
		})
	}, true
}

func (g *Guard) Busy(form string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.running[form]
	return busy
}
