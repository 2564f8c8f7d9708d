package notify

import "sync"

// Loading tracks outstanding backend calls. Show fires when the count goes
// 0→1 and Hide when it returns to 0, so an early completion never hides the
// indicator while another call is still pending.
type Loading struct {
	mu    sync.Mutex
	count int
	show  func()
	hide  func()
}

func NewLoading(show, hide func()) *Loading {
	return &Loading{show: show, hide: hide}
}

func (l *Loading) Begin() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.count++
	if l.count == 1 && l.show != nil {
		l.show()
	}
}

func (l *Loading) End() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.count == 0 {
		return
	}
	l.count--
	if l.count == 0 && l.hide != nil {
		l.hide()
	}
}

// Active reports whether any call is still outstanding.
func (l *Loading) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count > 0
}
