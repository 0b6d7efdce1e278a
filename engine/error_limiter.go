package engine

import (
	"time"

	"github.com/Carmen-Shannon/veil/common"
	"github.com/sirupsen/logrus"
)

// errorLimiter logs each distinct frame error at most once per window and counts what it suppressed.
// Only the render thread uses it.
type errorLimiter struct {
	window time.Duration
	now    func() time.Time
	seen   map[string]*errorWindow
}

type errorWindow struct {
	last       time.Time
	suppressed int
}

func newErrorLimiter(window time.Duration) *errorLimiter {
	return &errorLimiter{
		window: window,
		now:    time.Now,
		seen:   make(map[string]*errorWindow),
	}
}

// log reports err unless the same message was reported within the window.
//
// Returns:
//   - bool: true if err was written to the log
func (l *errorLimiter) log(err error) bool {
	msg := err.Error()
	now := l.now()
	w, ok := l.seen[msg]
	if ok && now.Sub(w.last) < l.window {
		w.suppressed++
		return false
	}
	if !ok {
		w = &errorWindow{}
		l.seen[msg] = w
	}

	entry := common.Logger().WithError(err)
	if w.suppressed > 0 {
		entry = entry.WithField("suppressed", w.suppressed)
	}
	entry.WithFields(logrus.Fields{"component": "render"}).Warn("frame error contained")

	w.last = now
	w.suppressed = 0
	l.prune(now)
	return true
}

// prune forgets errors that have been quiet for several windows so the map stays small.
func (l *errorLimiter) prune(now time.Time) {
	for msg, w := range l.seen {
		if now.Sub(w.last) > 10*l.window {
			delete(l.seen, msg)
		}
	}
}
