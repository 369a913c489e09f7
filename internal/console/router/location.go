package router

import "sync"

// Poster runs a task on the console loop after the current task finishes.
type Poster interface {
	Post(task func())
}

// Location is the tab's navigable address. Setting a different path
// notifies subscribers on the loop; setting the same path does nothing.
type Location struct {
	poster Poster

	mu     sync.Mutex
	path   string
	nextID int
	subs   map[int]func(path string)
}

func NewLocation(poster Poster, initial string) *Location {
	return &Location{
		poster: poster,
		path:   initial,
		subs:   make(map[int]func(string)),
	}
}

// Path returns the raw current path, possibly empty.
func (l *Location) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

// Set changes the path and reports whether it differed from the current one.
func (l *Location) Set(path string) bool {
	l.mu.Lock()
	if l.path == path {
		l.mu.Unlock()
		return false
	}
	l.path = path
	subs := make([]func(string), 0, len(l.subs))
	for id := 0; id < l.nextID; id++ {
		if fn, ok := l.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	l.mu.Unlock()

	for _, fn := range subs {
		fn := fn
		l.poster.Post(func() { fn(path) })
	}
	return true
}

// Subscribe registers fn for path changes and returns its cancel function.
func (l *Location) Subscribe(fn func(path string)) func() {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.subs[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
	}
}
