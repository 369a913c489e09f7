// Package router maps location paths to page handlers. Patterns are matched
// in registration order and the first structural match wins.
package router

import (
	"regexp"
	"strings"
)

// Params holds the values captured by a pattern's :name segments.
type Params map[string]string

// Handler is invoked with the params of the matched route.
type Handler func(Params)

type route struct {
	pattern string
	re      *regexp.Regexp
	names   []string
	handler Handler
}

// Router resolves the Location's path against an ordered route list.
type Router struct {
	loc      *Location
	poster   Poster
	routes   []route
	fallback Handler
	stop     func()
}

func New(loc *Location, poster Poster) *Router {
	return &Router{
		loc:      loc,
		poster:   poster,
		fallback: func(Params) {},
	}
}

// Register appends a route. A ":name" segment matches one non-empty path
// segment; every other segment matches literally. Duplicate or overlapping
// patterns are kept and the earliest registration wins.
func (r *Router) Register(pattern string, h Handler) {
	re, names := compile(pattern)
	r.routes = append(r.routes, route{pattern: pattern, re: re, names: names, handler: h})
}

// Fallback sets the handler for paths no route matches.
func (r *Router) Fallback(h Handler) {
	if h == nil {
		h = func(Params) {}
	}
	r.fallback = h
}

// Match returns the first route matching path.
func (r *Router) Match(path string) (pattern string, params Params, ok bool) {
	rt, params := r.match(path)
	if rt == nil {
		return "", Params{}, false
	}
	return rt.pattern, params, true
}

// ResolvePath invokes the handler for path, or the fallback with empty params.
func (r *Router) ResolvePath(path string) {
	if rt, params := r.match(path); rt != nil {
		rt.handler(params)
		return
	}
	r.fallback(Params{})
}

func (r *Router) match(path string) (*route, Params) {
	for i := range r.routes {
		rt := &r.routes[i]
		m := rt.re.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		params := make(Params, len(rt.names))
		for j, name := range rt.names {
			params[name] = m[j+1]
		}
		return rt, params
	}
	return nil, nil
}

// Resolve dispatches the current path.
func (r *Router) Resolve() {
	r.ResolvePath(r.CurrentPath())
}

// CurrentPath returns the location path, "/" when empty.
func (r *Router) CurrentPath() string {
	if p := r.loc.Path(); p != "" {
		return p
	}
	return "/"
}

// Navigate moves to path. Exactly one resolution follows: through the
// location change notification once started, or scheduled directly when the
// router is not subscribed yet or the location already holds path.
func (r *Router) Navigate(path string) {
	if !r.loc.Set(path) || r.stop == nil {
		r.poster.Post(r.Resolve)
	}
}

// Start subscribes to location changes and resolves the current path once.
// Further calls do nothing.
func (r *Router) Start() {
	if r.stop != nil {
		return
	}
	r.stop = r.loc.Subscribe(func(string) { r.Resolve() })
	r.Resolve()
}

// Stop unsubscribes from the location.
func (r *Router) Stop() {
	if r.stop != nil {
		r.stop()
		r.stop = nil
	}
}

func compile(pattern string) (*regexp.Regexp, []string) {
	var names []string
	segments := strings.Split(pattern, "/")
	for i, seg := range segments {
		if strings.HasPrefix(seg, ":") && len(seg) > 1 {
			names = append(names, seg[1:])
			segments[i] = "([^/]+)"
			continue
		}
		segments[i] = regexp.QuoteMeta(seg)
	}
	return regexp.MustCompile("^" + strings.Join(segments, "/") + "$"), names
}
