// Package page holds the page-controller runtime shared by every console
// screen: the scheduler, the tab's screen and its regions, the toaster, and
// the Load / Mutate lifecycle helpers.
package page

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// View is a rendered screen state. Data is screen specific and Actions lists
// the action names currently bound to it.
type View struct {
	Screen  string   `json:"screen"`
	Data    any      `json:"data,omitempty"`
	Actions []string `json:"actions,omitempty"`
}

// Frame is everything the tab displays.
type Frame struct {
	Path    string `json:"path"`
	Shell   *View  `json:"shell,omitempty"`
	Content View   `json:"content"`
	Modal   *View  `json:"modal,omitempty"`
}

// Status is the Data of a placeholder or unavailable view.
type Status struct {
	Loading bool   `json:"loading,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Input carries an action's target (usually a row id) and form values.
type Input struct {
	Target string
	Values url.Values
}

// Get returns the trimmed form value for key.
func (in Input) Get(key string) string {
	return strings.TrimSpace(in.Values.Get(key))
}

// Raw returns the untrimmed form value for key.
func (in Input) Raw(key string) string {
	return in.Values.Get(key)
}

// All returns every value submitted for key.
func (in Input) All(key string) []string {
	return in.Values[key]
}

// Bool reports whether key was submitted as a truthy checkbox value.
func (in Input) Bool(key string) bool {
	switch strings.ToLower(in.Get(key)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// Int parses key as an integer. An empty value yields ok=false, err=nil.
func (in Input) Int(key string) (v int, ok bool, err error) {
	raw := in.Get(key)
	if raw == "" {
		return 0, false, nil
	}
	v, err = strconv.Atoi(raw)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// ActionFunc handles a client action on the console loop.
type ActionFunc func(ctx context.Context, in Input)

// Handlers binds action names to handlers.
type Handlers map[string]ActionFunc

func (h Handlers) names() []string {
	if len(h) == 0 {
		return nil
	}
	out := make([]string, 0, len(h))
	for name := range h {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Sink receives what the tab should display.
type Sink interface {
	ShowFrame(Frame)
	ShowToast(*Toast)
}
