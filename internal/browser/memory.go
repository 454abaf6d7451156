package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Input is one form input in a Memory page.
type Input struct {
	Name        string `json:"name,omitempty"`
	Type        string `json:"type,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Value       string `json:"value,omitempty"`
}

func (in *Input) attr(name string) string {
	switch name {
	case "name":
		return in.Name
	case "type":
		if in.Type == "" {
			return "text"
		}
		return in.Type
	case "placeholder":
		return in.Placeholder
	}
	return ""
}

// Memory is an in-process page: a current route plus a list of inputs.
// It backs the CLI, the HTTP server and tests when no browser is attached.
type Memory struct {
	mu      sync.Mutex
	route   string
	visited []string
	inputs  []*Input
	focused int
}

// NewMemory starts at route with no inputs.
func NewMemory(route string) *Memory {
	return &Memory{route: route, focused: -1}
}

// Navigate records route. Inputs belong to a page, so they are cleared.
func (m *Memory) Navigate(_ context.Context, route string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.route = route
	m.visited = append(m.visited, route)
	m.inputs = nil
	m.focused = -1
	return nil
}

func (m *Memory) CurrentRoute(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.route, nil
}

// Visited returns every route navigated to, oldest first.
func (m *Memory) Visited() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.visited...)
}

// SetInputs replaces the page's inputs.
func (m *Memory) SetInputs(inputs ...Input) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = make([]*Input, len(inputs))
	for i := range inputs {
		in := inputs[i]
		m.inputs[i] = &in
	}
	m.focused = -1
}

// Inputs returns a snapshot of the page's inputs.
func (m *Memory) Inputs() []Input {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Input, len(m.inputs))
	for i, in := range m.inputs {
		out[i] = *in
	}
	return out
}

// Focus focuses the input at index i; -1 clears focus.
func (m *Memory) Focus(i int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.focused = i
}

// Focused returns the focused input index, or -1.
func (m *Memory) Focused() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.focused
}

func (m *Memory) find(selector string) (int, error) {
	group, err := parseSelectorGroup(selector)
	if err != nil {
		return -1, err
	}
	for i, in := range m.inputs {
		if group.matches(in) {
			return i, nil
		}
	}
	return -1, nil
}

func (m *Memory) HasField(_ context.Context, selector string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, err := m.find(selector)
	return i >= 0, err
}

// SetFieldValue sets the first matching input. Like typing into it, this
// moves focus to the input.
func (m *Memory) SetFieldValue(_ context.Context, selector, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, err := m.find(selector)
	if err != nil {
		return err
	}
	if i < 0 {
		return fmt.Errorf("no element matches %s", selector)
	}
	m.inputs[i].Value = value
	m.focused = i
	return nil
}

func (m *Memory) SaveFocus(context.Context) (func(), error) {
	m.mu.Lock()
	saved := m.focused
	m.mu.Unlock()
	return func() { m.Focus(saved) }, nil
}

// attrMatch is one [attr op "value" flags] clause.
type attrMatch struct {
	name     string
	contains bool
	fold     bool
	value    string
}

type compound []attrMatch

type selectorGroup []compound

func (g selectorGroup) matches(in *Input) bool {
	for _, c := range g {
		if c.matches(in) {
			return true
		}
	}
	return false
}

func (c compound) matches(in *Input) bool {
	for _, a := range c {
		got, want := in.attr(a.name), a.value
		if a.fold {
			got, want = strings.ToLower(got), strings.ToLower(want)
		}
		if a.contains {
			if !strings.Contains(got, want) {
				return false
			}
		} else if got != want {
			return false
		}
	}
	return true
}

// parseSelectorGroup understands comma lists of input[attr="v"] and
// input[attr*="v" i], which is all the auth forms use.
func parseSelectorGroup(s string) (selectorGroup, error) {
	var g selectorGroup
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		rest, ok := strings.CutPrefix(part, "input")
		if !ok {
			return nil, fmt.Errorf("unsupported selector %q", part)
		}
		var c compound
		for rest != "" {
			if rest[0] != '[' {
				return nil, fmt.Errorf("unsupported selector %q", part)
			}
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, fmt.Errorf("unterminated attribute in %q", part)
			}
			a, err := parseAttr(rest[1:end])
			if err != nil {
				return nil, fmt.Errorf("%w in %q", err, part)
			}
			c = append(c, a)
			rest = rest[end+1:]
		}
		g = append(g, c)
	}
	return g, nil
}

func parseAttr(body string) (attrMatch, error) {
	var a attrMatch
	eq := strings.IndexByte(body, '=')
	if eq <= 0 {
		return a, fmt.Errorf("unsupported attribute %q", body)
	}
	a.name = body[:eq]
	if strings.HasSuffix(a.name, "*") {
		a.contains = true
		a.name = strings.TrimSuffix(a.name, "*")
	}
	val := strings.TrimSpace(body[eq+1:])
	if !strings.HasPrefix(val, `"`) {
		return a, fmt.Errorf("unquoted value %q", val)
	}
	closing := strings.IndexByte(val[1:], '"')
	if closing < 0 {
		return a, fmt.Errorf("unterminated value %q", val)
	}
	a.value = val[1 : closing+1]
	switch flags := strings.TrimSpace(val[closing+2:]); flags {
	case "":
	case "i":
		a.fold = true
	default:
		return a, fmt.Errorf("unsupported flag %q", flags)
	}
	return a, nil
}
