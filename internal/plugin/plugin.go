// Package plugin implements named export plugins operating on datasets.
//
// Plugins are resolved from a compile-time registry by name and invoked with
// either a raw argument vector or structured key=value options. A plugin may
// additionally provide its own help text.
package plugin

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/zulandar/caravan/internal/dataset"
)

// Request carries the invocation context handed to a plugin.
type Request struct {
	Dataset *dataset.Dataset
	Output  string            // destination; plugin-specific semantics
	Args    []string          // raw unparsed arguments, if given
	Options map[string]string // structured key=value options, if given
}

// Plugin is a named export/transform operation over a dataset. Apply returns
// a short human-readable result summary.
type Plugin interface {
	Apply(req Request) (string, error)
}

// HelpProvider is implemented by plugins that carry their own help text.
// The replacement pairs are applied to the text width-preserving, so column
// alignment in the help survives substitution.
type HelpProvider interface {
	Help() (text string, replacements [][2]string)
}

var (
	mu       sync.RWMutex
	registry = map[string]Plugin{}
)

// Register adds a plugin under the given name. Registering a duplicate name
// panics; plugin names are fixed at compile time.
func Register(name string, p Plugin) {
	if name == "" {
		panic("plugin: empty plugin name")
	}
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("plugin: %q registered twice", name))
	}
	registry[name] = p
}

// Get resolves a plugin by name.
func Get(name string) (Plugin, error) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("plugin: cannot load plugin %q: unknown name (available: %s)",
			name, strings.Join(names(), ", "))
	}
	return p, nil
}

// Names returns the registered plugin names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	return names()
}

// names returns sorted plugin names; callers must hold mu.
func names() []string {
	ns := make([]string, 0, len(registry))
	for n := range registry {
		ns = append(ns, n)
	}
	sort.Strings(ns)
	return ns
}

// Dispatch resolves and invokes the named plugin.
func Dispatch(name string, req Request) (string, error) {
	p, err := Get(name)
	if err != nil {
		return "", err
	}
	return p.Apply(req)
}

// HelpText returns the rendered help for the named plugin, with replacement
// pairs applied padded to the width of the replaced token.
func HelpText(name string) (string, error) {
	p, err := Get(name)
	if err != nil {
		return "", err
	}
	hp, ok := p.(HelpProvider)
	if !ok {
		return "", fmt.Errorf("plugin: %q does not provide help", name)
	}
	text, replacements := hp.Help()
	for _, r := range replacements {
		in, out := r[0], r[1]
		if pad := len(in) - len(out); pad > 0 {
			out += strings.Repeat(" ", pad)
		}
		text = strings.ReplaceAll(text, in, out)
	}
	return text, nil
}
