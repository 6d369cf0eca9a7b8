package session

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Preference keys. The local prefs file holds exactly these two flat
// string values: the "was authenticated" flag (read at startup to avoid a
// flash of the signed-out view before the auth provider confirms state)
// and the user-chosen display theme.
const (
	prefAuthenticated = "authenticated"
	prefTheme         = "theme"
)

// Prefs persists the two local preference keys as KEY=VALUE lines.
type Prefs struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// OpenPrefs loads the preference file, tolerating a missing one.
func OpenPrefs(path string) (*Prefs, error) {
	p := &Prefs{path: path, values: make(map[string]string)}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read prefs: %w", err)
	}

	for _, line := range strings.Split(string(raw), "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		p.values[key] = value
	}
	return p, nil
}

// WasAuthenticated reports the persisted flag from the last session.
func (p *Prefs) WasAuthenticated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.values[prefAuthenticated] == "true"
}

// SetAuthenticated records the sign-in state.
func (p *Prefs) SetAuthenticated(v bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v {
		p.values[prefAuthenticated] = "true"
	} else {
		p.values[prefAuthenticated] = "false"
	}
	return p.flush()
}

// Theme returns the stored display theme, empty when unset.
func (p *Prefs) Theme() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.values[prefTheme]
}

// SetTheme records the display theme.
func (p *Prefs) SetTheme(theme string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[prefTheme] = theme
	return p.flush()
}

// flush rewrites the file. Callers hold the lock.
func (p *Prefs) flush() error {
	var b strings.Builder
	for _, key := range []string{prefAuthenticated, prefTheme} {
		if v, ok := p.values[key]; ok {
			fmt.Fprintf(&b, "%s=%s\n", key, v)
		}
	}
	if err := os.WriteFile(p.path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}
