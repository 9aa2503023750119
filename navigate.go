// FILE: lixenwraith/settings/navigate.go
package settings

import "fmt"

// GetMenuItems returns the distinct path segments directly below path,
// in the order they are first met among the entries.
func (r *Registry) GetMenuItems(path string) []string {
	prefix := SplitPath(path)

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	items := make([]string, 0)
	seen := make(map[string]bool)
	for _, e := range r.entries {
		p := e.marker.Path
		if len(p) <= len(prefix) || !hasPrefix(p, prefix) {
			continue
		}
		if item := p[len(prefix)]; !seen[item] {
			seen[item] = true
			items = append(items, item)
		}
	}
	return items
}

// GetSettings returns the entries whose path equals path.
func (r *Registry) GetSettings(path string) []*Entry {
	segments := SplitPath(path)

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	settings := make([]*Entry, 0)
	for _, e := range r.entries {
		if equalPath(e.marker.Path, segments) {
			settings = append(settings, e)
		}
	}
	return settings
}

// GetSetting returns the first entry with the given path and name.
// A miss yields nil and a warning notification.
func (r *Registry) GetSetting(path, name string) *Entry {
	segments := SplitPath(path)

	r.mutex.RLock()
	for _, e := range r.entries {
		if e.marker.Name == name && equalPath(e.marker.Path, segments) {
			r.mutex.RUnlock()
			return e
		}
	}
	r.mutex.RUnlock()

	r.notifier.Notify(r, fmt.Sprintf("setting %q not found at %q", name, path), SeverityWarning)
	return nil
}

// GetSettingMenuItems walks the container tree along path and returns the
// names of the containers below the nodes reached, each name once. The
// empty path lists the global containers.
func (r *Registry) GetSettingMenuItems(path []string) ([]string, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if !r.initialized {
		return nil, ErrNotInitialized
	}

	nodes, err := r.walk(path)
	if err != nil {
		return nil, err
	}

	items := make([]string, 0)
	seen := make(map[string]bool)
	for _, n := range nodes {
		for _, child := range n.children {
			if !seen[child.name] {
				seen[child.name] = true
				items = append(items, child.name)
			}
		}
	}
	return items, nil
}

// GetSettingsAt returns the settings held directly by the containers
// reached by walking path. Containers sharing a name contribute all their
// settings.
func (r *Registry) GetSettingsAt(path []string) ([]*Entry, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if !r.initialized {
		return nil, ErrNotInitialized
	}

	nodes, err := r.walk(path)
	if err != nil {
		return nil, err
	}

	var entries []*Entry
	for _, n := range nodes {
		entries = append(entries, n.settings...)
	}
	return entries, nil
}

// Lookup resolves a container walk ending with a setting name.
func (r *Registry) Lookup(path []string) (*Entry, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if !r.initialized {
		return nil, ErrNotInitialized
	}
	return r.lookup(path)
}

// String describes the registry for diagnostics.
func (r *Registry) String() string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return fmt.Sprintf("settings registry (%d settings, %d pending)", len(r.entries), len(r.pending))
}
