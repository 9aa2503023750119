// FILE: lixenwraith/settings/helper.go
package settings

import "strings"

// PathSeparator separates the segments of a settings path.
const PathSeparator = "/"

// SplitPath converts a slash-delimited path into its segments.
// The empty path and "/" both denote the root and yield no segments.
func SplitPath(path string) []string {
	path = strings.Trim(path, PathSeparator)
	if path == "" {
		return nil
	}
	return strings.Split(path, PathSeparator)
}

// JoinPath is the inverse of SplitPath.
func JoinPath(segments []string) string {
	return strings.Join(segments, PathSeparator)
}

// hasPrefix reports whether path starts with all segments of prefix.
func hasPrefix(path, prefix []string) bool {
	if len(prefix) > len(path) {
		return false
	}
	for i, segment := range prefix {
		if path[i] != segment {
			return false
		}
	}
	return true
}

func equalPath(a, b []string) bool {
	return len(a) == len(b) && hasPrefix(a, b)
}

func clonePath(path []string) []string {
	if len(path) == 0 {
		return nil
	}
	return append([]string(nil), path...)
}

// flattenMap walks a nested map and visits every path isLeaf accepts.
// Maps at unaccepted paths are descended; other values are dropped.
func flattenMap(nested map[string]any, prefix []string, isLeaf func(path []string) bool, visit func(path []string, value any)) {
	for key, value := range nested {
		path := append(clonePath(prefix), key)

		if isLeaf(path) {
			visit(path, value)
			continue
		}
		if nestedMap, isMap := value.(map[string]any); isMap {
			flattenMap(nestedMap, path, isLeaf, visit)
		}
	}
}

// setNestedValue sets a value in a nested map following the given segments.
// Intermediate maps are created; non-map values in the way are replaced.
func setNestedValue(nested map[string]any, path []string, value any) {
	current := nested

	for _, segment := range path[:len(path)-1] {
		next, exists := current[segment]
		if nextMap, isMap := next.(map[string]any); exists && isMap {
			current = nextMap
			continue
		}
		newMap := make(map[string]any)
		current[segment] = newMap
		current = newMap
	}

	current[path[len(path)-1]] = value
}

// envName maps a key to an environment variable name: letters and digits
// are upper-cased, every other rune becomes an underscore.
func envName(prefix string, key []string) string {
	var b strings.Builder
	b.WriteString(prefix)
	for i, segment := range key {
		if i > 0 {
			b.WriteByte('_')
		}
		for _, r := range segment {
			switch {
			case r >= 'a' && r <= 'z':
				b.WriteRune(r - 'a' + 'A')
			case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
				b.WriteRune(r)
			default:
				b.WriteByte('_')
			}
		}
	}
	return b.String()
}
