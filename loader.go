// FILE: lixenwraith/settings/loader.go
package settings

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Source represents a settings source, used to define load precedence
type Source string

const (
	// SourceDefault represents the values held by the members themselves
	SourceDefault Source = "default"
	// SourceFile represents values loaded from a settings file
	SourceFile Source = "file"
	// SourceEnv represents values loaded from environment variables
	SourceEnv Source = "env"
	// SourceCLI represents values loaded from command-line arguments
	SourceCLI Source = "cli"
)

// LoadOptions configures how settings are loaded from multiple sources
type LoadOptions struct {
	// Sources defines the precedence order (first = highest priority)
	// Default: [SourceCLI, SourceEnv, SourceFile, SourceDefault]
	Sources []Source

	// Name is the table holding the settings inside the file
	Name string

	// EnvPrefix is prepended to environment variable names
	// Example: "MYAPP_" maps key audio/volume to "MYAPP_AUDIO_VOLUME"
	EnvPrefix string
}

// DefaultLoadOptions returns the standard load options
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Sources: []Source{SourceCLI, SourceEnv, SourceFile, SourceDefault},
	}
}

// LoadWithOptions stages values from every source, lowest precedence first
// so higher sources overwrite the stage, then commits them. A missing file
// is reported with ErrSettingsNotFound and does not stop the other sources.
func (r *Registry) LoadWithOptions(filePath string, args []string, opts LoadOptions) error {
	var loadErrors []error

	for i := len(opts.Sources) - 1; i >= 0; i-- {
		switch opts.Sources[i] {
		case SourceDefault:
			// Members already hold their values
			continue

		case SourceFile:
			if filePath != "" {
				if err := r.LoadSettings(opts.Name, filePath); err != nil {
					if !errors.Is(err, ErrSettingsNotFound) {
						return err // Fatal error
					}
					loadErrors = append(loadErrors, err)
				}
			}

		case SourceEnv:
			if err := r.LoadEnv(opts.EnvPrefix); err != nil {
				loadErrors = append(loadErrors, err)
			}

		case SourceCLI:
			if len(args) > 0 {
				if err := r.LoadCLI(args); err != nil {
					loadErrors = append(loadErrors, err)
				}
			}
		}
	}

	if err := r.CommitAllPending(); err != nil {
		loadErrors = append(loadErrors, err)
	}

	return errors.Join(loadErrors...)
}

// LoadEnv stages the value of every environment variable named after a
// setting key, see EnvName.
func (r *Registry) LoadEnv(prefix string) error {
	r.mutex.RLock()
	var edits []pendingEdit
	for _, e := range r.entries {
		if value, exists := os.LookupEnv(envName(prefix, e.key)); exists {
			edits = append(edits, pendingEdit{key: clonePath(e.key), value: parseValue(value)})
		}
	}
	r.mutex.RUnlock()

	return r.stageAll(edits)
}

// DiscoverEnv returns the environment variables matching setting keys,
// mapped by slash-joined key.
func (r *Registry) DiscoverEnv(prefix string) map[string]string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	discovered := make(map[string]string)
	for _, e := range r.entries {
		name := envName(prefix, e.key)
		if _, exists := os.LookupEnv(name); exists {
			discovered[JoinPath(e.key)] = name
		}
	}
	return discovered
}

// EnvName returns the environment variable read for a setting key.
func EnvName(prefix string, key []string) string {
	return envName(prefix, key)
}

// LoadCLI stages values given as --container/setting=value or
// --container/setting value. Unknown keys are ignored.
func (r *Registry) LoadCLI(args []string) error {
	parsed, err := parseArgs(args)
	if err != nil {
		return err
	}

	known := r.knownKeys()
	edits := make([]pendingEdit, 0, len(parsed))
	for _, edit := range parsed {
		if known[pendingKey(edit.key)] {
			edits = append(edits, edit)
		}
	}
	return r.stageAll(edits)
}

// parseValue attempts to parse a string into appropriate types
// Only basic parse, complex parsing is deferred to mapstructure's decode hooks
func parseValue(s string) any {
	if s == "true" {
		return true
	}
	if s == "false" {
		return false
	}

	// Remove quotes if present
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}

	// Return as string - mapstructure will convert as needed
	return s
}

// parseArgs processes command-line arguments into staged edits.
func parseArgs(args []string) ([]pendingEdit, error) {
	var result []pendingEdit
	i := 0
	for i < len(args) {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			// Skip non-flag arguments
			i++
			continue
		}

		argContent := strings.TrimPrefix(arg, "--")
		if argContent == "" {
			// Skip "--" argument if used as a separator
			i++
			continue
		}

		var keyPath string
		var valueStr string

		if k, v, found := strings.Cut(argContent, "="); found {
			keyPath, valueStr = k, v
			i++
		} else {
			keyPath = argContent
			// A flag without a value is a boolean switch
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "--") {
				valueStr = "true"
				i++
			} else {
				valueStr = args[i+1]
				i += 2
			}
		}

		key := SplitPath(keyPath)
		if len(key) == 0 {
			return nil, fmt.Errorf("%w: command-line key %q", ErrEmptyPath, arg)
		}
		for _, segment := range key {
			if segment == "" {
				return nil, fmt.Errorf("invalid command-line key %q: empty segment", keyPath)
			}
		}

		result = append(result, pendingEdit{key: key, value: parseValue(valueStr)})
	}

	return result, nil
}
