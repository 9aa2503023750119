// FILE: lixenwraith/settings/io.go
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Supported settings file formats.
const (
	FormatTOML = "toml"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// SaveSettings commits the staged edits and writes every setting to a TOML
// file, nested by key under the table name. An empty name writes the keys
// at the top level. Settings of object kind and nil values are skipped.
func (r *Registry) SaveSettings(name, filePath string) error {
	if err := r.CommitAllPending(); err != nil {
		return fmt.Errorf("failed to commit pending settings: %w", err)
	}

	data, err := r.encodeTOML(name)
	if err != nil {
		return err
	}

	if err := atomicWriteFile(filePath, data); err != nil {
		return err
	}

	r.log.WithField("file", filePath).Debug("settings saved")
	return nil
}

func (r *Registry) encodeTOML(name string) ([]byte, error) {
	nested, err := r.nestedValues()
	if err != nil {
		return nil, err
	}

	doc := nested
	if name != "" {
		doc = map[string]any{name: nested}
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to marshal settings to TOML: %w", err)
	}
	return buf.Bytes(), nil
}

// nestedValues builds the key tree of the live values. Settings sharing a
// key cannot be told apart in a file and fail with ErrAmbiguousMatch.
func (r *Registry) nestedValues() (map[string]any, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	counts := make(map[string]int, len(r.entries))
	for _, e := range r.entries {
		counts[pendingKey(e.key)]++
	}
	for _, e := range r.entries {
		if n := counts[pendingKey(e.key)]; n > 1 {
			return nil, ambiguousMatch(e.key, n)
		}
	}

	nested := make(map[string]any)
	for _, e := range r.entries {
		if e.kind == ValueObject {
			continue
		}
		value, err := e.Live()
		if err != nil || value == nil {
			continue
		}
		if d, ok := value.(time.Duration); ok {
			value = d.String()
		}
		setNestedValue(nested, e.key, value)
	}
	return nested, nil
}

// LoadSettings reads a TOML, JSON or YAML file and stages the values found
// under the table name for every known key. Values are applied by
// CommitAllPending. A missing file yields ErrSettingsNotFound.
func (r *Registry) LoadSettings(name, filePath string) error {
	edits, err := r.readEdits(name, filePath)
	if err != nil {
		return err
	}
	return r.stageAll(edits)
}

// applySettingsFile reads a settings file like LoadSettings but writes its
// values at once, leaving the staged edits of other callers untouched.
func (r *Registry) applySettingsFile(name, filePath string) error {
	edits, err := r.readEdits(name, filePath)
	if err != nil {
		return err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.initialized {
		return ErrNotInitialized
	}
	var errs []error
	for _, edit := range edits {
		if err := r.changeSetting(edit.key, edit.value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// readEdits parses a settings file into edits for the known keys of the
// table name.
func (r *Registry) readEdits(name, filePath string) ([]pendingEdit, error) {
	fileData, err := readSettingsFile(filePath)
	if err != nil {
		return nil, err
	}

	section := fileData
	if name != "" {
		raw, exists := fileData[name]
		if !exists {
			return nil, nil
		}
		table, isMap := raw.(map[string]any)
		if !isMap {
			return nil, fmt.Errorf("settings table %q in '%s' is not a table", name, filePath)
		}
		section = table
	}

	known := r.knownKeys()
	var edits []pendingEdit
	flattenMap(section, nil,
		func(path []string) bool { return known[pendingKey(path)] },
		func(path []string, value any) {
			edits = append(edits, pendingEdit{key: path, value: value})
		})
	sort.Slice(edits, func(i, j int) bool {
		return pendingKey(edits[i].key) < pendingKey(edits[j].key)
	})

	r.mutex.Lock()
	r.filePath = filePath
	r.mutex.Unlock()

	r.log.WithFields(logrus.Fields{
		"file":  filePath,
		"found": len(edits),
	}).Debug("settings file read")
	return edits, nil
}

// knownKeys returns the keys of every entry.
func (r *Registry) knownKeys() map[string]bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	known := make(map[string]bool, len(r.entries))
	for _, e := range r.entries {
		known[pendingKey(e.key)] = true
	}
	return known
}

// stageAll stages several edits at once.
func (r *Registry) stageAll(edits []pendingEdit) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.initialized {
		return ErrNotInitialized
	}
	for _, edit := range edits {
		r.pending[pendingKey(edit.key)] = edit
	}
	return nil
}

// readSettingsFile parses a settings file into a nested map.
func readSettingsFile(path string) (map[string]any, error) {
	fileData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSettingsNotFound, path)
		}
		return nil, fmt.Errorf("failed to read settings file '%s': %w", path, err)
	}

	// Try extension first, then content
	format := detectFileFormat(path)
	if format == "" {
		format = detectFormatFromContent(fileData)
	}

	parsed := make(map[string]any)
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(fileData, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse TOML settings file '%s': %w", path, err)
		}
	case FormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(fileData))
		decoder.UseNumber() // Preserve number precision
		if err := decoder.Decode(&parsed); err != nil {
			return nil, fmt.Errorf("failed to parse JSON settings file '%s': %w", path, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(fileData, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse YAML settings file '%s': %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unable to determine settings format for file '%s'", path)
	}

	return parsed, nil
}

// detectFileFormat determines format from file extension
func detectFileFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".tml":
		return FormatTOML
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return ""
	}
}

// detectFormatFromContent attempts to detect format by parsing
func detectFormatFromContent(data []byte) string {
	// Try JSON first (strict format)
	var jsonTest any
	if err := json.Unmarshal(data, &jsonTest); err == nil {
		return FormatJSON
	}

	// TOML before YAML, flat key = value lines parse as YAML scalars
	var tomlTest map[string]any
	if err := toml.Unmarshal(data, &tomlTest); err == nil {
		return FormatTOML
	}

	var yamlTest map[string]any
	if err := yaml.Unmarshal(data, &yamlTest); err == nil {
		return FormatYAML
	}

	return ""
}

// atomicWriteFile performs atomic file write
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	tempPath := tempFile.Name()
	defer os.Remove(tempPath) // Clean up on any error

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
