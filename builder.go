// FILE: lixenwraith/settings/builder.go
package settings

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// ValidatorFunc checks a fully loaded Registry. It runs at the end of Build.
type ValidatorFunc func(r *Registry) error

// Builder provides a fluent interface for building a settings registry
type Builder struct {
	catalog    Introspector
	scope      *TypeInfo
	notifier   *Notifier
	log        logrus.FieldLogger
	opts       LoadOptions
	file       string
	discovery  *FileDiscoveryOptions
	args       []string
	strict     bool
	validators []ValidatorFunc
}

// NewBuilder creates a new registry builder
func NewBuilder() *Builder {
	return &Builder{
		catalog:    DefaultCatalog,
		opts:       DefaultLoadOptions(),
		args:       os.Args[1:],
		validators: make([]ValidatorFunc, 0),
	}
}

// WithCatalog sets the introspector the registry discovers settings through
func (b *Builder) WithCatalog(in Introspector) *Builder {
	if in != nil {
		b.catalog = in
	}
	return b
}

// WithScope restricts discovery to the members of one type
func (b *Builder) WithScope(scope *TypeInfo) *Builder {
	b.scope = scope
	return b
}

// WithNotifier sets the channel warnings are sent through
func (b *Builder) WithNotifier(n *Notifier) *Builder {
	b.notifier = n
	return b
}

// WithLogger sets the logger of the registry and of the default notifier
func (b *Builder) WithLogger(log logrus.FieldLogger) *Builder {
	b.log = log
	return b
}

// WithProfile sets the table holding the settings inside the file
func (b *Builder) WithProfile(name string) *Builder {
	b.opts.Name = name
	return b
}

// WithFile sets the settings file path
func (b *Builder) WithFile(path string) *Builder {
	b.file = path
	return b
}

// WithEnvPrefix sets the environment variable prefix
func (b *Builder) WithEnvPrefix(prefix string) *Builder {
	b.opts.EnvPrefix = prefix
	return b
}

// WithArgs sets the command-line arguments
func (b *Builder) WithArgs(args []string) *Builder {
	b.args = args
	return b
}

// WithSources sets the precedence order for settings sources
func (b *Builder) WithSources(sources ...Source) *Builder {
	b.opts.Sources = sources
	return b
}

// WithStrict makes Build fail when discovery recorded marker issues
func (b *Builder) WithStrict(strict bool) *Builder {
	b.strict = strict
	return b
}

// WithValidator adds a validation function that runs at the end of the build process
// Multiple validators can be added and are executed in the order they are added
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// Build discovers the settings, validates marker placement, loads the
// sources and runs the validators. A misplaced entry point fails the build
// with ErrStaticModifier and no registry. A missing settings file is
// returned as ErrSettingsNotFound together with a usable registry.
func (b *Builder) Build() (*Registry, error) {
	r := New()
	r.finder = NewFinder(b.catalog)
	if b.log != nil {
		r.log = b.log
	}
	if b.notifier != nil {
		r.notifier = b.notifier
	} else {
		r.notifier = NewNotifier(r.log)
	}

	r.Initialize(b.scope)

	ok, err := r.Validate()
	if err != nil {
		return nil, err
	}
	if !ok {
		issues := r.Issues()
		if b.strict {
			errs := make([]error, 0, len(issues))
			for _, issue := range issues {
				errs = append(errs, issue)
			}
			return nil, fmt.Errorf("settings markers are invalid: %w", errors.Join(errs...))
		}
		for _, issue := range issues {
			r.log.WithField("member", issue.Type+"."+issue.Member).Warn(issue.Err.Error())
		}
	}

	file := b.file
	if file == "" && b.discovery != nil {
		file = DiscoverFile(*b.discovery, b.args)
	}

	loadErr := r.LoadWithOptions(file, b.args, b.opts)
	if loadErr != nil && !errors.Is(loadErr, ErrSettingsNotFound) {
		return nil, loadErr
	}

	for _, validator := range b.validators {
		if err := validator(r); err != nil {
			return nil, fmt.Errorf("settings validation failed: %w", err)
		}
	}

	// ErrSettingsNotFound or nil
	return r, loadErr
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() *Registry {
	r, err := b.Build()
	if err != nil {
		// A missing file is not fatal, the members keep their values
		if !errors.Is(err, ErrSettingsNotFound) {
			panic(fmt.Sprintf("settings build failed: %v", err))
		}
	}
	return r
}
