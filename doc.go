// FILE: lixenwraith/settings/doc.go

// Package settings discovers configurable values from struct tags and
// registered members, arranges them in a slash-delimited menu tree and edits
// them with bounds checking and a stage/commit/discard workflow.
//
// Features:
//   - Settings declared with struct tags, package-level variables or getter/setter pairs
//   - Containers linking global roots to instance settings
//   - Numeric clamping to declared bounds with warning notifications
//   - Per-entry and registry-wide staged edits
//   - TOML, JSON and YAML settings files, environment variables and CLI overrides
//   - File watching with change notifications
//   - Thread-safe operations using sync.RWMutex
//
// Declaring Settings:
//
//	type Audio struct {
//	    Volume int  `setting:"audio,volume,default=80,min=0,max=100"`
//	    Muted  bool `setting:"audio,muted,default=false"`
//	}
//
//	var audio = &Audio{Volume: 80}
//	var scale float64 = 1
//
//	func init() {
//	    settings.Register(
//	        settings.AddVar(settings.Namespace("app"), "Audio", &audio, `settings:"menu=Audio"`),
//	        settings.AddVar(settings.Namespace("ui"), "Scale", &scale,
//	            `setting:"display,scale,default=1,min=0.5,max=3,decimals=1"`),
//	    )
//	}
//
// Building the Registry:
//
//	reg, err := settings.NewBuilder().
//	    WithEnvPrefix("MYAPP_").
//	    WithFile("settings.toml").
//	    WithProfile("settings").
//	    Build()
//
//	reg.GetMenuItems("")                   // ["audio", "display"]
//	reg.ChangeSetting([]string{"Audio", "volume"}, 150) // clamped to 100, warning sent
//	reg.StageTemporary([]string{"scale"}, 2.0)
//	reg.CommitAllPending()
//
// Addressing:
// Menu paths come from the setting markers and drive GetMenuItems,
// GetSettings and GetSetting. Keys are the container names walked from a
// global root followed by the setting name; they drive ChangeSetting,
// StageTemporary, the settings file layout and the env/CLI names.
//
// Default Precedence (highest to lowest):
//  1. Command-line arguments (--Audio/volume=60)
//  2. Environment variables (MYAPP_AUDIO_VOLUME=60)
//  3. Settings file (settings.toml)
//  4. Values held by the members
//
// Thread Safety:
// The registry guards discovery, staging and edits with a read-write mutex.
// Notification listeners run synchronously and must not call back into
// the registry.
package settings
