// FILE: lixenwraith/settings/registry_test.go
package settings

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testMessage struct {
	Text string
}

type testSettings struct {
	Set2 int          `setting:"a/b,set2,default=0"`
	Set3 *testMessage `setting:"a/c,set3"`
	Set4 bool         `setting:"a/b/c,set4"`
}

// testFixture declares set1 as a global setting at the root and reaches
// set2..set4 through the global Instance container.
type testFixture struct {
	catalog  *Catalog
	scope    *TypeInfo
	set1     float32
	instance *testSettings
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{set1: 1, instance: &testSettings{}}
	f.scope = Describe[testSettings]()
	AddVar(f.scope, "set1", &f.set1, `setting:",set1,default=1,min=0,max=100,decimals=2"`)
	AddVar(f.scope, "Instance", &f.instance, `settings:"contain"`)
	require.Empty(t, f.scope.Issues())

	f.catalog = NewCatalog()
	f.catalog.Register(f.scope)
	return f
}

func (f *testFixture) registry(t *testing.T) (*Registry, *messageRecorder) {
	t.Helper()

	r := newTestRegistry(f.catalog)
	rec := recordMessages(r.Notifier())
	r.Initialize(f.scope)
	return r, rec
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestRegistry(catalog Introspector) *Registry {
	r := New()
	r.finder = NewFinder(catalog)
	r.log = testLogger()
	r.notifier = NewNotifier(r.log)
	return r
}

type messageRecorder struct {
	mu       sync.Mutex
	messages []Message
}

func recordMessages(n *Notifier) *messageRecorder {
	rec := &messageRecorder{}
	n.Subscribe(func(m Message) {
		rec.mu.Lock()
		rec.messages = append(rec.messages, m)
		rec.mu.Unlock()
	})
	return rec
}

func (rec *messageRecorder) count(severity Severity) int {
	rec.mu.Lock()
	defer rec.mu.Unlock()

	n := 0
	for _, m := range rec.messages {
		if m.Severity == severity {
			n++
		}
	}
	return n
}

func TestRegistryInitialize(t *testing.T) {
	f := newTestFixture(t)
	r, _ := f.registry(t)

	t.Run("EntriesDiscovered", func(t *testing.T) {
		assert.True(t, r.IsInitialized())
		assert.Len(t, r.Entries(), 4)
		assert.Empty(t, r.Issues())
	})

	t.Run("RootSettings", func(t *testing.T) {
		root := r.GetSettings("")
		require.Len(t, root, 1)
		assert.Equal(t, "set1", root[0].Name())
	})

	t.Run("MenuItems", func(t *testing.T) {
		assert.Equal(t, []string{"b", "c"}, r.GetMenuItems("a"))
		assert.Equal(t, []string{"c"}, r.GetMenuItems("a/b"))
		assert.Equal(t, []string{"a"}, r.GetMenuItems(""))
		assert.Empty(t, r.GetMenuItems("a/b/c"))
		assert.Empty(t, r.GetMenuItems("missing"))
	})

	t.Run("SegmentPrefixOnly", func(t *testing.T) {
		assert.Empty(t, r.GetMenuItems("a/"+"b/c/d"))
		assert.Len(t, r.GetSettings("a/b"), 1)
		assert.Len(t, r.GetSettings("/a/b/"), 1)
	})

	t.Run("Keys", func(t *testing.T) {
		keys := make([]string, 0)
		for _, e := range r.Entries() {
			keys = append(keys, JoinPath(e.Key()))
		}
		assert.ElementsMatch(t, []string{"set1", "Instance/set2", "Instance/set3", "Instance/set4"}, keys)
	})

	t.Run("ReinitializeReplaces", func(t *testing.T) {
		before := r.Entries()
		require.NoError(t, r.StageTemporary([]string{"set1"}, 5))

		r.Reinitialize()

		after := r.Entries()
		assert.Len(t, after, 4)
		assert.NotSame(t, before[0], after[0])
		assert.Empty(t, r.PendingEdits())
	})
}

func TestRegistryGetSetting(t *testing.T) {
	f := newTestFixture(t)
	r, rec := f.registry(t)

	t.Run("Found", func(t *testing.T) {
		e := r.GetSetting("a/b", "set2")
		require.NotNil(t, e)
		assert.Equal(t, []string{"a", "b"}, e.Path())
		assert.Equal(t, 0, rec.count(SeverityWarning))
	})

	t.Run("WrongPathWarns", func(t *testing.T) {
		assert.Nil(t, r.GetSetting("a/b", "set1"))
		assert.Equal(t, 1, rec.count(SeverityWarning))
	})
}

func TestRegistryClamping(t *testing.T) {
	f := newTestFixture(t)
	r, rec := f.registry(t)

	e := r.GetSetting("", "set1")
	require.NotNil(t, e)

	require.NoError(t, e.Write(200))
	assert.Equal(t, float32(100), f.set1)
	assert.Equal(t, 1, rec.count(SeverityWarning))

	require.NoError(t, e.Write(-20))
	assert.Equal(t, float32(0), f.set1)
	assert.Equal(t, 2, rec.count(SeverityWarning))

	require.NoError(t, e.Write(42.5))
	assert.Equal(t, float32(42.5), f.set1)
	assert.Equal(t, 2, rec.count(SeverityWarning))
}

func TestRegistryChangeSetting(t *testing.T) {
	f := newTestFixture(t)
	r, _ := f.registry(t)

	t.Run("RootSetting", func(t *testing.T) {
		require.NoError(t, r.ChangeSetting([]string{"set1"}, 12))
		assert.Equal(t, float32(12), f.set1)
	})

	t.Run("ThroughContainer", func(t *testing.T) {
		require.NoError(t, r.ChangeSetting([]string{"Instance", "set2"}, "7"))
		assert.Equal(t, 7, f.instance.Set2)

		require.NoError(t, r.ChangeSetting([]string{"Instance", "set4"}, true))
		assert.True(t, f.instance.Set4)
	})

	t.Run("UnknownContainer", func(t *testing.T) {
		err := r.ChangeSetting([]string{"Missing", "set2"}, 1)
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("UnknownSetting", func(t *testing.T) {
		err := r.ChangeSetting([]string{"Instance", "missing"}, 1)
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("EmptyPath", func(t *testing.T) {
		assert.ErrorIs(t, r.ChangeSetting(nil, 1), ErrEmptyPath)
	})

	t.Run("InvalidValue", func(t *testing.T) {
		err := r.ChangeSetting([]string{"Instance", "set2"}, "not a number")
		assert.ErrorIs(t, err, ErrInvalidValue)
		assert.Equal(t, 7, f.instance.Set2)
	})
}

func TestRegistryAmbiguousMatch(t *testing.T) {
	type dupSettings struct {
		A int `setting:"x,dup"`
		B int `setting:"y,dup"`
	}

	holder := &dupSettings{}
	scope := Namespace("dup")
	AddVar(scope, "Holder", &holder, `settings:"contain"`)

	catalog := NewCatalog()
	catalog.Register(scope)
	r := newTestRegistry(catalog)
	r.Initialize(scope)

	err := r.ChangeSetting([]string{"Holder", "dup"}, 1)
	assert.ErrorIs(t, err, ErrAmbiguousMatch)
	assert.Equal(t, 0, holder.A)
	assert.Equal(t, 0, holder.B)
}

type dupAudio struct {
	Volume int `setting:"audio,volume"`
}

func TestRegistryDuplicateContainers(t *testing.T) {
	game := &dupAudio{}
	editor := &dupAudio{}
	gameScope := Namespace("game")
	AddVar(gameScope, "Audio", &game, `settings:"contain"`)
	editorScope := Namespace("editor")
	AddVar(editorScope, "Audio", &editor, `settings:"contain"`)

	catalog := NewCatalog()
	catalog.Register(gameScope, editorScope)
	r := newTestRegistry(catalog)
	r.Initialize(nil)

	require.Len(t, r.Entries(), 2)
	audio := []string{"Audio", "volume"}

	t.Run("Navigation", func(t *testing.T) {
		items, err := r.GetSettingMenuItems(nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"Audio"}, items)

		entries, err := r.GetSettingsAt([]string{"Audio"})
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("ChangeSetting", func(t *testing.T) {
		assert.ErrorIs(t, r.ChangeSetting(audio, 7), ErrAmbiguousMatch)
		assert.Equal(t, 0, game.Volume)
		assert.Equal(t, 0, editor.Volume)
	})

	t.Run("CommitAllPending", func(t *testing.T) {
		require.NoError(t, r.StageTemporary(audio, 9))
		assert.ErrorIs(t, r.CommitAllPending(), ErrAmbiguousMatch)
		assert.Equal(t, 0, game.Volume)
		assert.Equal(t, 0, editor.Volume)
		assert.Empty(t, r.PendingEdits())
	})

	t.Run("Lookup", func(t *testing.T) {
		_, err := r.Lookup(audio)
		assert.ErrorIs(t, err, ErrAmbiguousMatch)
		_, err = r.Get("Audio/volume")
		assert.ErrorIs(t, err, ErrAmbiguousMatch)
	})

	t.Run("SaveSettings", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.toml")
		assert.ErrorIs(t, r.SaveSettings("dup", path), ErrAmbiguousMatch)
		assert.NoFileExists(t, path)

		var buf bytes.Buffer
		assert.ErrorIs(t, r.Dump(&buf), ErrAmbiguousMatch)
	})

	t.Run("LoadSettings", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.toml")
		writeFile(t, path, "[Audio]\nvolume = 4\n")

		require.NoError(t, r.LoadSettings("", path))
		assert.ErrorIs(t, r.CommitAllPending(), ErrAmbiguousMatch)
		assert.Equal(t, 0, game.Volume)
		assert.Equal(t, 0, editor.Volume)
	})
}

func TestRegistryPendingEdits(t *testing.T) {
	f := newTestFixture(t)
	r, _ := f.registry(t)

	t.Run("StageDoesNotWrite", func(t *testing.T) {
		require.NoError(t, r.StageTemporary([]string{"Instance", "set2"}, 5))
		require.NoError(t, r.StageTemporary([]string{"set1"}, 50.5))
		assert.Equal(t, 0, f.instance.Set2)
		assert.Equal(t, map[string]any{"Instance/set2": 5, "set1": 50.5}, r.PendingEdits())
	})

	t.Run("StageOverwrites", func(t *testing.T) {
		require.NoError(t, r.StageTemporary([]string{"Instance", "set2"}, 6))
		assert.Equal(t, 6, r.PendingEdits()["Instance/set2"])
	})

	t.Run("CommitApplies", func(t *testing.T) {
		require.NoError(t, r.CommitAllPending())
		assert.Equal(t, 6, f.instance.Set2)
		assert.Equal(t, float32(50.5), f.set1)
		assert.Empty(t, r.PendingEdits())
	})

	t.Run("CommitReportsFailures", func(t *testing.T) {
		require.NoError(t, r.StageTemporary([]string{"Instance", "missing"}, 1))
		require.NoError(t, r.StageTemporary([]string{"Instance", "set2"}, 9))

		err := r.CommitAllPending()
		assert.ErrorIs(t, err, ErrKeyNotFound)
		assert.Equal(t, 9, f.instance.Set2)
		assert.Empty(t, r.PendingEdits())
	})

	t.Run("Discard", func(t *testing.T) {
		require.NoError(t, r.StageTemporary([]string{"Instance", "set2"}, 1))
		r.DiscardAllPending()
		require.NoError(t, r.CommitAllPending())
		assert.Equal(t, 9, f.instance.Set2)
	})

	t.Run("EmptyPathRejected", func(t *testing.T) {
		assert.ErrorIs(t, r.StageTemporary(nil, 1), ErrEmptyPath)
	})
}

func TestRegistryTemporaryChanges(t *testing.T) {
	f := newTestFixture(t)
	r, _ := f.registry(t)
	f.set1 = 30
	f.instance.Set2 = 4

	t.Run("RestoreAllDefaults", func(t *testing.T) {
		r.RestoreAllDefaults()
		for _, e := range r.Entries() {
			assert.True(t, e.HasPendingChange(), e.Name())
		}

		require.NoError(t, r.CommitAllTemporary())
		assert.Equal(t, float32(1), f.set1)
		assert.Equal(t, 0, f.instance.Set2)
		assert.Nil(t, f.instance.Set3)
		assert.False(t, f.instance.Set4)
	})

	t.Run("DiscardAllTemporary", func(t *testing.T) {
		e := r.GetSetting("a/b", "set2")
		require.NotNil(t, e)
		e.StageTemporary(8)

		r.DiscardAllTemporary()
		assert.False(t, e.HasPendingChange())
		require.NoError(t, r.CommitAllTemporary())
		assert.Equal(t, 0, f.instance.Set2)
	})
}

func TestRegistryUninitialized(t *testing.T) {
	r := newTestRegistry(NewCatalog())

	assert.False(t, r.IsInitialized())
	assert.Empty(t, r.Entries())
	assert.ErrorIs(t, r.StageTemporary([]string{"x"}, 1), ErrNotInitialized)
	assert.ErrorIs(t, r.ChangeSetting([]string{"x"}, 1), ErrNotInitialized)
	assert.ErrorIs(t, r.CommitAllPending(), ErrNotInitialized)

	_, err := r.GetSettingMenuItems(nil)
	assert.ErrorIs(t, err, ErrNotInitialized)

	ok, err := r.Validate()
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

type menuLeaf struct {
	Depth int `setting:"deep,depth,min=0,max=10"`
}

type menuBranch struct {
	Leaf  *menuLeaf `settings:"menu=Leaf"`
	Other menuLeaf  `settings:"contain"`
	Level int       `setting:"branch,level"`
}

type menuCycle struct {
	Self  *menuCycle `settings:"contain"`
	Value int        `setting:"cycle,value"`
}

func TestRegistryContainerWalk(t *testing.T) {
	branch := &menuBranch{Leaf: &menuLeaf{}}
	scope := Namespace("menu")
	AddVar(scope, "Root", &branch, `settings:"entry=Main"`)

	catalog := NewCatalog()
	catalog.Register(scope)
	r := newTestRegistry(catalog)
	r.Initialize(scope)

	ok, err := r.Validate()
	require.NoError(t, err)
	assert.True(t, ok)

	t.Run("GlobalRoots", func(t *testing.T) {
		items, err := r.GetSettingMenuItems(nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"Main"}, items)
	})

	t.Run("Children", func(t *testing.T) {
		items, err := r.GetSettingMenuItems([]string{"Main"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Leaf", "Other"}, items)

		items, err = r.GetSettingMenuItems([]string{"Main", "Leaf"})
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := r.GetSettingMenuItems([]string{"Main", "Nope"})
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("NestedChange", func(t *testing.T) {
		require.NoError(t, r.ChangeSetting([]string{"Main", "Leaf", "depth"}, 50))
		assert.Equal(t, 10, branch.Leaf.Depth)

		require.NoError(t, r.ChangeSetting([]string{"Main", "Other", "depth"}, 3))
		assert.Equal(t, 3, branch.Other.Depth)

		require.NoError(t, r.ChangeSetting([]string{"Main", "level"}, 2))
		assert.Equal(t, 2, branch.Level)
	})

	t.Run("SettingsAt", func(t *testing.T) {
		entries, err := r.GetSettingsAt([]string{"Main", "Leaf"})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "depth", entries[0].Name())
	})

	t.Run("Cycle", func(t *testing.T) {
		c := &menuCycle{}
		c.Self = c
		cycleScope := Namespace("cycle")
		AddVar(cycleScope, "Loop", &c, `settings:"contain"`)

		cycles := NewCatalog()
		cycles.Register(cycleScope)
		cr := newTestRegistry(cycles)
		cr.Initialize(cycleScope)

		assert.Len(t, cr.Entries(), 1)
		ok, err := cr.Validate()
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

type misplacedEntry struct {
	Menu  *menuLeaf `settings:"entry=Bad"`
	Value int       `setting:"x,value"`
}

func TestRegistryValidate(t *testing.T) {
	t.Run("EntryPointOnInstanceMember", func(t *testing.T) {
		holder := &misplacedEntry{Menu: &menuLeaf{}}
		scope := Describe[misplacedEntry]()
		AddVar(scope, "Holder", &holder, `settings:"contain"`)

		catalog := NewCatalog()
		catalog.Register(scope)
		r := newTestRegistry(catalog)
		r.Initialize(scope)

		ok, err := r.Validate()
		assert.False(t, ok)
		assert.ErrorIs(t, err, ErrStaticModifier)
		assert.NotEmpty(t, r.Issues())
	})

	t.Run("MarkerIssues", func(t *testing.T) {
		type badMarkers struct {
			Name string `setting:"x,name,min=0,max=10"`
		}
		holder := &badMarkers{}
		scope := Namespace("bad")
		AddVar(scope, "Holder", &holder, `settings:"contain"`)

		catalog := NewCatalog()
		catalog.Register(scope)
		r := newTestRegistry(catalog)
		r.Initialize(scope)

		ok, err := r.Validate()
		require.NoError(t, err)
		assert.False(t, ok)

		issues := r.Issues()
		require.Len(t, issues, 1)
		assert.Equal(t, "Name", issues[0].Member)
		assert.True(t, errors.As(issues[0], new(Issue)))
	})
}
