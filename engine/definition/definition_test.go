package definition

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/applicator"
	"github.com/Carmen-Shannon/oxy-anim/engine/channel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const walkYAML = `
name: Walk
loop: true
autostart: true
markers:
  Step: 0.5
stop_points: [1.5, 0.5]
channels:
  - name: Root
    kind: matrix
    pin: transform
    keys:
      - time: 0
        value: {translation: [0, 0, 0]}
      - time: 2
        value:
          translation: [4, 0, 0]
          rotation: {axis: [0, 1, 0], angle: 0}
          scale: [1, 1, 1]
  - name: Root
    kind: scalar
    pin: audio
    interpolation: step
    keys:
      - {time: 0, value: 1}
      - {time: 1, value: 0.5}
  - name: Lamp
    kind: scalar
    property: glow
    persistent: true
    keys:
      - {time: 0, value: 0}
      - {time: 2, value: 1}
`

func constTrack(name string) DefinitionBuilderOption {
	return WithTrack(name, channel.NewConstant(1.0), applicator.NewVolumeApplicator())
}

func TestNewDefinitionDefaults(t *testing.T) {
	keys, err := channel.NewKeyframes([]channel.Key[float64]{{Time: 0, Value: 0}, {Time: 3, Value: 1}}, channel.InterpolationLinear)
	require.NoError(t, err)
	def, err := NewDefinition("Door", WithTrack("Hinge", keys, applicator.NewPropertyApplicator("angle")))
	require.NoError(t, err)

	assert.Equal(t, 0.0, def.Begin())
	assert.Equal(t, 3.0, def.End(), "range spans the sources")
	assert.Equal(t, 3.0, def.Length())
	assert.Equal(t, 0.0, def.LoopBegin())
	assert.Equal(t, 3.0, def.LoopEnd(), "empty loop range uses the playable range")
	initial, ok := def.InitialTime()
	assert.False(t, ok)
	assert.Equal(t, 0.0, initial)
}

func TestNewDefinitionValidation(t *testing.T) {
	tests := []struct {
		name    string
		anim    string
		options []DefinitionBuilderOption
	}{
		{"missing name", " ", nil},
		{"reversed range", "a", []DefinitionBuilderOption{WithRange(2, 1)}},
		{"initial time outside", "a", []DefinitionBuilderOption{WithRange(0, 1), WithInitialTime(2)}},
		{"unnamed track", "a", []DefinitionBuilderOption{constTrack("")}},
		{"missing template", "a", []DefinitionBuilderOption{WithTrack("x", channel.NewConstant(1.0), nil)}},
		{"kind mismatch", "a", []DefinitionBuilderOption{WithTrack("x", channel.NewConstant(common.Point3{}), applicator.NewVolumeApplicator())}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDefinition(tt.anim, tt.options...)
			assert.ErrorIs(t, err, ErrInvalidDefinition)
		})
	}
}

func TestMarkersAndStopPoints(t *testing.T) {
	def, err := NewDefinition("Door",
		WithRange(0, 4),
		WithMarker("Open", 1),
		WithStopPoints(3, 1, 2),
		constTrack("Hinge"),
	)
	require.NoError(t, err)

	at, ok := def.Marker("OPEN")
	require.True(t, ok)
	assert.Equal(t, 1.0, at)
	_, ok = def.Marker("closed")
	assert.False(t, ok)
	def.Markers()["open"] = 9
	at, _ = def.Marker("open")
	assert.Equal(t, 1.0, at, "markers are read-only")

	assert.Equal(t, []float64{1, 2, 3}, def.StopPoints())
	next, ok := def.NextStopPoint(1, false)
	require.True(t, ok)
	assert.Equal(t, 2.0, next)
	prev, ok := def.NextStopPoint(1.5, true)
	require.True(t, ok)
	assert.Equal(t, 1.0, prev)
	_, ok = def.NextStopPoint(3, false)
	assert.False(t, ok)
}

func TestTrackLookupIsCaseInsensitive(t *testing.T) {
	def, err := NewDefinition("Door", constTrack("Hinge"))
	require.NoError(t, err)
	tr, ok := def.Track("hinge")
	require.True(t, ok)
	assert.Equal(t, "Hinge", tr.Name)
	_, ok = def.Track("latch")
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	def, err := Parse([]byte(walkYAML))
	require.NoError(t, err)

	assert.Equal(t, "Walk", def.Name())
	assert.True(t, def.Loop())
	assert.True(t, def.AutoStart())
	assert.Equal(t, 2.0, def.End())
	assert.Equal(t, []float64{0.5, 1.5}, def.StopPoints())
	step, ok := def.Marker("step")
	require.True(t, ok)
	assert.Equal(t, 0.5, step)

	tracks := def.Tracks()
	require.Len(t, tracks, 3)

	root, ok := channel.As[common.Matrix4](tracks[0].Root)
	require.True(t, ok)
	m := root.Value(1)
	mid := common.DecomposeMatrix(m[:])
	assert.InDelta(t, 2, mid.Translation[0], 1e-4)
	assert.Equal(t, applicator.PinTransform, tracks[0].Template.Pin())
	assert.Equal(t, "Root", tracks[0].Template.Name())

	vol, ok := channel.As[float64](tracks[1].Root)
	require.True(t, ok)
	assert.Equal(t, 1.0, vol.Value(0.9), "step interpolation")
	assert.Equal(t, applicator.PinAudio, tracks[1].Template.Pin())

	assert.Equal(t, applicator.PinUnassigned, tracks[2].Template.Pin())
	assert.False(t, tracks[2].Template.AutoDelete())
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"bad yaml":     "name: [",
		"bad kind":     "name: a\nchannels: [{name: x, kind: colour, keys: [{time: 0, value: 1}]}]",
		"bad pin":      "name: a\nchannels: [{name: x, kind: scalar, pin: light, keys: [{time: 0, value: 1}]}]",
		"no keys":      "name: a\nchannels: [{name: x, kind: scalar, pin: audio}]",
		"bad point":    "name: a\nchannels: [{name: x, kind: point, pin: transform, keys: [{time: 0, value: 3}]}]",
		"unknown attr": "name: a\nchannels: [{name: x, kind: quat, pin: transform, keys: [{time: 0, value: {axis: [0, 1, 0], angel: 1}}]}]",
		"bad interp":   "name: a\nchannels: [{name: x, kind: scalar, pin: audio, interpolation: cubic, keys: [{time: 0, value: 1}]}]",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidDefinition)
		})
	}
}

func TestLibrary(t *testing.T) {
	a, err := NewDefinition("Walk", constTrack("Root"))
	require.NoError(t, err)
	b, err := NewDefinition("Run", constTrack("Root"))
	require.NoError(t, err)

	lib := NewLibrary(a, b)
	assert.Equal(t, 2, lib.Len())
	assert.Equal(t, []string{"Run", "Walk"}, lib.Names())

	got, err := lib.Get("WALK")
	require.NoError(t, err)
	assert.Equal(t, a, got)

	_, err = lib.Get("jump")
	assert.ErrorIs(t, err, ErrUnknownAnimation)

	assert.True(t, lib.Remove("run"))
	assert.False(t, lib.Remove("run"))
	assert.Equal(t, 1, lib.Len())
}

func TestLibraryLoadAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "walk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(walkYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	lib := NewLibrary()
	require.NoError(t, lib.LoadDir(dir))
	assert.Equal(t, []string{"Walk"}, lib.Names())

	require.NoError(t, os.WriteFile(path, []byte("name: [broken"), 0o644))
	_, err := lib.Reload(path)
	assert.Error(t, err)
	_, err = lib.Get("walk")
	assert.NoError(t, err, "a failed reload keeps the previous definition")

	require.NoError(t, os.WriteFile(path, []byte("name: Stroll\nchannels: [{name: Root, kind: scalar, pin: audio, keys: [{time: 0, value: 1}]}]"), 0o644))
	def, err := lib.Reload(path)
	require.NoError(t, err)
	assert.Equal(t, "Stroll", def.Name())
	assert.Equal(t, []string{"Stroll"}, lib.Names(), "a renamed definition replaces the old name")

	require.NoError(t, os.Remove(path))
	def, err = lib.Reload(path)
	require.NoError(t, err)
	assert.Nil(t, def)
	assert.Zero(t, lib.Len())
}

func TestWatcherReloadsChangedFiles(t *testing.T) {
	dir := t.TempDir()
	staging := t.TempDir()
	lib := NewLibrary()
	w, err := NewWatcher(lib, []string{dir}, WithDebounce(time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	src := filepath.Join(staging, "walk.yaml")
	require.NoError(t, os.WriteFile(src, []byte(walkYAML), 0o644))
	require.NoError(t, os.Rename(src, filepath.Join(dir, "walk.yaml")))

	timeout := time.After(5 * time.Second)
	for {
		select {
		case change := <-w.Events:
			if change.Definition == nil {
				continue
			}
			assert.Equal(t, "Walk", change.Definition.Name())
			_, err := lib.Get("walk")
			assert.NoError(t, err)
			require.NoError(t, w.Close())
			require.NoError(t, w.Close())
			return
		case <-w.Errors:
		case <-timeout:
			t.Fatal("no reload event")
		}
	}
}

func TestWatcherReloadsLastWriteOfABurst(t *testing.T) {
	dir := t.TempDir()
	lib := NewLibrary()
	w, err := NewWatcher(lib, []string{dir}, WithDebounce(200*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	path := filepath.Join(dir, "walk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [unterminated"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(walkYAML), 0o644))

	select {
	case change := <-w.Events:
		require.NotNil(t, change.Definition)
		assert.Equal(t, "Walk", change.Definition.Name())
	case err := <-w.Errors:
		t.Fatalf("reloaded a partial write: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload event")
	}

	select {
	case change := <-w.Events:
		t.Fatalf("burst reloaded twice: %+v", change)
	case err := <-w.Errors:
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(500 * time.Millisecond):
	}
}
