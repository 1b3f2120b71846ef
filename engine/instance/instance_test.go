package instance

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/applicator"
	"github.com/Carmen-Shannon/oxy-anim/engine/channel"
	"github.com/Carmen-Shannon/oxy-anim/engine/clock"
	"github.com/Carmen-Shannon/oxy-anim/engine/definition"
	"github.com/Carmen-Shannon/oxy-anim/engine/modifier"
	"github.com/Carmen-Shannon/oxy-anim/engine/target"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testHost struct {
	object        target.SceneObject
	mods          map[string]modifier.Modifier
	now           float64
	simplifyDirty int
	syncDirty     int
	forgotten     []Instance
}

func newTestHost(nodes ...string) *testHost {
	obj := target.NewObject("Avatar")
	for _, name := range nodes {
		obj.Add(target.NewSceneNode(name))
	}
	return &testHost{object: obj, mods: make(map[string]modifier.Modifier)}
}

func (h *testHost) ModifierFor(name string) (modifier.Modifier, error) {
	key := common.NameKey(name)
	if m, ok := h.mods[key]; ok {
		return m, nil
	}
	node, ok := h.object.Resolve(name)
	if !ok {
		return nil, fmt.Errorf("no node %q on %s", name, h.object.Name())
	}
	m := modifier.NewModifier(name, node)
	h.mods[key] = m
	return m, nil
}

func (h *testHost) Now() float64         { return h.now }
func (h *testHost) MarkSimplifyDirty()   { h.simplifyDirty++ }
func (h *testHost) MarkSyncDirty()       { h.syncDirty++ }
func (h *testHost) Forget(inst Instance) { h.forgotten = append(h.forgotten, inst) }

func (h *testHost) tick(t float64) error {
	h.now = t
	var errs []error
	for _, m := range h.mods {
		errs = append(errs, m.ApplyAll(t))
	}
	return errors.Join(errs...)
}

func (h *testHost) dump(t *testing.T, name string) string {
	t.Helper()
	var buf bytes.Buffer
	m, err := h.ModifierFor(name)
	require.NoError(t, err)
	require.NoError(t, m.Dump(&buf, false))
	return buf.String()
}

func (h *testHost) node(name string) target.SceneNode {
	n, _ := h.object.Resolve(name)
	return n.(target.SceneNode)
}

func slide(t *testing.T, name string, dx float32, options ...definition.DefinitionBuilderOption) definition.Definition {
	t.Helper()
	keys, err := channel.NewKeyframes([]channel.Key[common.Matrix4]{
		{Time: 0, Value: common.IdentityMatrix()},
		{Time: 2, Value: common.Transform{Translation: common.Point3{dx, 0, 0}, Rotation: common.IdentityQuat(), Scale: common.Point3{1, 1, 1}}.Matrix()},
	}, channel.InterpolationLinear)
	require.NoError(t, err)
	options = append([]definition.DefinitionBuilderOption{definition.WithTrack("Root", keys, applicator.NewMatrixApplicator())}, options...)
	def, err := definition.NewDefinition(name, options...)
	require.NoError(t, err)
	return def
}

func volume(t *testing.T, name string, v float64, options ...definition.DefinitionBuilderOption) definition.Definition {
	t.Helper()
	options = append([]definition.DefinitionBuilderOption{
		definition.WithRange(0, 1),
		definition.WithTrack("Root", channel.NewConstant(v), applicator.NewVolumeApplicator()),
	}, options...)
	def, err := definition.NewDefinition(name, options...)
	require.NoError(t, err)
	return def
}

func TestAttachBuildsChain(t *testing.T) {
	tests := []struct {
		name     string
		options  []InstanceBuilderOption
		variants []channel.Variant
	}{
		{"plain", nil, []channel.Variant{channel.VariantTimeRemap}},
		{"cache", []InstanceBuilderOption{WithCache(true)}, []channel.Variant{channel.VariantCache, channel.VariantTimeRemap}},
		{"amplitude", []InstanceBuilderOption{WithAmplitude(1)}, []channel.Variant{channel.VariantConstant, channel.VariantTimeRemap}},
		{"both", []InstanceBuilderOption{WithCache(true), WithAmplitude(0.5)}, []channel.Variant{channel.VariantCache, channel.VariantConstant, channel.VariantTimeRemap}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHost("Root")
			inst, err := New(slide(t, "Walk", 2), h, tt.options...)
			require.NoError(t, err)
			assert.Equal(t, StateActive, inst.State())

			contribs := inst.Contributions()
			require.Len(t, contribs, 1)
			var got []channel.Variant
			for _, n := range contribs[0].Nodes {
				got = append(got, n.Variant())
				assert.Equal(t, inst.ID(), n.Owner().Instance)
				assert.Equal(t, "Walk", n.Owner().Animation)
			}
			assert.Equal(t, tt.variants, got)
			assert.Equal(t, contribs[0].Nodes[len(contribs[0].Nodes)-1], contribs[0].Result, "first contribution is installed as the root")
		})
	}
}

// Attaching then detaching restores the applicator graph for every cache and amplitude combination.
func TestAttachDetachRoundTrip(t *testing.T) {
	for _, cache := range []bool{false, true} {
		for _, amp := range []bool{false, true} {
			t.Run(fmt.Sprintf("cache=%t amplitude=%t", cache, amp), func(t *testing.T) {
				h := newTestHost("Root")
				_, err := New(slide(t, "Idle", 1), h)
				require.NoError(t, err)
				before := h.dump(t, "Root")

				options := []InstanceBuilderOption{WithCache(cache), WithBlend(0.5)}
				if amp {
					options = append(options, WithAmplitude(0.3))
				}
				inst, err := New(slide(t, "Wave", 3), h, options...)
				require.NoError(t, err)
				assert.NotEqual(t, before, h.dump(t, "Root"))

				require.NoError(t, inst.Detach())
				assert.Equal(t, before, h.dump(t, "Root"))
				assert.Equal(t, StateDestroyed, inst.State())
				assert.Nil(t, inst.Clock())
				assert.Empty(t, inst.Contributions())
				assert.Equal(t, []Instance{inst}, h.forgotten)
			})
		}
	}
}

func TestDetachTwice(t *testing.T) {
	h := newTestHost("Root")
	inst, err := New(volume(t, "Hum", 0.5), h)
	require.NoError(t, err)
	require.NoError(t, inst.Detach())
	assert.ErrorIs(t, inst.Detach(), ErrAlreadyDetached)
	assert.ErrorIs(t, inst.FadeBlend(0, 1, true), ErrNotAttached)
	assert.ErrorIs(t, inst.FadeAmplitude(0, 1), ErrNotAttached)
	assert.False(t, inst.Step(1))
	assert.Len(t, h.forgotten, 1)
}

func TestAttachMissingModifier(t *testing.T) {
	h := newTestHost("Root")
	keys := channel.NewConstant(1.0)
	def, err := definition.NewDefinition("Wave",
		definition.WithRange(0, 1),
		definition.WithTrack("Root", keys, applicator.NewVolumeApplicator()),
		definition.WithTrack("Hand", keys, applicator.NewOpacityApplicator()),
	)
	require.NoError(t, err)

	_, err = New(def, h)
	require.ErrorIs(t, err, ErrNoModifier)
	var attachErr *AttachError
	require.True(t, errors.As(err, &attachErr))
	assert.Equal(t, "Wave", attachErr.Animation)
	assert.Equal(t, "Hand", attachErr.Channel)

	m, err := h.ModifierFor("Root")
	require.NoError(t, err)
	assert.Empty(t, m.Applicators(), "nothing is merged before validation passes")
}

func TestAttachRollsBack(t *testing.T) {
	h := newTestHost("Root")
	_, err := New(volume(t, "Hum", 0.2), h)
	require.NoError(t, err)
	before := h.dump(t, "Root")

	matrix := channel.NewConstant(common.IdentityMatrix())
	point := channel.NewConstant(common.Point3{1, 0, 0})
	def, err := definition.NewDefinition("Clash",
		definition.WithRange(0, 1),
		definition.WithTrack("Root", channel.NewConstant(1.0), applicator.NewVolumeApplicator()),
		definition.WithTrack("Root", matrix, applicator.NewMatrixApplicator()),
		definition.WithTrack("Root", point, applicator.NewTranslationApplicator()),
	)
	require.NoError(t, err)

	_, err = New(def, h)
	require.ErrorIs(t, err, applicator.ErrIncompatibleChannel)
	var attachErr *AttachError
	require.True(t, errors.As(err, &attachErr))
	assert.Equal(t, "Root", attachErr.Channel)
	assert.Equal(t, before, h.dump(t, "Root"))
}

func TestFadeConverges(t *testing.T) {
	tests := []struct {
		name          string
		from, goal    float64
		rate, elapsed float64
	}{
		{"down", 1, 0, 2, 0.1},
		{"up", 0, 1, -3, 1.0 / 60},
		{"partial", 0.25, 0.75, 0.7, 0.05},
		{"already there", 0.5, 0.5, 1, 0.1},
		{"tenths down", 1, 0, 1, 0.1},
		{"tenths up", 0, 1, 1, 0.1},
		{"inexact rate", 0, 1, 0.3, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHost("Root")
			inst, err := New(volume(t, "Hum", 1), h, WithBlend(tt.from))
			require.NoError(t, err)
			require.NoError(t, inst.FadeBlend(tt.goal, tt.rate, false))
			assert.Equal(t, StateFading, inst.State())

			limit := max(1, int(math.Ceil(abs(tt.goal-tt.from)/(abs(tt.rate)*tt.elapsed))))
			steps := 0
			for inst.Fading() && steps < limit {
				assert.False(t, inst.Step(tt.elapsed))
				steps++
			}
			assert.False(t, inst.Fading(), "converged within %d steps", limit)
			assert.Equal(t, tt.goal, inst.Blend())
			assert.Equal(t, StateActive, inst.State())
			assert.Positive(t, h.syncDirty)
		})
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestFadeThenDetach(t *testing.T) {
	h := newTestHost("Root")
	_, err := New(volume(t, "Base", 0.2), h)
	require.NoError(t, err)
	before := h.dump(t, "Root")

	inst, err := New(volume(t, "Swell", 1), h)
	require.NoError(t, err)
	require.NoError(t, inst.FadeBlend(0, 4, true))

	detached := 0
	for step := 0; step < 10; step++ {
		if inst.Step(0.1) {
			detached++
		}
	}
	assert.Equal(t, 1, detached)
	assert.Equal(t, StateDestroyed, inst.State())
	assert.Equal(t, before, h.dump(t, "Root"))

	require.NoError(t, h.tick(1))
	assert.Equal(t, 0.2, h.node("Root").Volume())
}

func TestFadeDetachesOnLastTick(t *testing.T) {
	h := newTestHost("Root")
	inst, err := New(volume(t, "Swell", 1), h)
	require.NoError(t, err)
	require.NoError(t, inst.FadeBlend(0, 1, true))

	for step := 1; step < 10; step++ {
		require.False(t, inst.Step(0.1), "step %d", step)
	}
	assert.True(t, inst.Step(0.1))
	assert.Equal(t, StateDestroyed, inst.State())
}

func TestZeroRateFade(t *testing.T) {
	h := newTestHost("Root")
	inst, err := New(volume(t, "Hum", 1), h)
	require.NoError(t, err)

	require.NoError(t, inst.FadeBlend(0.4, 0, false))
	assert.Equal(t, 0.4, inst.Blend())
	assert.False(t, inst.Fading())

	require.NoError(t, inst.FadeBlend(0, 0, true))
	assert.Equal(t, StateDestroyed, inst.State())
}

func TestAmplitude(t *testing.T) {
	h := newTestHost("Root")
	plain, err := New(volume(t, "Hum", 1), h)
	require.NoError(t, err)
	assert.Equal(t, -1.0, plain.Amplitude())
	plain.SetAmplitude(0.5)
	assert.Equal(t, -1.0, plain.Amplitude(), "unused amplitude ignores writes")
	require.NoError(t, plain.FadeAmplitude(0, 1))
	assert.False(t, plain.Fading())
	require.NoError(t, plain.Detach())

	inst, err := New(slide(t, "Wave", 4), h, WithAmplitude(1))
	require.NoError(t, err)
	inst.Start()
	require.NoError(t, h.tick(1))
	assert.InDelta(t, 2, h.node("Root").Local().Translation[0], 1e-4)

	require.NoError(t, inst.FadeAmplitude(0, 10))
	assert.False(t, inst.Step(1), "amplitude fades never detach")
	assert.Equal(t, 0.0, inst.Amplitude())
	require.NoError(t, h.tick(1.5))
	assert.InDelta(t, 0, h.node("Root").Local().Translation[0], 1e-4, "zero amplitude holds the first frame")
}

func TestSetBlendMarksSimplifyAtBoundaries(t *testing.T) {
	h := newTestHost("Root")
	inst, err := New(volume(t, "Hum", 1), h)
	require.NoError(t, err)

	base := h.simplifyDirty
	inst.SetBlend(0.5)
	assert.Equal(t, base+1, h.simplifyDirty, "leaving 1")
	inst.SetBlend(0.6)
	assert.Equal(t, base+1, h.simplifyDirty)
	inst.SetBlend(0)
	assert.Equal(t, base+2, h.simplifyDirty, "reaching 0")
	inst.SetBlend(0)
	assert.Equal(t, base+2, h.simplifyDirty)
}

func TestBlendWeightsMix(t *testing.T) {
	h := newTestHost("Root")
	_, err := New(volume(t, "Low", 0.2), h)
	require.NoError(t, err)
	high, err := New(volume(t, "High", 1), h, WithBlend(0.5))
	require.NoError(t, err)

	require.NoError(t, h.tick(0))
	assert.InDelta(t, 0.6, h.node("Root").Volume(), 1e-9)
	high.SetBlend(1)
	require.NoError(t, h.tick(0.1))
	assert.InDelta(t, 1.0, h.node("Root").Volume(), 1e-9)
}

func TestPlaybackAndMarkers(t *testing.T) {
	h := newTestHost("Root")
	def := slide(t, "Walk", 2, definition.WithMarker("Step", 1), definition.WithStopPoints(0.5, 1.5))
	inst, err := New(def, h)
	require.NoError(t, err)

	var events []clock.Event
	require.NoError(t, inst.OnMarker("step", func(e clock.Event) { events = append(events, e) }))
	assert.ErrorIs(t, inst.OnMarker("jump", nil), ErrUnknownMarker)
	at, ok := inst.Marker("STEP")
	require.True(t, ok)
	assert.Equal(t, 1.0, at)

	assert.True(t, inst.IsFinished(), "not autostarted")
	inst.Start()
	require.NoError(t, h.tick(1.25))
	assert.InDelta(t, 1.25, inst.AnimTime(), 1e-9)
	assert.InDelta(t, 1.25, h.node("Root").Local().Translation[0], 1e-4)
	require.Len(t, events, 1)
	assert.Equal(t, "step", events[0].Name)
	assert.InDelta(t, 1.75, inst.WorldToAnimTime(1.75), 1e-9)

	require.True(t, inst.StopAtNextStopPoint())
	require.NoError(t, h.tick(2))
	assert.True(t, inst.IsFinished())
	assert.InDelta(t, 1.5, inst.AnimTime(), 1e-9)
	assert.False(t, inst.IsAtEnd())

	inst.SetCurrentTime(2, true)
	assert.True(t, inst.IsAtEnd())
	inst.SeekRelative(-1.5, true)
	assert.InDelta(t, 0.5, inst.AnimTime(), 1e-9)

	inst.SetSpeed(2)
	inst.PlayToPercentage(1)
	require.NoError(t, h.tick(2.5))
	assert.InDelta(t, 1.5, inst.AnimTime(), 1e-9)
	require.NoError(t, h.tick(5))
	assert.True(t, inst.IsAtEnd())
}

func TestAutoStartAndLoopOverride(t *testing.T) {
	h := newTestHost("Root")
	h.now = 10
	def := slide(t, "Walk", 2, definition.WithAutoStart(true))
	inst, err := New(def, h, WithLoop(true), WithSpeed(0.5))
	require.NoError(t, err)
	assert.False(t, inst.IsFinished())
	require.NoError(t, h.tick(15))
	assert.InDelta(t, 0.5, inst.AnimTime(), 1e-9, "2.5s of anim time wraps in a 2s loop")
}

func TestDrivenDefinition(t *testing.T) {
	h := newTestHost("Root")
	def := slide(t, "Lever", 4, definition.WithDriven(true))

	_, err := New(def, h)
	assert.ErrorIs(t, err, ErrNoDriver)

	pos := 0.25
	inst, err := New(def, h, WithDriver(channel.Weight(&pos)))
	require.NoError(t, err)
	assert.Nil(t, inst.Clock())
	assert.False(t, inst.IsFinished())

	require.NoError(t, h.tick(100))
	assert.InDelta(t, 0.5, inst.AnimTime(), 1e-9)
	assert.InDelta(t, 1, h.node("Root").Local().Translation[0], 1e-4)

	pos = 7
	require.NoError(t, h.tick(101))
	assert.InDelta(t, 2, inst.AnimTime(), 1e-9, "driver values are clamped")
}

func TestSharesPinsWith(t *testing.T) {
	h := newTestHost("Root", "Hand")
	walk, err := New(slide(t, "Walk", 1), h)
	require.NoError(t, err)
	run, err := New(slide(t, "Run", 2), h)
	require.NoError(t, err)
	hum, err := New(volume(t, "Hum", 1), h)
	require.NoError(t, err)

	assert.True(t, walk.SharesPinsWith(run))
	assert.False(t, walk.SharesPinsWith(hum), "same channel, different pin")
	assert.False(t, walk.SharesPinsWith(nil))
}

func TestDump(t *testing.T) {
	h := newTestHost("Root")
	inst, err := New(slide(t, "Walk", 1), h, WithCache(true), WithPriority(3))
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, inst.Dump(&buf))
	out := buf.String()
	assert.Contains(t, out, `instance "Walk"`)
	assert.Contains(t, out, "priority=3")
	assert.Contains(t, out, `channel "Root" -> modifier "Root"`)
	assert.Contains(t, out, "cache matrix")
}
