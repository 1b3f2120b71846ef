package channel

import (
	"bytes"
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(t *testing.T) Channel[float64] {
	t.Helper()
	ch, err := NewKeyframes([]Key[float64]{{Time: 0, Value: 0}, {Time: 2, Value: 10}}, InterpolationLinear)
	require.NoError(t, err)
	return ch
}

func fixed(v float64) Scalar {
	return ScalarFunc(func(float64) float64 { return v })
}

func testOwner(name string) Owner {
	return Owner{Instance: uuid.New(), Animation: name, Channel: "Root"}
}

func TestKeyframes(t *testing.T) {
	tests := []struct {
		name   string
		interp Interpolation
		at     float64
		want   float64
	}{
		{"before first key clamps", InterpolationLinear, -1, 0},
		{"midpoint interpolates", InterpolationLinear, 1, 5},
		{"after last key clamps", InterpolationLinear, 5, 10},
		{"exact key", InterpolationLinear, 2, 10},
		{"step holds previous", InterpolationStep, 1.9, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch, err := NewKeyframes([]Key[float64]{{Time: 2, Value: 10}, {Time: 0, Value: 0}}, tt.interp)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, ch.Value(tt.at), 1e-9)
		})
	}
}

func TestKeyframesRequiresKeys(t *testing.T) {
	_, err := NewKeyframes[float64](nil, InterpolationLinear)
	assert.ErrorIs(t, err, ErrNoKeys)
}

func TestParseInterpolation(t *testing.T) {
	mode, err := ParseInterpolation("step")
	require.NoError(t, err)
	assert.Equal(t, InterpolationStep, mode)

	_, err = ParseInterpolation("cubic")
	assert.Error(t, err)
}

func TestBlendWeights(t *testing.T) {
	a := NewConstant(2.0)
	b := NewConstant(4.0)
	tests := []struct {
		weight float64
		want   float64
	}{
		{0, 2},
		{0.25, 2.5},
		{1, 4},
		{-1, 2},
		{2, 4},
	}
	for _, tt := range tests {
		n := Blend(a, b, fixed(tt.weight), 0, nil, Owner{})
		assert.InDelta(t, tt.want, n.Value(0), 1e-9, "weight %v", tt.weight)
	}
}

func TestBlendPriorityPlacement(t *testing.T) {
	base := NewConstant(1.0)
	high := NewConstant(2.0)
	low := NewConstant(3.0)

	root := Blend(base, high, fixed(1), 10, nil, Owner{})
	top := Blend(root, low, fixed(1), 5, nil, Owner{})

	// lower priority lands under the existing blend
	assert.Same(t, root, top)
	children := top.Children()
	require.Len(t, children, 2)
	assert.Equal(t, VariantBlend, children[0].Variant())
	assert.Equal(t, high, children[1])

	// equal priority goes on top
	eq := Blend(top, NewConstant(4.0), fixed(1), 10, nil, Owner{})
	assert.NotSame(t, top, eq)
	assert.Equal(t, top, eq.Children()[0])
}

func TestBlendCustomPriority(t *testing.T) {
	never := func(incoming, existing int) bool { return false }
	root := Blend(NewConstant(1.0), NewConstant(2.0), fixed(1), 0, never, Owner{})
	again := Blend(root, NewConstant(3.0), fixed(1), 100, never, Owner{})
	assert.Same(t, root, again)
}

func TestBlendInheritPriority(t *testing.T) {
	root := Blend(NewConstant(1.0), NewConstant(2.0), fixed(1), 3, nil, Owner{})
	top := Blend(root, NewConstant(3.0), fixed(1), InheritPriority, nil, Owner{})
	assert.NotSame(t, root, top)

	inherited, ok := top.(interface{ Priority() int })
	require.True(t, ok)
	assert.Equal(t, 3, inherited.Priority(), "an inheriting blend records the priority it inherited")

	// A later contribution at priority 2 ranks below the inherited 3 and is pushed under it.
	again := Blend(top, NewConstant(4.0), fixed(1), 2, nil, Owner{})
	assert.Same(t, top, again)
}

func TestInterpolateKinds(t *testing.T) {
	p := Interpolate(common.Point3{0, 0, 0}, common.Point3{2, 4, 6}, 0.5)
	assert.Equal(t, common.Point3{1, 2, 3}, p)

	q := Interpolate(common.IdentityQuat(), common.QuatFromAxisAngle(common.Point3{0, 0, 1}, 1), 0.5)
	want := common.QuatFromAxisAngle(common.Point3{0, 0, 1}, 0.5)
	for i := range q {
		assert.InDelta(t, want[i], q[i], 1e-5)
	}

	ma := common.Transform{Translation: common.Point3{0, 0, 0}, Rotation: common.IdentityQuat(), Scale: common.Point3{1, 1, 1}}.Matrix()
	mb := common.Transform{Translation: common.Point3{4, 0, 0}, Rotation: common.IdentityQuat(), Scale: common.Point3{3, 3, 3}}.Matrix()
	m := Interpolate(ma, mb, 0.5)
	assert.InDelta(t, 2, m[12], 1e-5)
	assert.InDelta(t, 2, m[0], 1e-5)
	assert.Equal(t, KindMatrix, KindOf[common.Matrix4]())
}

func TestTimeRemap(t *testing.T) {
	src := ramp(t)
	double := ScalarFunc(func(t float64) float64 { return t * 2 })
	n := TimeRemap(src, double, testOwner("walk"))
	assert.InDelta(t, 5, n.Value(0.5), 1e-9)
	assert.Equal(t, VariantTimeRemap, n.Variant())
}

type countingSource struct {
	calls int
}

func (c *countingSource) fn(t float64) float64 {
	c.calls++
	return t
}

type jumpClock struct {
	epoch uint64
}

func (j *jumpClock) Value(t float64) float64 { return t }
func (j *jumpClock) Epoch() uint64           { return j.epoch }

func TestCacheMemoizes(t *testing.T) {
	counter := &countingSource{}
	clk := &jumpClock{}
	n := Cache(NewFunc(counter.fn), clk, testOwner("walk"))

	n.Value(1)
	n.Value(1)
	assert.Equal(t, 1, counter.calls)

	n.Value(2)
	assert.Equal(t, 2, counter.calls)

	clk.epoch++
	n.Value(2)
	assert.Equal(t, 3, counter.calls)
}

func TestSnapshot(t *testing.T) {
	src := ramp(t)
	snap := Snapshot(src, 1, testOwner("walk"))
	assert.InDelta(t, 5, snap.Value(100), 1e-9)
	assert.Equal(t, VariantConstant, snap.Variant())
	assert.False(t, snap.Owner().IsZero())
}

func TestRemoveRules(t *testing.T) {
	src := ramp(t)
	owner := testOwner("walk")

	t.Run("time remap vanishes with its child", func(t *testing.T) {
		c := NewConstant(1.0)
		tr := TimeRemap(c, fixed(0), owner)
		root, found := tr.Remove(c)
		assert.True(t, found)
		assert.Nil(t, root)
	})

	t.Run("time remap target vanishes", func(t *testing.T) {
		tr := TimeRemap(src, fixed(0), owner)
		root, found := tr.Remove(tr)
		assert.True(t, found)
		assert.Nil(t, root)
	})

	t.Run("cache target is replaced by child", func(t *testing.T) {
		c := Cache(src, nil, owner)
		tr := TimeRemap(c, fixed(0), owner)
		root, found := tr.Remove(c)
		assert.True(t, found)
		assert.Same(t, tr, root)
		assert.Equal(t, Node(src), tr.Children()[0])
	})

	t.Run("blend collapses to survivor", func(t *testing.T) {
		a := TimeRemap(src, fixed(0), owner)
		b := TimeRemap(src, fixed(0), owner)
		bl := Blend(a, b, fixed(0.5), 0, nil, owner)

		root, found := bl.Remove(a)
		assert.True(t, found)
		assert.Same(t, b, root)
	})

	t.Run("blend keeps itself when removal is deeper", func(t *testing.T) {
		c := Cache(src, nil, owner)
		a := TimeRemap(c, fixed(0), owner)
		b := TimeRemap(src, fixed(0), owner)
		bl := Blend(a, b, fixed(0.5), 0, nil, owner)

		root, found := bl.Remove(c)
		assert.True(t, found)
		assert.Same(t, bl, root)
		assert.False(t, Contains(root, c))
	})

	t.Run("missing target leaves tree unchanged", func(t *testing.T) {
		tr := TimeRemap(src, fixed(0), owner)
		root, found := tr.Remove(NewConstant(1.0))
		assert.False(t, found)
		assert.Same(t, tr, root)
	})

	t.Run("shared source only vanishes when targeted", func(t *testing.T) {
		root, found := src.Remove(NewConstant(0.0))
		assert.False(t, found)
		assert.Same(t, src, root)
	})
}

func TestSimplifyBypassesPinnedBlends(t *testing.T) {
	a := NewConstant(1.0)
	b := NewConstant(2.0)
	w := 0.0
	bl := Blend(a, b, Weight(&w), 0, nil, Owner{})

	assert.Same(t, a, bl.Simplify(0))
	w = 1
	assert.Same(t, b, bl.Simplify(0))
	w = 0.5
	assert.Same(t, bl, bl.Simplify(0))
	assert.InDelta(t, 1.5, bl.Value(0), 1e-9)
}

func TestSimplifyNested(t *testing.T) {
	w := 0.0
	inner := Blend(NewConstant(1.0), NewConstant(5.0), Weight(&w), 0, nil, Owner{})
	tr := TimeRemap(inner, fixed(0), Owner{})
	assert.Same(t, tr, tr.Simplify(0))
	assert.InDelta(t, 1, tr.Value(0), 1e-9)
}

func TestWalkCountDump(t *testing.T) {
	src := ramp(t)
	owner := testOwner("walk")
	root := Blend(TimeRemap(src, fixed(0), owner), TimeRemap(src, fixed(0), owner), fixed(0.5), 0, nil, owner)
	assert.Equal(t, 5, Count(root))
	assert.True(t, Contains(root, src))

	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, root, 0))
	out := buf.String()
	assert.Contains(t, out, "- blend scalar")
	assert.Contains(t, out, "  - timeRemap scalar")
	assert.Contains(t, out, "[shared]")
}

func TestAs(t *testing.T) {
	var n Node = NewConstant(common.Point3{1, 2, 3})
	_, ok := As[float64](n)
	assert.False(t, ok)
	p, ok := As[common.Point3](n)
	require.True(t, ok)
	assert.Equal(t, common.Point3{1, 2, 3}, p.Value(0))

	_, ok = As[float64](nil)
	assert.False(t, ok)
}
