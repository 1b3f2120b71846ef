package instance

import (
	"fmt"
	"math"
)

func (i *instance) Blend() float64 {
	return i.blend
}

func (i *instance) SetBlend(v float64) float64 {
	old := i.blend
	if old != v && (old == 0 || v == 0 || old == 1 || v == 1) {
		i.host.MarkSimplifyDirty()
	}
	i.blend = v
	return v
}

func (i *instance) Amplitude() float64 {
	return i.amplitude
}

func (i *instance) SetAmplitude(v float64) {
	old := i.amplitude
	if old == -1 {
		return
	}
	if old != v && (old == 0 || v == 0 || old == 1 || v == 1) {
		i.host.MarkSimplifyDirty()
	}
	i.amplitude = v
}

func (i *instance) Fading() bool {
	return i.blendFade.active || i.ampFade.active
}

func (i *instance) FadeBlend(goal, rate float64, detach bool) error {
	if !i.attached() {
		return fmt.Errorf("%w: %s", ErrNotAttached, i.def.Name())
	}
	if rate == 0 {
		i.SetBlend(goal)
		i.blendFade = fade{}
		i.syncState()
		if detach {
			return i.Detach()
		}
		return nil
	}
	i.blendFade = fade{active: true, goal: goal, rate: towards(i.blend, goal, rate), detach: detach}
	i.syncState()
	return nil
}

func (i *instance) FadeAmplitude(goal, rate float64) error {
	if !i.attached() {
		return fmt.Errorf("%w: %s", ErrNotAttached, i.def.Name())
	}
	if i.amplitude == -1 {
		return nil
	}
	if rate == 0 {
		i.SetAmplitude(goal)
		i.ampFade = fade{}
		i.syncState()
		return nil
	}
	i.ampFade = fade{active: true, goal: goal, rate: towards(i.amplitude, goal, rate)}
	i.syncState()
	return nil
}

// towards signs rate so that it moves cur to goal.
func towards(cur, goal, rate float64) float64 {
	rate = math.Abs(rate)
	if cur > goal {
		return -rate
	}
	return rate
}

func (i *instance) Step(elapsed float64) bool {
	if !i.attached() {
		return false
	}
	if i.blendFade.active {
		v := i.advance(&i.blendFade, i.blend, elapsed)
		i.SetBlend(v)
		if i.blendFade.detach && v == i.blendFade.goal && i.blendFade.goal == 0 {
			if err := i.Detach(); err == nil {
				return true
			}
		}
	}
	if i.ampFade.active && i.amplitude != -1 {
		i.SetAmplitude(i.advance(&i.ampFade, i.amplitude, elapsed))
	}
	i.syncState()
	return false
}

// advance moves cur one step along f. A step that would reach or pass the goal lands exactly on it,
// within a tolerance for accumulated rounding, and ends the fade.
func (i *instance) advance(f *fade, cur, elapsed float64) float64 {
	step := f.rate * elapsed
	v := cur + step
	if math.Abs(f.goal-cur) <= math.Abs(step)+1e-9*math.Max(1, math.Abs(f.goal)) {
		v = f.goal
	}
	if v == f.goal {
		f.active = false
		i.host.MarkSyncDirty()
	}
	return v
}

func (i *instance) syncState() {
	if !i.attached() {
		return
	}
	if i.Fading() {
		i.state = StateFading
	} else {
		i.state = StateActive
	}
}
