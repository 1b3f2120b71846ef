package instance

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-anim/engine/clock"
)

func (i *instance) Start() {
	if i.clock != nil {
		i.clock.Start(i.host.Now())
	}
}

func (i *instance) Stop() {
	if i.clock != nil {
		i.clock.Stop(i.host.Now())
	}
}

func (i *instance) SetSpeed(speed float64) {
	if i.clock != nil {
		i.clock.SetSpeed(speed)
	}
}

func (i *instance) SetLoop(on bool) {
	if i.clock != nil {
		i.clock.SetLoop(on)
	}
}

func (i *instance) SetCurrentTime(t float64, jump bool) {
	if i.clock != nil {
		i.clock.SetCurrentAnimTime(t, jump)
	}
}

func (i *instance) SeekRelative(delta float64, jump bool) {
	if i.clock != nil {
		i.clock.SetCurrentAnimTime(i.clock.Peek(i.host.Now())+delta, jump)
	}
}

func (i *instance) PlayToTime(t float64) {
	if i.clock != nil {
		i.clock.PlayToTime(t, i.host.Now())
	}
}

func (i *instance) PlayToPercentage(p float64) {
	if i.clock != nil {
		i.clock.PlayToPercentage(p, i.host.Now())
	}
}

func (i *instance) StopAtNextStopPoint() bool {
	if i.clock == nil {
		return false
	}
	next, ok := i.def.NextStopPoint(i.clock.Peek(i.host.Now()), i.clock.Backwards())
	if !ok {
		return false
	}
	i.clock.PlayToTime(next, i.host.Now())
	return true
}

func (i *instance) AnimTime() float64 {
	return i.WorldToAnimTime(i.host.Now())
}

func (i *instance) WorldToAnimTime(w float64) float64 {
	switch {
	case i.clock != nil:
		return i.clock.Peek(w)
	case i.def.Driven() && i.attached():
		return i.timeSource.Value(w)
	}
	return 0
}

func (i *instance) IsFinished() bool {
	return i.clock != nil && i.clock.IsStopped()
}

func (i *instance) IsAtEnd() bool {
	return i.clock != nil && i.clock.Peek(i.host.Now()) == i.clock.End()
}

func (i *instance) Marker(name string) (float64, bool) {
	return i.def.Marker(name)
}

func (i *instance) OnMarker(name string, fn func(clock.Event)) error {
	if i.clock == nil {
		return fmt.Errorf("%w: %s has no clock", ErrNotAttached, i.def.Name())
	}
	at, ok := i.def.Marker(name)
	if !ok {
		return fmt.Errorf("%w: %q in %s", ErrUnknownMarker, name, i.def.Name())
	}
	i.clock.AddCallback(clock.Callback{Event: clock.EventTime, Name: name, Time: at, Repeats: -1, Fn: fn})
	return nil
}
