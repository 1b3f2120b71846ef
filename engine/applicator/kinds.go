package applicator

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/channel"
	"github.com/Carmen-Shannon/oxy-anim/engine/target"
)

func noSink(a interface{ Pin() PinType }, node target.Node) error {
	return fmt.Errorf("%w: %s on node %q", ErrNoSink, a.Pin(), node.Name())
}

// NewMatrixApplicator creates a transform applicator that writes full local-to-parent
// matrices together with their inverse. A singular matrix writes a zero inverse.
//
// Parameters:
//   - options: functional options for the applicator
//
// Returns:
//   - Applicator: the matrix applicator
func NewMatrixApplicator(options ...ApplicatorBuilderOption) Applicator {
	return newApplicator[common.Matrix4](PinTransform, func(a *applicator[common.Matrix4], node target.Node, v common.Matrix4) error {
		sink := node.Transform()
		if sink == nil {
			return noSink(a, node)
		}
		var inv common.Matrix4
		common.Invert4(inv[:], v[:])
		sink.SetLocalToParent(v, inv)
		return nil
	}, options)
}

// NewTranslationApplicator creates a transform applicator that writes only the translation.
//
// Parameters:
//   - options: functional options for the applicator
//
// Returns:
//   - Applicator: the point applicator
func NewTranslationApplicator(options ...ApplicatorBuilderOption) Applicator {
	return newApplicator[common.Point3](PinTransform, func(a *applicator[common.Point3], node target.Node, v common.Point3) error {
		sink := node.Transform()
		if sink == nil {
			return noSink(a, node)
		}
		sink.SetTranslation(v)
		return nil
	}, options)
}

// NewRotationApplicator creates a transform applicator that writes only the rotation.
//
// Parameters:
//   - options: functional options for the applicator
//
// Returns:
//   - Applicator: the quaternion applicator
func NewRotationApplicator(options ...ApplicatorBuilderOption) Applicator {
	return newApplicator[common.Quat](PinTransform, func(a *applicator[common.Quat], node target.Node, v common.Quat) error {
		sink := node.Transform()
		if sink == nil {
			return noSink(a, node)
		}
		sink.SetRotation(v)
		return nil
	}, options)
}

// NewVelocityApplicator creates a simulation applicator that writes a kinematic velocity.
//
// Parameters:
//   - options: functional options for the applicator
//
// Returns:
//   - Applicator: the point applicator
func NewVelocityApplicator(options ...ApplicatorBuilderOption) Applicator {
	return newApplicator[common.Point3](PinSimulation, func(a *applicator[common.Point3], node target.Node, v common.Point3) error {
		sink := node.Simulation()
		if sink == nil {
			return noSink(a, node)
		}
		sink.SetVelocity(v)
		return nil
	}, options)
}

// NewVolumeApplicator creates an audio applicator that writes a scalar volume.
//
// Parameters:
//   - options: functional options for the applicator
//
// Returns:
//   - Applicator: the scalar applicator
func NewVolumeApplicator(options ...ApplicatorBuilderOption) Applicator {
	return newApplicator[float64](PinAudio, func(a *applicator[float64], node target.Node, v float64) error {
		sink := node.Audio()
		if sink == nil {
			return noSink(a, node)
		}
		sink.SetVolume(v)
		return nil
	}, options)
}

// NewOpacityApplicator creates a draw applicator that writes a scalar opacity.
//
// Parameters:
//   - options: functional options for the applicator
//
// Returns:
//   - Applicator: the scalar applicator
func NewOpacityApplicator(options ...ApplicatorBuilderOption) Applicator {
	return newApplicator[float64](PinDraw, func(a *applicator[float64], node target.Node, v float64) error {
		sink := node.Draw()
		if sink == nil {
			return noSink(a, node)
		}
		sink.SetOpacity(v)
		return nil
	}, options)
}

// NewPropertyApplicator creates an unassigned applicator that writes a named scalar property.
// Any number of property applicators may coexist on one modifier.
//
// Parameters:
//   - name: the property name
//   - options: functional options for the applicator
//
// Returns:
//   - Applicator: the scalar applicator
func NewPropertyApplicator(name string, options ...ApplicatorBuilderOption) Applicator {
	options = append([]ApplicatorBuilderOption{WithName(name)}, options...)
	return newApplicator[float64](PinUnassigned, func(a *applicator[float64], node target.Node, v float64) error {
		sink := node.Properties()
		if sink == nil {
			return noSink(a, node)
		}
		sink.SetProperty(a.name, v)
		return nil
	}, options)
}

// New builds an applicator template from an authoring description.
//
// Parameters:
//   - kind: the value kind the channel produces
//   - pin: the pin to write
//   - name: the property name, used by unassigned scalar applicators
//   - options: functional options for the applicator
//
// Returns:
//   - Applicator: the applicator
//   - error: ErrUnsupportedPin if the kind cannot be written to the pin
func New(kind channel.Kind, pin PinType, name string, options ...ApplicatorBuilderOption) (Applicator, error) {
	options = append([]ApplicatorBuilderOption{WithName(name)}, options...)
	switch {
	case kind == channel.KindMatrix && pin == PinTransform:
		return NewMatrixApplicator(options...), nil
	case kind == channel.KindPoint && pin == PinTransform:
		return NewTranslationApplicator(options...), nil
	case kind == channel.KindPoint && pin == PinSimulation:
		return NewVelocityApplicator(options...), nil
	case kind == channel.KindQuat && pin == PinTransform:
		return NewRotationApplicator(options...), nil
	case kind == channel.KindScalar && pin == PinAudio:
		return NewVolumeApplicator(options...), nil
	case kind == channel.KindScalar && pin == PinDraw:
		return NewOpacityApplicator(options...), nil
	case kind == channel.KindScalar && pin == PinUnassigned:
		return NewPropertyApplicator(name, options...), nil
	}
	return nil, fmt.Errorf("%w: %s on %s", ErrUnsupportedPin, kind, pin)
}
