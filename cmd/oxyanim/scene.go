package main

import (
	"fmt"
	"io"

	"github.com/Carmen-Shannon/oxy-anim/engine/coordinator"
	"github.com/Carmen-Shannon/oxy-anim/engine/definition"
	"github.com/Carmen-Shannon/oxy-anim/engine/instance"
	"github.com/Carmen-Shannon/oxy-anim/engine/target"
)

// sceneFor builds a target with one node for every channel name the definitions use.
func sceneFor(name string, defs ...definition.Definition) target.SceneObject {
	obj := target.NewObject(name)
	for _, def := range defs {
		for _, tr := range def.Tracks() {
			if _, ok := obj.Resolve(tr.Name); !ok {
				obj.Add(target.NewSceneNode(tr.Name))
			}
		}
	}
	return obj
}

// attachAll looks up every name in the library and attaches it to a new coordinator for a fresh scene.
func attachAll(lib definition.Library, names []string, weight float64, options ...coordinator.CoordinatorBuilderOption) (coordinator.Coordinator, []instance.Instance, error) {
	defs := make([]definition.Definition, 0, len(names))
	for _, name := range names {
		def, err := lib.Get(name)
		if err != nil {
			return nil, nil, err
		}
		defs = append(defs, def)
	}

	options = append([]coordinator.CoordinatorBuilderOption{coordinator.WithLibrary(lib)}, options...)
	c, err := coordinator.NewCoordinator(sceneFor("scene", defs...), options...)
	if err != nil {
		return nil, nil, err
	}
	insts := make([]instance.Instance, 0, len(defs))
	for _, def := range defs {
		inst, err := c.AttachBlended(def, weight, coordinator.MediumPriority)
		if err != nil {
			return nil, nil, err
		}
		insts = append(insts, inst)
	}
	return c, insts, nil
}

// writeState prints every node of the scene at world time t.
func writeState(w io.Writer, t float64, obj target.Object) error {
	scene, ok := obj.(target.SceneObject)
	if !ok {
		return nil
	}
	for _, n := range scene.Nodes() {
		sn, ok := n.(target.SceneNode)
		if !ok {
			continue
		}
		p := sn.Local().Translation
		if _, err := fmt.Fprintf(w, "t=%.3f %s pos=(%.3f, %.3f, %.3f) volume=%.3f opacity=%.3f\n",
			t, sn.Name(), p[0], p[1], p[2], sn.Volume(), sn.Opacity()); err != nil {
			return err
		}
	}
	return nil
}
