package definition

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/applicator"
	"github.com/Carmen-Shannon/oxy-anim/engine/channel"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// File is the on-disk form of a definition.
type File struct {
	Name        string             `yaml:"name"`
	Begin       *float64           `yaml:"begin"`
	End         *float64           `yaml:"end"`
	Loop        bool               `yaml:"loop"`
	LoopBegin   float64            `yaml:"loop_begin"`
	LoopEnd     float64            `yaml:"loop_end"`
	AutoStart   bool               `yaml:"autostart"`
	InitialTime *float64           `yaml:"initial_time"`
	Driven      bool               `yaml:"driven"`
	Markers     map[string]float64 `yaml:"markers"`
	StopPoints  []float64          `yaml:"stop_points"`
	Channels    []ChannelFile      `yaml:"channels"`
}

// ChannelFile is the on-disk form of one track.
type ChannelFile struct {
	Name          string    `yaml:"name"`
	Kind          string    `yaml:"kind"`
	Pin           string    `yaml:"pin"`
	Property      string    `yaml:"property"`
	Persistent    bool      `yaml:"persistent"`
	Interpolation string    `yaml:"interpolation"`
	Keys          []KeyFile `yaml:"keys"`
}

// KeyFile is one keyframe. Value depends on the channel kind:
//   - scalar: a number
//   - point: [x, y, z]
//   - quat: [x, y, z, w] or {axis: [x, y, z], angle: radians}
//   - matrix: {translation, rotation, scale} or 16 column-major numbers
type KeyFile struct {
	Time  float64 `yaml:"time"`
	Value any     `yaml:"value"`
}

type axisAngle struct {
	Axis  common.Point3 `mapstructure:"axis"`
	Angle float32       `mapstructure:"angle"`
}

type transformFile struct {
	Translation common.Point3  `mapstructure:"translation"`
	Rotation    any            `mapstructure:"rotation"`
	Scale       *common.Point3 `mapstructure:"scale"`
}

// Load reads a definition file.
//
// Parameters:
//   - path: the YAML file
//
// Returns:
//   - Definition: the definition
//   - error: read, parse or validation failures
func Load(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition %s: %w", path, err)
	}
	def, err := Parse(data, WithSource(path))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return def, nil
}

// LoadDir reads every .yaml and .yml file in dir, in name order.
//
// Parameters:
//   - dir: the directory
//
// Returns:
//   - []Definition: the definitions
//   - error: the first failure
func LoadDir(dir string) ([]Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read definitions dir %s: %w", dir, err)
	}
	var defs []Definition
	for _, entry := range entries {
		if entry.IsDir() || !isDefinitionFile(entry.Name()) {
			continue
		}
		def, err := Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Parse decodes a YAML definition.
//
// Parameters:
//   - data: the YAML document
//   - options: extra options applied after the decoded ones
//
// Returns:
//   - Definition: the definition
//   - error: parse or validation failures
func Parse(data []byte, options ...DefinitionBuilderOption) (Definition, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	return f.Build(options...)
}

// Build converts the decoded file into a definition.
//
// Parameters:
//   - options: extra options applied after the decoded ones
//
// Returns:
//   - Definition: the definition
//   - error: decode or validation failures
func (f File) Build(options ...DefinitionBuilderOption) (Definition, error) {
	opts := []DefinitionBuilderOption{
		WithLoop(f.Loop),
		WithLoopRange(f.LoopBegin, f.LoopEnd),
		WithAutoStart(f.AutoStart),
		WithDriven(f.Driven),
		WithStopPoints(f.StopPoints...),
	}
	if f.Begin != nil || f.End != nil {
		opts = append(opts, WithRange(derefOr(f.Begin), derefOr(f.End)))
	}
	if f.InitialTime != nil {
		opts = append(opts, WithInitialTime(*f.InitialTime))
	}
	for name, t := range f.Markers {
		opts = append(opts, WithMarker(name, t))
	}
	for _, cf := range f.Channels {
		root, template, err := cf.build()
		if err != nil {
			return nil, fmt.Errorf("%w: %s channel %q: %w", ErrInvalidDefinition, f.Name, cf.Name, err)
		}
		opts = append(opts, WithTrack(cf.Name, root, template))
	}
	return NewDefinition(f.Name, append(opts, options...)...)
}

func derefOr(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func (cf ChannelFile) build() (channel.Node, applicator.Applicator, error) {
	kind, err := parseKind(cf.Kind)
	if err != nil {
		return nil, nil, err
	}
	pin, err := applicator.ParsePinType(cf.Pin)
	if err != nil {
		return nil, nil, err
	}
	interp, err := channel.ParseInterpolation(cf.Interpolation)
	if err != nil {
		return nil, nil, err
	}
	template, err := applicator.New(kind, pin, common.Coalesce(cf.Property, cf.Name), applicator.WithAutoDelete(!cf.Persistent))
	if err != nil {
		return nil, nil, err
	}

	var root channel.Node
	switch kind {
	case channel.KindScalar:
		root, err = buildKeys(cf.Keys, interp, decodeScalar)
	case channel.KindPoint:
		root, err = buildKeys(cf.Keys, interp, decodePoint)
	case channel.KindQuat:
		root, err = buildKeys(cf.Keys, interp, decodeQuat)
	case channel.KindMatrix:
		root, err = buildKeys(cf.Keys, interp, decodeMatrix)
	}
	if err != nil {
		return nil, nil, err
	}
	return root, template, nil
}

func parseKind(s string) (channel.Kind, error) {
	for _, k := range []channel.Kind{channel.KindScalar, channel.KindPoint, channel.KindQuat, channel.KindMatrix} {
		if strings.EqualFold(strings.TrimSpace(s), k.String()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown channel kind %q", s)
}

func buildKeys[T channel.Value](raw []KeyFile, interp channel.Interpolation, decode func(any) (T, error)) (channel.Node, error) {
	keys := make([]channel.Key[T], 0, len(raw))
	for i, k := range raw {
		v, err := decode(k.Value)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		keys = append(keys, channel.Key[T]{Time: k.Time, Value: v})
	}
	return channel.NewKeyframes(keys, interp)
}

func decode(raw, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

func decodeScalar(raw any) (float64, error) {
	var v float64
	err := decode(raw, &v)
	return v, err
}

func decodePoint(raw any) (common.Point3, error) {
	var p common.Point3
	if _, ok := raw.([]any); !ok {
		return p, fmt.Errorf("point value must be a list of 3 numbers, got %T", raw)
	}
	err := decode(raw, &p)
	return p, err
}

func decodeQuat(raw any) (common.Quat, error) {
	switch v := raw.(type) {
	case []any:
		var q common.Quat
		if err := decode(v, &q); err != nil {
			return q, err
		}
		return common.QuatNormalize(q), nil
	case map[string]any:
		var aa axisAngle
		if err := decode(v, &aa); err != nil {
			return common.Quat{}, err
		}
		return common.QuatFromAxisAngle(aa.Axis, aa.Angle), nil
	case nil:
		return common.IdentityQuat(), nil
	}
	return common.Quat{}, fmt.Errorf("quat value must be a list or {axis, angle}, got %T", raw)
}

func decodeMatrix(raw any) (common.Matrix4, error) {
	switch v := raw.(type) {
	case []any:
		var m common.Matrix4
		err := decode(v, &m)
		return m, err
	case map[string]any:
		var tf transformFile
		if err := decode(v, &tf); err != nil {
			return common.Matrix4{}, err
		}
		xf := common.Transform{
			Translation: tf.Translation,
			Scale:       common.Point3{1, 1, 1},
		}
		if tf.Scale != nil {
			xf.Scale = *tf.Scale
		}
		q, err := decodeQuat(tf.Rotation)
		if err != nil {
			return common.Matrix4{}, err
		}
		xf.Rotation = q
		return xf.Matrix(), nil
	}
	return common.Matrix4{}, fmt.Errorf("matrix value must be a transform or 16 numbers, got %T", raw)
}

func isDefinitionFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
