package applicator

import "github.com/Carmen-Shannon/oxy-anim/engine/channel"

type applicatorConfig struct {
	name       string
	autoDelete bool
	enabled    bool
	channel    channel.Node
}

// ApplicatorBuilderOption is a functional option for configuring an Applicator during construction.
type ApplicatorBuilderOption func(*applicatorConfig)

// WithName sets the property name. Unassigned scalar applicators write their value under it.
//
// Parameters:
//   - name: the property name
//
// Returns:
//   - ApplicatorBuilderOption: option function to apply
func WithName(name string) ApplicatorBuilderOption {
	return func(c *applicatorConfig) {
		c.name = name
	}
}

// WithAutoDelete controls whether the owning modifier erases the applicator once its tree is empty.
// Defaults to true.
//
// Parameters:
//   - autoDelete: true to erase empty applicators
//
// Returns:
//   - ApplicatorBuilderOption: option function to apply
func WithAutoDelete(autoDelete bool) ApplicatorBuilderOption {
	return func(c *applicatorConfig) {
		c.autoDelete = autoDelete
	}
}

// WithEnabled sets whether the applicator writes on Apply. Defaults to true.
//
// Parameters:
//   - enabled: true to write
//
// Returns:
//   - ApplicatorBuilderOption: option function to apply
func WithEnabled(enabled bool) ApplicatorBuilderOption {
	return func(c *applicatorConfig) {
		c.enabled = enabled
	}
}

// WithChannel binds an initial channel. A channel of the wrong kind is ignored.
//
// Parameters:
//   - ch: the initial root
//
// Returns:
//   - ApplicatorBuilderOption: option function to apply
func WithChannel(ch channel.Node) ApplicatorBuilderOption {
	return func(c *applicatorConfig) {
		c.channel = ch
	}
}
