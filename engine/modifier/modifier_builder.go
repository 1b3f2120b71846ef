package modifier

import "github.com/Carmen-Shannon/oxy-anim/engine/applicator"

// ModifierBuilderOption is a functional option for configuring a Modifier during construction.
type ModifierBuilderOption func(*modifier)

// WithApplicators pre-installs applicators, for example persistent ones that hold a rest pose.
// Pass applicators built with applicator.WithAutoDelete(false) to keep them when their tree empties.
//
// Parameters:
//   - apps: the applicators to install, in apply order
//
// Returns:
//   - ModifierBuilderOption: functional option to install the applicators
func WithApplicators(apps ...applicator.Applicator) ModifierBuilderOption {
	return func(m *modifier) {
		m.applicators = append(m.applicators, apps...)
	}
}
