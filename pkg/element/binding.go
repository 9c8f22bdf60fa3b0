package element

import "github.com/vango-dev/payelements/pkg/sdk"

// Binding configures a controller for one widget type.
type Binding struct {
	// Kind is the widget type passed to Group.Create.
	Kind sdk.Kind

	// Name is the user-facing widget name used in errors and logs.
	Name string

	// Events are the widget events re-emitted by the controller.
	Events []sdk.EventName

	// Defaults are merged under the caller's options.
	Defaults sdk.Options
}

// Supports reports whether the binding re-emits name.
func (b Binding) Supports(name sdk.EventName) bool {
	for _, e := range b.Events {
		if e == name {
			return true
		}
	}
	return false
}
