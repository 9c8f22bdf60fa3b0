// Package element implements the widget lifecycle controller shared by
// every widget type.
//
// A controller moves through uninitialized, creating, ready and failed:
//
//	uninitialized -> creating -> ready
//	                 creating -> failed
//
// Creation always runs create, mount and event subscription in that order,
// and the ready phase is entered only when the widget emits its ready event.
// When the elements group is replaced, the stale widget is destroyed, the
// controller returns to uninitialized and creation runs again against the
// new group. A creation that finishes after Destroy or after a group change
// is discarded and its widget destroyed.
//
// Concrete widgets are configured through a Binding; see package widgets.
package element
