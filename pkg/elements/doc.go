// Package elements implements the elements scope, which owns exactly one
// live elements group for the widgets beneath it.
//
// The group is created once the enclosing provider is ready. Changing the
// client secret, or the mode/currency/amount triple of a deferred intent,
// replaces the group; widgets bound to the old group are torn down and
// recreated. Appearance changes are pushed to the live group instead.
package elements
