// Package reactive provides the small explicit reactivity layer used by the
// provider, elements and widget scopes.
//
// A Signal holds a value and notifies subscribers when Set changes it.
// Batch coalesces notifications so each subscriber runs once per batch with
// the final value. Nothing here depends on a UI framework.
package reactive
