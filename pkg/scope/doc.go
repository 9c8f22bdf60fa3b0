// Package scope provides the component tree used to mount payment widgets.
//
// A Scope is created per mounted component. Values provided on a scope
// through a Key are visible to all descendants, which is how a widget finds
// its elements group and an elements group finds its provider handle.
// Disposing a scope is the unmount: children go first, then cleanups.
//
//	root := scope.New(nil)
//	p, _ := provider.New(root, provider.Options{PublicKey: "pk_test_123"})
//	e, _ := elements.New(p.Scope(), elements.Options{ClientSecret: secret})
//	card, _ := widgets.NewCard(e.Scope(), element.Config{Slot: "#card"})
//	defer root.Dispose()
package scope
