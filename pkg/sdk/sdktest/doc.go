// Package sdktest provides an in-memory, recording implementation of the
// sdk interfaces for tests.
//
//	loader := sdktest.NewLoader()
//	p, _ := provider.New(root, provider.Options{PublicKey: "pk_test_123", Loader: loader})
//	...
//	w := loader.Handle().LastGroup().LastWidget()
//	w.Ready()
//	if w.MountCalls() != 1 { ... }
//
// Gates (WithGate, GateCreate, GateRedirects) hold a call in flight so
// tests can unmount or re-trigger while it is pending.
package sdktest
