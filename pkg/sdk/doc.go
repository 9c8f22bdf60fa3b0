// Package sdk defines the contract of the hosted payments SDK.
//
// The SDK itself runs in the browser. This package describes it as Go
// interfaces (Loader, Handle, Group, Widget) plus typed widget events, so
// the lifecycle code can drive any implementation: the WebSocket bridge in
// package bridge, or the in-memory fake in package sdktest.
//
// Raw event payloads are validated once, at the boundary, by DecodeEvent.
// Everything past that point works with narrow types such as ChangeEvent.
//
// The process-wide Library caches loaded handles per key. Use
// SetDefaultLoader at startup and ResetLibrary between tests.
package sdk
