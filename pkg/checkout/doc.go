// Package checkout implements the hosted checkout redirect control.
//
// A checkout is identified by a session ID, by a price with mode and
// return URLs, or by a hosted URL opened through a Navigator. Each call to
// Redirect makes at most one provider call; failures are reported as
// redirect errors through OnError and the return value, never retried.
package checkout
