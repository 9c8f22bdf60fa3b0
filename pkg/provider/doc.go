// Package provider implements the provider scope: it loads the hosted
// payment SDK for a publishable key and shares the handle, loading flag and
// load error with every scope created beneath it.
//
//	root := scope.New(nil)
//	p, err := provider.New(root, provider.Options{PublicKey: "pk_test_..."})
//	if err != nil {
//	    // missing key
//	}
//	handle, err := p.Wait(ctx)
//
// Load failures are captured in State rather than returned from New, so a
// host can render a fallback.
package provider
