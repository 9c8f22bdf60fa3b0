// Package backend is the example server API used by demo apps and tests.
//
// Every endpoint is a thin proxy to the payment provider's server API,
// reached through the Gateway interface. Requests are validated lightly and
// every failure is answered with a 400 and a body of the form
//
//	{"error": "message"}
//
// Routes are relative; mount the router under an API base such as /api:
//
//	srv, err := backend.New(backend.Options{
//	    Gateway:        backend.NewStripeGateway(secretKey, nil),
//	    PublishableKey: publishableKey,
//	})
//	mux.Mount("/api", srv.Routes())
//
// Products are listed from the gateway unless a Catalog is configured.
// S3Catalog serves a JSON catalog object from S3 and is how generated test
// data is published.
package backend
