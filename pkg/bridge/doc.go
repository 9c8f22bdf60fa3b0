// Package bridge implements the sdk interfaces over a WebSocket connection
// to a small browser shim that drives the hosted payment SDK.
//
// The server side mounts Handler and, per connection, builds a provider on
// top of Loader(conn):
//
//	mux.Handle("/bridge", bridge.Handler(func(conn *bridge.Conn) {
//	    p, _ := provider.New(root, provider.Options{
//	        PublicKey: key,
//	        Loader:    bridge.Loader(conn),
//	    })
//	    <-conn.Done()
//	    p.Dispose()
//	}))
//	mux.Handle("/bridge.js", bridge.ScriptHandler())
//
// Frames are JSON. Calls are {id, op, target, args}; replies are
// {id, result} or {id, error}; widget events are
// {op: "event", target, event, payload} and are decoded with
// sdk.DecodeEvent before delivery. Object IDs are chosen by the server.
package bridge
