package client

import _ "embed"

// BridgeJS is the browser shim that connects the hosted payment SDK to a
// bridge endpoint.
//
//go:embed bridge.js
var BridgeJS []byte
