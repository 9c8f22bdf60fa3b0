// Package config provides configuration parsing for payelements servers.
//
// The configuration is stored in payelements.json (or payelements.yaml) and
// can be overridden from the environment.
//
// # Configuration File Structure
//
//	{
//	  "provider": {
//	    "publishableKey": "pk_test_...",
//	    "locale": "auto"
//	  },
//	  "server": {
//	    "addr": ":4242",
//	    "apiBase": "/api",
//	    "bridgePath": "/bridge"
//	  },
//	  "backend": {
//	    "currency": "eur",
//	    "catalog": {"bucket": "demo-data", "key": "products.json", "region": "eu-west-1"}
//	  },
//	  "log": {"level": "debug", "format": "json"}
//	}
//
// The secret key should come from PAYELEMENTS_SECRET_KEY rather than the file.
package config
