// Package config defines the couchdesk configuration model and its HCL
// loader. A single config file describes the CouchDB connection and the desk:
// the search roots that hold design-document sources.
//
// Environment variables are exposed to the file through the `env` object, so
// credentials never have to live in the file itself:
//
//	couchdb {
//	  url      = "http://localhost:5984"
//	  database = "app"
//	  username = "admin"
//	  password = env.COUCHDB_PASSWORD
//	}
//
//	desk {
//	  paths = ["./resources", "./bundle.jar"]
//	}
package config
