package config

import "time"

// Defaults applied after decoding when the file leaves the field unset.
const (
	DefaultRoot      = "design-docs"
	DefaultLanguage  = "javascript"
	DefaultExtension = ".js"
	DefaultTimeout   = 30 * time.Second
)

// CouchDB holds the connection settings for the remote store.
type CouchDB struct {
	URL      string
	Database string
	Username string
	Password string
	// Timeout bounds a single HTTP round trip. The desk core itself defines
	// no timeout policy; this belongs to the transport.
	Timeout time.Duration
}

// Desk describes where design-document sources live on disk.
type Desk struct {
	// Paths are the search roots, each either a directory or a zip/jar
	// archive. All of them are scanned for the Root directory.
	Paths []string
	// Root is the directory name that anchors the design-doc tree inside
	// every search root.
	Root string
	// Language is the declared language tag stamped on every assembled
	// document.
	Language string
	// Extension is the source-file extension recognized by the classifier.
	Extension string
}

// Config is the decoded, validated couchdesk configuration.
type Config struct {
	CouchDB CouchDB
	Desk    Desk
}
