// Package app wires the application together: it builds the logger, loads
// the configuration file, constructs the desk and the database client, and
// runs the requested synchronization mode.
package app
