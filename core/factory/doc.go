// Package factory provides a small generic registry used to instantiate
// modules from configuration. A module is named by a type string and carries
// a map of raw settings; factories decode the settings into typed structs and
// return the concrete implementation. The metrics sinks are built this way.
package factory
