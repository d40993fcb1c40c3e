// Package server holds the HTTP server configuration.
//
// The Config struct defines the listen port, the API key guarding the pipeline
// routes and the request read timeout. It is embedded by core/config and used by
// the start command when building the Fiber app.
package server
