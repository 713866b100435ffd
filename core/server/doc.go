// Package server holds the HTTP server configuration.
//
// The start command owns the Fiber application; this package only defines
// the port, the API key protecting every route and the upload body limit.
package server
