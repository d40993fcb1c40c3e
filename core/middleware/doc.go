// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation for every protected route.
//   - rayid: a unique request id stored in fiber locals and echoed in the
//     response headers so log lines can be traced to one request.
package middleware
