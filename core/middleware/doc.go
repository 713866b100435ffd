// Package middleware groups the Fiber middleware of the media store.
//
// # Components
//
//   - auth: API key check (X-API-Key or Bearer). An empty key disables it.
//   - rayid: assigns every request a RayID, stored in the context locals and
//     echoed in the response headers so log lines can be correlated.
//
// The start command registers rayid first, then request logging, then auth.
package middleware
