// Package media exposes the reference-counted media provider over HTTP.
//
// Every endpoint takes the media path as the wildcard suffix of the route and
// an optional ?bucket= override. Provider errors map to status codes through
// StatusFor.
//
// # HTTP Endpoints
//
//   - GET    /media/objects/*path : Stream the stored payload.
//   - PUT    /media/objects/*path : Store the request body with one reference.
//   - DELETE /media/objects/*path : Drop one reference, removing the object with the last one.
//   - GET    /media/stat/*path    : Object metadata.
//   - GET    /media/exists/*path  : Existence check.
//   - GET    /media/refs/*path    : Current reference count.
//   - POST   /media/refs/*path    : Add one reference.
package media
