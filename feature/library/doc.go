// Package library keeps logical media records in a relational database.
//
// Several records may point at the same media path. The stored object then
// carries one reference per record: uploading creates the object with a single
// reference, copying a record adds one, and removing a record drops one. The
// object is deleted together with its last record.
//
// # Audit
//
// Audit groups records by path and compares each count with the references
// metadata of the stored object, reporting mismatched, missing and corrupt
// objects.
//
// # HTTP Endpoints
//
//   - POST   /library             : Upload a multipart file (fields: file, path).
//   - GET    /library/audit       : Reference audit report.
//   - GET    /library/:id         : Record metadata.
//   - GET    /library/:id/content : Stream the stored payload.
//   - POST   /library/:id/copy    : New record sharing the same object.
//   - DELETE /library/:id         : Remove a record and drop its reference.
package library
