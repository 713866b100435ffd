// Package media implements the reference-counted media provider.
//
// Several logical media records of the content layer may point at the same
// stored object, e.g. after a record is duplicated. The provider keeps the
// number of referents in the object's "references" user metadata and only
// removes the object when the last referent is deleted.
//
// # Reference count
//
//   - Set writes a fresh object with references "1".
//   - AddReferences increments the count.
//   - Delete decrements it, or removes the object when the count is 1.
//   - A missing references field counts as 1, so objects written without it
//     take part in the protocol.
//   - A value that is not a positive decimal integer fails the operation with
//     ErrProtocolViolation; it is never coerced.
//
// The object store has no metadata update call, so counts are rewritten by
// copying the object onto itself with a metadata replace directive.
//
// # Concurrency
//
// Updates are a stat followed by a conditional self-copy (If-Match on the
// stat's ETag), retried up to Config.MaxRetries times, and are serialized per
// object inside one Provider. Across processes the race on the count
// remains: S3 keeps the ETag on a metadata-only copy, so two writers that
// read the same count can still both succeed. Only a content replacement
// between stat and copy is detected.
//
// # Paths
//
// Media paths such as "/media/2024/a.jpg" become store keys through
// Normalize, which drops the leading separator.
package media
