// Package types defines the error taxonomy shared by the archive and dex
// packages.
//
// Errors carry a stable Kind so callers can branch on intent rather than text:
//
//	if types.IsKind(err, types.ErrKindNotFound) { ... }
//	if errors.Is(err, types.ErrNoEndRecord) { ... }
//
// Optional structures (an APK signing block, an unset cross-reference) are
// reported as absent values rather than errors; only mandatory structures and
// I/O failures surface here.
package types
