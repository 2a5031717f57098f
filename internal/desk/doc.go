// Package desk implements the design-document engine: it discovers design
// resources across a set of search roots, classifies the flat resource
// namespace into a per-document catalog, expands // !code inclusion macros,
// and assembles complete design documents ready for synchronization.
//
// A Desk owns its catalog. The catalog is built lazily exactly once, under a
// sync.Once guard, the first time any operation needs it, and is never
// invalidated afterwards; construct a new Desk to observe filesystem
// changes. Anomalies met while building (duplicate resources, unsupported
// or unreadable search roots) are collected as Advisory values on the
// catalog so that callers and tests can assert on them deterministically.
package desk
