// Package ir provides the intermediate representation consumed by blockxml.
//
// An IR tree is produced by an external compiler front end and describes a
// program as nested nodes. Each node has a type identifier plus four kinds of
// attachment: scalar fields, value inputs, statement inputs and a next node.
//
// This package contains the data model, decoders (JSON and YAML), canonical
// JSON for content digests and an iterative tree walk. All other internal
// packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Field and slot collections are ordered: decoding preserves the order of
//     the source document and rejects duplicate keys
//   - Numbers keep their source literal text (no float round-tripping)
//   - The tree is never mutated by consumers; no cycles, no sharing
//   - All JSON keys use snake_case
package ir
