// Package blockxml serializes IR trees into Blockly XML block markup.
//
// One IR node becomes one <block> element. Inside a block the children are
// emitted in a fixed order:
//
//	<block type="TAG">
//	  <field name="NAME">VALUE</field>          one per field
//	  <value name="SLOT"><block/></value>       one per value input
//	  <statement name="SLOT"><block/></statement> one per statement input
//	  <next><block/></next>                      when the node has a successor
//	</block>
//
// No whitespace is written between elements.
//
// TRANSLATION:
//
// Types are translated through a fixed table (see Vocabulary). A type missing
// from the table is emitted unchanged; UnknownTypes reports such types so a
// caller can log vocabulary drift.
//
// The OP field is translated per IR type: arithmetic and comparison symbols
// map through their operator tables (unknown symbols pass through), and the
// logic AND/OR types always emit the constant AND or OR. A statement slot
// named THEN is emitted as DO. Nothing else is renamed.
//
// FAILURE:
//
// A nil node fails with ir.ErrInvalidNode and a node with an empty type with
// ir.ErrMissingType. The returned error is an *ir.NodeError whose Path locates
// the failing node. Serialization is all or nothing: on error the result is
// the empty string.
//
// The traversal uses an explicit stack, so depth is bounded only by memory.
// WithMaxDepth and WithMaxNodes bound untrusted input.
//
// A Serializer is immutable after New and safe for concurrent use.
package blockxml
