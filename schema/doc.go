// Package schema describes the shape of a dataset as an immutable tree.
//
// The root of a Schema is always a struct. Every node has a name, a
// nullability flag and a kind specific payload: struct nodes own an ordered
// list of fields, list nodes own a single "item" node, map nodes own exactly a
// "key" and a "value" node, and primitive nodes carry a PrimitiveType plus an
// optional format annotation. Schemas are assembled with a Builder, which
// validates the tree once; after Build nothing mutates it.
package schema
