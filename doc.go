// Package pyckson maps decoded JSON trees to and from statically declared
// Go structs without hand-written marshalling code. A struct's exported
// fields form its attribute model; the model is derived once per class,
// cached, and drives a tree of composable parsers covering scalars,
// containers, enums, unions, decimals and optional fields.
//
// Everything a struct declaration cannot express, enum member tables,
// union alternatives, naming rules, defaults and per-field overrides, is
// attached ahead of time through a [Registry].
package pyckson
