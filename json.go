package pyckson

import jsoniter "github.com/json-iterator/go"

// The codec used by Unmarshal and Marshal to go between JSON text and the
// decoded tree the parsers operate on. UseNumber keeps numbers as
// json.Number so decimal fields never round-trip through a float64.
var _json = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()
