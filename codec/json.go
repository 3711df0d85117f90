package codec

import "encoding/json"

// JSON is the standard-library codec.
//
// Values must be JSON-representable: exported struct fields, maps with string
// keys, slices and arrays. Funcs, channels and complex numbers are rejected.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns "json".
func (JSON) Name() string { return "json" }

// Default is the codec used for newly written tables.
var Default Codec = GoJSON{}
