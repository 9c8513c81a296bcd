// Package spec carries the embedded OpenAPI document served at
// /openapi.yaml.
package spec

import _ "embed"

//go:embed openapi.yaml
var OpenAPI []byte
