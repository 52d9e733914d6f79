// Package api embeds the OpenAPI description of the HTTP API.
package api

import _ "embed"

// OpenAPISpec is the OpenAPI 3 document in YAML form.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
