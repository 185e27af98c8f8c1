// Package openapi embeds the OpenAPI document describing the simulator's
// admin and storefront endpoints.
package openapi

import _ "embed"

// YAML contains the embedded OpenAPI document.
//
//go:embed openapi.yaml
var YAML []byte
