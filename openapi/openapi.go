// Package openapi carries the API document so builds tagged embed_openapi
// can serve it without the repo checkout.
package openapi

import _ "embed"

//go:embed openapi.yaml
var Spec []byte
