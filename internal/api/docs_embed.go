//go:build embed_openapi

package api

import "github.com/XavierCollard23/LONDON/openapi"

// openAPILoad returns the document compiled into the binary.
func openAPILoad() ([]byte, error) { return openapi.Spec, nil }
