// Package handler groups the HTTP handlers by domain in subpackages:
// inventory (products, categories, suppliers, purchases, stats) and upload.
//
// This file exists so tooling (e.g. `swag init --dir ./internal/handler`) can
// treat `internal/handler` as a valid Go package and avoid "no Go files" warnings.
package handler
