// Package store carries the shared SQL schema for the security stores. The
// per-entity implementations live in the subpackages.
package store

import _ "embed"

// Schema is applied by deployments and by the integration test harness.
//
//go:embed schema.sql
var Schema string
