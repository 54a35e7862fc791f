//go:build tools
// +build tools

package tools

// Pins the mockery generator version in go.mod without a runtime import.
import (
	_ "github.com/vektra/mockery/v2"
)
