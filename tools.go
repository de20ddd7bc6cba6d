//go:build tools
// +build tools

// Package teamlabel declares tool dependencies for this module. mockgen is
// run through go generate to refresh internal/mocks.
package teamlabel

import (
	_ "go.uber.org/mock/mockgen"
)
