// Package util provides small helpers shared across the server.
package util

import (
	"github.com/lithammer/shortuuid/v4"
)

// GenUID generates a short, URL-safe unique identifier for public resource names.
func GenUID() string {
	return shortuuid.New()
}
