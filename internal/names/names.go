// Package names provides Docker-style random name generation for instances
// started without an explicit name.
package names

import (
	"fmt"
	"strings"

	"github.com/docker/docker/pkg/namesgenerator"
)

// ExistsFn checks if a name already exists.
type ExistsFn func(name string) bool

// Generate returns a random adjective-surname name (e.g., "focused-turing").
// Underscores are normalized to dashes to match instance naming rules.
func Generate() string {
	return strings.ReplaceAll(namesgenerator.GetRandomName(0), "_", "-")
}

// GenerateUnique returns a name that doesn't exist according to existsFn.
// Returns an error if unable to find a unique name after maxAttempts tries.
func GenerateUnique(existsFn ExistsFn, maxAttempts int) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = 100
	}

	for i := 0; i < maxAttempts; i++ {
		name := Generate()
		if !existsFn(name) {
			return name, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique name after %d attempts", maxAttempts)
}
