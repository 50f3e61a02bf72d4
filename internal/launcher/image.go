// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"fmt"
	"os"

	"github.com/distribution/reference"
)

// RegistryVariable is substituted with the configured registry when it is
// not set in the environment.
const RegistryVariable = "AIDO_REGISTRY"

// ExpandImage replaces ${VAR} and $VAR in image. Values come from lookupEnv;
// an unset or empty AIDO_REGISTRY falls back to registry. Any other unset
// variable yields an *UnsetVariableError.
func ExpandImage(image, registry string, lookupEnv LookupEnvFunc) (string, error) {
	var missing []string
	expanded := os.Expand(image, func(key string) string {
		if v, ok := lookupEnv(key); ok && v != "" {
			return v
		}
		if key == RegistryVariable && registry != "" {
			return registry
		}
		missing = append(missing, key)
		return ""
	})
	if len(missing) > 0 {
		return "", &UnsetVariableError{Image: image, Variables: missing}
	}
	return expanded, nil
}

// RegistryDomain returns the registry host of an image reference, with
// Docker Hub references normalized to "docker.io".
func RegistryDomain(image string) (string, error) {
	named, err := reference.ParseNormalizedNamed(image)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrInvalidImage, image, err)
	}
	return reference.Domain(named), nil
}
