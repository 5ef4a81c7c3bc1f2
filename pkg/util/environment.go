package util

import (
	"os"
	"strings"
)

func GetEnvironmentVariables() map[string]string {
	environmentVariables := map[string]string{}

	for _, variable := range os.Environ() {
		pair := strings.SplitN(variable, "=", 2)

		environmentVariables[pair[0]] = pair[1]
	}

	return environmentVariables
}

// GetEnvironmentVariable returns the first non-empty variable out of names, or fallback
func GetEnvironmentVariable(fallback string, names ...string) string {
	env := GetEnvironmentVariables()

	for _, name := range names {
		if env[name] != "" {
			return env[name]
		}
	}

	return fallback
}
