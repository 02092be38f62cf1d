package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source describes where a secret may come from. File wins over Env, Env wins over Value.
type Source struct {
	// Name is used in error messages.
	Name  string
	Value string
	// Env names an environment variable holding the secret.
	Env  string
	File string
	// Optional makes Load return an empty secret instead of an error when nothing is configured.
	Optional bool
}

// Load resolves the secret described by src. The result is always trimmed.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	if env := strings.TrimSpace(src.Env); env != "" {
		if secret := strings.TrimSpace(os.Getenv(env)); secret != "" {
			return secret, nil
		}
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" && !src.Optional {
		return "", fmt.Errorf("%s is not configured", name)
	}

	return secret, nil
}
