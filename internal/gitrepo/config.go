package gitrepo

import (
	"fmt"
	"strings"
)

// configFile runs git config against a specific file, so dataset-level
// settings can live in a committed file instead of .git/config.
func configFile(dir, file string, args ...string) (string, error) {
	full := append([]string{"config", "--file", file}, args...)
	return run(dir, full...)
}

// ConfigGet returns the value of key from the given config file. A missing
// key yields an empty string and no error.
func ConfigGet(dir, file, key string) (string, error) {
	out, err := configFile(dir, file, "--get", key)
	if err != nil {
		if out == "" {
			return "", nil
		}
		return "", fmt.Errorf("gitrepo: config get %q: %s", key, out)
	}
	return out, nil
}

// ConfigGetAll returns all values of a multi-valued key from the given
// config file.
func ConfigGetAll(dir, file, key string) ([]string, error) {
	out, err := configFile(dir, file, "--get-all", key)
	if err != nil {
		if out == "" {
			return nil, nil
		}
		return nil, fmt.Errorf("gitrepo: config get-all %q: %s", key, out)
	}
	return strings.Split(out, "\n"), nil
}

// ConfigSet writes key to the given config file, replacing any existing
// value.
func ConfigSet(dir, file, key, value string) error {
	if key == "" {
		return fmt.Errorf("gitrepo: config key is required")
	}
	if out, err := configFile(dir, file, key, value); err != nil {
		return fmt.Errorf("gitrepo: config set %q: %s", key, out)
	}
	return nil
}

// ConfigAdd appends a value to a multi-valued key in the given config file.
func ConfigAdd(dir, file, key, value string) error {
	if key == "" {
		return fmt.Errorf("gitrepo: config key is required")
	}
	if out, err := configFile(dir, file, "--add", key, value); err != nil {
		return fmt.Errorf("gitrepo: config add %q: %s", key, out)
	}
	return nil
}

// ConfigUnset removes all values of key from the given config file. A key
// that was never set is not an error.
func ConfigUnset(dir, file, key string) error {
	if key == "" {
		return fmt.Errorf("gitrepo: config key is required")
	}
	out, err := configFile(dir, file, "--unset-all", key)
	if err != nil && out != "" {
		return fmt.Errorf("gitrepo: config unset %q: %s", key, out)
	}
	return nil
}
