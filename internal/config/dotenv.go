package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/subosito/gotenv"
)

// LoadDotEnv loads KEY=VALUE files into the environment. Missing files are
// skipped and variables that are already set are not overwritten.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := gotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}
