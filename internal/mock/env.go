package mock

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/projectdiscovery/gologger"
)

// DefaultEnvFile is read by LoadEnv when no other file is named.
const DefaultEnvFile = ".env"

const errorLoadEnv = "failed to load %s: %w"

// LoadEnv copies KEY=VALUE lines from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		path = DefaultEnvFile
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf(errorLoadEnv, path, err)
	}
	gologger.Verbose().Msgf("Loaded environment from %s", path)
	return nil
}
