package sitedata

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// ReloadEnv loads the dotenv file at path into the process environment,
// overwriting variables that are already set. A missing file is not an error.
func ReloadEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		return newConfigError(filepath.Base(path), err)
	}
	for k, v := range vars {
		if err := os.Setenv(k, v); err != nil {
			return err
		}
	}
	return nil
}
