package env

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const (
	DefaultEnvFile = ".env"
	// FileVar names an explicit env file; unlike DefaultEnvFile it must exist.
	FileVar = "ENV_FILE"
)

// InitConfig loads the env file and fills every config from the environment.
// Variables already present in the environment win over the file.
func InitConfig(configs ...any) error {
	if file := os.Getenv(FileVar); file != "" {
		if err := godotenv.Load(file); err != nil {
			return errors.Wrapf(err, "failed to load %s", file)
		}
	} else {
		// nolint:errcheck // .env file is optional, failure is acceptable
		_ = godotenv.Load(DefaultEnvFile)
	}

	for _, config := range configs {
		if err := envconfig.Process("", config); err != nil {
			return errors.Wrapf(err, "failed to envconfig.Process %T", config)
		}
	}

	return nil
}
