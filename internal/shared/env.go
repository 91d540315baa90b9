package shared

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override [SubsonicConfig] values.
const (
	EnvBaseURL  = "DAYLIST_BASE_URL"
	EnvUsername = "DAYLIST_USERNAME"
	EnvPassword = "DAYLIST_PASSWORD"
)

// ApplyEnv loads the given dotenv files (".env" when none are given) and copies
// any credential variables over the values in c.
//
// godotenv never overrides variables that are already set in the process environment.
// A missing dotenv file is not an error.
func ApplyEnv(c *Config, files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	if v, ok := os.LookupEnv(EnvBaseURL); ok && v != "" {
		c.Subsonic.BaseURL = v
	}
	if v, ok := os.LookupEnv(EnvUsername); ok && v != "" {
		c.Subsonic.Username = v
	}
	if v, ok := os.LookupEnv(EnvPassword); ok && v != "" {
		c.Subsonic.Password = v
	}
	return nil
}
