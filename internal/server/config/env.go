package config

import "github.com/ilyakaznacheev/cleanenv"

// parseEnv overlays SK_* environment variables. Unset variables leave the
// current values alone. A malformed value panics.
func parseEnv(config *Config) {
	if err := cleanenv.ReadEnv(config); err != nil {
		panic(err)
	}
}
