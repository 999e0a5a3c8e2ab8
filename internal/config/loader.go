package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// envPrefix is the prefix for environment variable overrides.
const envPrefix = "RAGD_"

// subsections are config sections nested one level below the top.
// Needed by the env transformer to map e.g. RAGD_VECTORSTORE_CHROMEM_PATH
// to vectorstore.chromem.path rather than vectorstore.chromem_path.
var subsections = map[string]bool{
	"chromem": true,
	"qdrant":  true,
}

// Load loads configuration from an optional YAML file, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (RAGD_SERVER_PORT, RAGD_EMBEDDINGS_PRIMARY_URL, ...)
//  2. YAML config file (configPath, skipped when empty or missing)
//  3. Hardcoded defaults
//
// Environment variables use underscore separators. The first segment after
// the prefix selects the section, the remainder is the field name:
//
//	RAGD_SERVER_PORT                  -> server.port
//	RAGD_RETRIEVAL_SIMILARITY_THRESHOLD -> retrieval.similarity_threshold
//	RAGD_VECTORSTORE_CHROMEM_PATH     -> vectorstore.chromem.path
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
			}
		} else {
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", transformEnv), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// transformEnv maps an environment variable name to a koanf key path.
func transformEnv(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(s, "_", 2)
	if len(parts) == 1 {
		return parts[0]
	}
	section, rest := parts[0], parts[1]

	// Check for a known subsection: vectorstore_chromem_path -> vectorstore.chromem.path
	sub := strings.SplitN(rest, "_", 2)
	if len(sub) == 2 && subsections[sub[0]] {
		return section + "." + sub[0] + "." + sub[1]
	}
	return section + "." + rest
}
