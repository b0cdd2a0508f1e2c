package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Secret keys resolved through GetConfigValue.
const (
	KeyExtractorAPIKey = "ANSWERHUB_EXTRACTOR_API_KEY"
	KeyRedeploySecret  = "ANSWERHUB_REDEPLOY_SECRET"
)

// legacyKeys maps a key to the name older deployments exported it under.
var legacyKeys = map[string]string{
	KeyExtractorAPIKey: "AIPROXY_TOKEN",
	KeyRedeploySecret:  "SECRET_PASSWORD",
}

// DotEnvPath returns the absolute path to the user dotenv file (~/.answerhub/.env).
func DotEnvPath() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".env"), nil
}

// LoadDotEnv reads ./.env and ~/.answerhub/.env and returns the merged
// key/value pairs. Entries in ./.env win. Missing files are not an error.
func LoadDotEnv() (map[string]string, error) {
	userPath, err := DotEnvPath()
	if err != nil {
		return nil, err
	}

	out := make(map[string]string)
	for _, p := range []string{userPath, ".env"} {
		m, err := godotenv.Read(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("cannot read dotenv file %s: %w", p, err)
		}
		for k, v := range m {
			out[k] = v
		}
	}
	return out, nil
}

// GetConfigValue returns the effective value for key, using process environment variables
// first and falling back to the dotenv files. Keys with a legacy name are also looked up
// under that name.
func GetConfigValue(key string) (string, error) {
	names := []string{key}
	if legacy, ok := legacyKeys[key]; ok {
		names = append(names, legacy)
	}
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v, nil
		}
	}
	dotenv, err := LoadDotEnv()
	if err != nil {
		return "", err
	}
	for _, n := range names {
		if v := dotenv[n]; v != "" {
			return v, nil
		}
	}
	return "", nil
}

// EnsureDotEnvTemplate creates ~/.answerhub/.env if it does not already exist.
//
// The template lists the secret keys with empty values so operators can fill
// them in without reading the docs.
func EnsureDotEnvTemplate() error {
	p, err := DotEnvPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(p); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("cannot stat dotenv file %s: %w", p, err)
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(p), err)
	}
	body := map[string]string{
		KeyExtractorAPIKey: "",
		KeyRedeploySecret:  "",
	}
	if err := godotenv.Write(body, p); err != nil {
		return fmt.Errorf("cannot write dotenv template %s: %w", p, err)
	}
	return os.Chmod(p, 0o600)
}
