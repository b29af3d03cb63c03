// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package env loads pipeline credentials from a .env file and the process
// environment. A missing .env file is not an error; the environment alone
// may carry the values.
package env

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Credentials holds the secrets the pipeline reads at startup.
type Credentials struct {
	// DatabaseURL is the store DSN (DATABASE_URL). Empty means the
	// default local SQLite path applies.
	DatabaseURL string

	// OpenAlexEmail is sent as the mailto parameter (OPENALEX_EMAIL).
	OpenAlexEmail string
}

// Load reads path (typically ".env") into the process environment without
// overriding variables already set, then extracts the known keys.
func Load(path string) (Credentials, error) {
	if _, err := os.Stat(path); err == nil {
		if err := godotenv.Load(path); err != nil {
			return Credentials{}, fmt.Errorf("loading %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Credentials{}, fmt.Errorf("checking %s: %w", path, err)
	}

	return Credentials{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		OpenAlexEmail: os.Getenv("OPENALEX_EMAIL"),
	}, nil
}
