// Command keygen prints a new API key and the bcrypt hash to put in
// API_KEY_HASH. The raw key is shown once and never stored.
package main

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"

	"github.com/daap14/roster/internal/auth"
)

type keygenConfig struct {
	BcryptCost int `envconfig:"BCRYPT_COST" default:"12"`
}

func main() {
	var cfg keygenConfig
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	rawKey, hash, err := auth.NewService("", cfg.BcryptCost).GenerateKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("API key (keep it secret): %s\n", rawKey)
	fmt.Printf("API_KEY_HASH=%s\n", hash)
}
