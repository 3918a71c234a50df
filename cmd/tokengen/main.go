// Command tokengen prints a signed API token for the configured JWT secret.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"ragquiz/internal/config"
	"ragquiz/internal/pkg/jwtutil"
)

func main() {
	subject := flag.String("subject", "", "token subject, e.g. the client name")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to auth.jwt_expire_minute)")
	flag.Parse()

	if strings.TrimSpace(*subject) == "" {
		log.Fatal("-subject is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("auth.jwt_secret is not configured")
	}

	lifetime := cfg.TokenTTL()
	if *ttl > 0 {
		lifetime = *ttl
	}
	token, err := jwtutil.GenerateToken(cfg.Auth.JWTSecret, lifetime, *subject)
	if err != nil {
		log.Fatalf("generate token failed: %v", err)
	}
	fmt.Println(token)
}
