// Command opstoken prints a bearer token for the operations endpoint, signed
// with the configured auth.token_secret.
//
// Usage:
//
//	opstoken -user alice -role operator
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/chronoshop/backend/internal/infrastructure/auth"
	"github.com/chronoshop/backend/internal/infrastructure/config"
)

func main() {
	user := flag.String("user", "", "Username recorded in the audit trail")
	role := flag.String("role", auth.RoleViewer, "Role: viewer or operator")
	ttl := flag.Duration("ttl", 0, "Token lifetime (default auth.token_ttl)")
	flag.Parse()

	if err := run(*user, *role, *ttl); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(user, role string, ttl time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.Auth.Enabled() {
		return fmt.Errorf("auth.token_secret is not set")
	}
	if ttl <= 0 {
		ttl = cfg.Auth.TokenTTL
	}

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: cfg.Auth.TokenSecret,
		Issuer: cfg.Auth.Issuer,
		TTL:    ttl,
	})
	if err != nil {
		return err
	}
	token, expires, err := tokens.Issue(shared.Actor{Username: user, Role: role})
	if err != nil {
		return err
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", expires.Format(time.RFC3339))
	return nil
}
