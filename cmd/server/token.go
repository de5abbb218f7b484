package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"heroesfund/internal/auth"
	"heroesfund/internal/config"
	"heroesfund/internal/domain"
)

// runToken prints an actor token signed with APP_TOKEN_SECRET:
//
//	server token -user <id> [-role ADMIN] [-ttl 24h]
func runToken(args []string) int {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	userID := fs.String("user", "", "user id the token is issued for")
	role := fs.String("role", string(domain.RoleUser), "USER or ADMIN")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime; 0 means no expiry")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if strings.TrimSpace(*userID) == "" {
		fmt.Fprintln(os.Stderr, "token: -user is required")
		return 2
	}
	r, ok := domain.ParseRole(*role)
	if !ok {
		fmt.Fprintf(os.Stderr, "token: unknown role %q\n", *role)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	tokens := auth.NewTokenCodec([]byte(cfg.TokenSecret))
	if !tokens.Signed() {
		fmt.Fprintln(os.Stderr, "token: APP_TOKEN_SECRET not set; printing an unsigned token")
	}
	token, err := tokens.Encode(domain.Actor{UserID: strings.TrimSpace(*userID), Role: r}, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "token: %v\n", err)
		return 2
	}
	fmt.Println(token)
	return 0
}
