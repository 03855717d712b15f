// gentoken issues a bearer token for an existing account, optionally
// registering the account first. Tokens are minted from the CLI
// because the HTTP surface only verifies them.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/unievent/server/internal/auth"
	"github.com/unievent/server/internal/config"
	"github.com/unievent/server/internal/domain/users"
	"github.com/unievent/server/internal/storage/postgres"
)

func main() {
	var (
		username = flag.String("username", "", "account username")
		password = flag.String("password", "", "account password")
		email    = flag.String("email", "", "email, only used with -register")
		name     = flag.String("name", "", "display name, only used with -register")
		gender   = flag.String("gender", "", "optional profile gender (FEMALE or MALE), only used with -register")
		register = flag.Bool("register", false, "create the account before issuing the token")
	)
	flag.Parse()

	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: gentoken -username NAME -password SECRET [-register -email ADDR]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		fatal(fmt.Errorf("connect database: %w", err))
	}
	defer pool.Close()

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		fatal(err)
	}
	service := users.NewService(repo.Users(), zerolog.Nop())

	if *register {
		params := users.RegisterParams{Username: *username, Name: *name, Email: *email, Password: *password}
		if *gender != "" {
			params.Gender = gender
		}
		if _, err := service.Register(ctx, params); err != nil {
			fatal(fmt.Errorf("register: %w", err))
		}
	}

	account, err := service.Authenticate(ctx, *username, *password)
	if err != nil {
		fatal(fmt.Errorf("authenticate: %w", err))
	}

	manager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.Issuer)
	token, err := manager.Generate(account.ULID, account.Username, account.Role)
	if err != nil {
		fatal(fmt.Errorf("sign token: %w", err))
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "\nTest with:\ncurl -H 'Authorization: Bearer %s' http://localhost:%d/api/v1/events/{id}\n", token, cfg.Server.Port)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
