package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
	"github.com/bhos1242/seva-samarpan-sub001/internal/infra"
	"github.com/bhos1242/seva-samarpan-sub001/internal/sqlinline"
)

func main() {
	var (
		idFlag    string
		emailFlag string
		roleFlag  string
	)

	flag.StringVar(&idFlag, "id", "", "user ID to update (UUID)")
	flag.StringVar(&emailFlag, "email", "", "user email to update")
	flag.StringVar(&roleFlag, "role", string(domain.UserRoleAdmin), "role to assign (user, admin)")
	flag.Parse()

	_ = godotenv.Load()

	userID := strings.TrimSpace(idFlag)
	email := strings.TrimSpace(emailFlag)
	role, err := parseRole(roleFlag)
	if err != nil {
		exitWithError(err)
	}
	if userID == "" && email == "" {
		exitWithError(errors.New("either -id or -email must be provided"))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "userrole").Logger()
	runner := infra.NewSQLRunner(pool, logger)

	query, arg := sqlinline.QUpdateUserRoleByEmail, email
	if userID != "" {
		query, arg = sqlinline.QUpdateUserRoleByID, userID
	}

	var updatedID, updatedEmail, updatedRole string
	if err := runner.QueryRow(ctx, query, arg, string(role)).Scan(&updatedID, &updatedEmail, &updatedRole); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			exitWithError(errors.New("user not found"))
		}
		exitWithError(fmt.Errorf("failed to update user role: %w", err))
	}

	fmt.Printf("User %s (%s) now has role %s\n", updatedID, updatedEmail, updatedRole)
}

func parseRole(raw string) (domain.UserRole, error) {
	role := domain.UserRole(strings.ToLower(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", fmt.Errorf("unsupported role %q", raw)
	}
	return role, nil
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
