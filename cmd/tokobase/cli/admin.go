// Package cli hosts the administrative subcommands of the tokobase binary.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/tokobase/tokobase/internal/app"
	"github.com/tokobase/tokobase/internal/platform/db"
	"github.com/tokobase/tokobase/internal/rbac"
	"github.com/tokobase/tokobase/internal/shared"
	"github.com/tokobase/tokobase/internal/users"
)

// RunCreateAdmin provisions an administrator account from the command line.
// It shares the service path with the web endpoint, so role bootstrap and
// validation behave identically.
func RunCreateAdmin(args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	email := fs.String("email", "", "email address for the administrator")
	password := fs.String("password", "", "initial password")
	name := fs.String("name", "Administrator", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return errors.New("create-admin: -email and -password are required")
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	auditLogger := shared.NewAuditLogger(pool)
	rbacService := rbac.NewService(rbac.NewRepository(pool), nil, auditLogger, logger)
	if err := rbacService.EnsureCatalog(ctx); err != nil {
		return err
	}

	service := users.NewService(users.NewRepository(pool), rbacService, noSessions{}, auditLogger, logger)
	user, err := service.CreateAdminUser(ctx, *email, *password, *name)
	if err != nil {
		return err
	}

	fmt.Printf("administrator %s created (id %d)\n", user.Email, user.ID)
	return nil
}

// noSessions satisfies the session dependency; a fresh admin has none.
type noSessions struct{}

func (noSessions) InvalidateAllForUser(context.Context, int64) error { return nil }
