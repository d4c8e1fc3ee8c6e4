package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/autocrm-backend/internal/app"
	"github.com/yungbote/autocrm-backend/internal/domain/user"
	httpMW "github.com/yungbote/autocrm-backend/internal/http/middleware"
	"github.com/yungbote/autocrm-backend/internal/platform/ctxutil"
)

// loadAuthConfig is swapped in tests.
var loadAuthConfig = func() (httpMW.AuthConfig, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return httpMW.AuthConfig{}, err
	}
	return cfg.Auth, nil
}

// newTokenCmd mints a bearer token for local testing and service callers.
func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a JWT accepted by the API",
		Args:  cobra.NoArgs,
	}
	sub := cmd.Flags().String("sub", "", "User id (random when empty)")
	email := cmd.Flags().String("email", "", "Email claim")
	name := cmd.Flags().String("name", "", "Name claim")
	role := cmd.Flags().String("role", string(user.RoleCustomer), "Role: customer, worker or admin")
	ttl := cmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		r, ok := user.ParseRole(*role)
		if !ok {
			return fmt.Errorf("unknown role %q", *role)
		}
		id := uuid.New()
		if *sub != "" {
			parsed, err := uuid.Parse(*sub)
			if err != nil {
				return fmt.Errorf("invalid --sub: %w", err)
			}
			id = parsed
		}
		authCfg, err := loadAuthConfig()
		if err != nil {
			return err
		}
		if authCfg.Secret == "" {
			return fmt.Errorf("JWT_SECRET is required")
		}
		token, err := httpMW.SignToken(authCfg, ctxutil.Identity{UserID: id, Email: *email, Name: *name, Role: string(r)}, *ttl)
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
		return err
	}
	return cmd
}
