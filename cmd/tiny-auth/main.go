package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/tinytools/tiny-erp-mcp/internal/auth"
	"github.com/tinytools/tiny-erp-mcp/internal/config"
)

func main() {
	app := &cli.App{
		Name:  "tiny-auth",
		Usage: "manage the Tiny ERP credentials used by tiny-mcp",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "authorize this machine through the browser",
				Action: runLogin,
			},
			{
				Name:   "status",
				Usage:  "show the current authentication state",
				Action: runStatus,
			},
			{
				Name:   "logout",
				Usage:  "discard the stored tokens",
				Action: runLogout,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup() (*auth.Authenticator, error) {
	config.LoadEnv(".env")

	cfg, err := config.Load()
	if err != nil {
		// status and logout still work without credentials; login will
		// re-check and fail with the same configuration error.
		if !errors.Is(err, config.ErrMissingCredentials) {
			return nil, err
		}
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	store, err := auth.NewStoreFromEnv()
	if err != nil {
		return nil, err
	}

	return auth.NewAuthenticator(cfg, store), nil
}

func runLogin(c *cli.Context) error {
	authenticator, err := setup()
	if err != nil {
		return err
	}
	defer authenticator.Store().Close()

	pair, err := authenticator.InteractiveLogin(c.Context)
	if err != nil {
		return err
	}

	expiry := time.UnixMilli(pair.AccessTokenExpiresAt)
	fmt.Printf("Login successful. Access token valid until %s.\n", expiry.Format(time.RFC3339))
	return nil
}

func runStatus(c *cli.Context) error {
	authenticator, err := setup()
	if err != nil {
		return err
	}
	defer authenticator.Store().Close()

	pair, err := authenticator.Store().Load()
	if err != nil {
		return err
	}
	if pair == nil {
		fmt.Println("Not authenticated. Run 'tiny-auth login'.")
		return nil
	}

	now := time.Now()
	if pair.RefreshTokenExpired(now) {
		fmt.Println("Session expired. Run 'tiny-auth login'.")
		return nil
	}

	if pair.AccessTokenExpired(now) {
		fmt.Println("Access token expired; it will be refreshed automatically on the next API call.")
	} else {
		fmt.Printf("Access token valid until %s.\n", time.UnixMilli(pair.AccessTokenExpiresAt).Format(time.RFC3339))
	}
	fmt.Printf("Refresh token valid until %s.\n", time.UnixMilli(pair.RefreshTokenExpiresAt).Format(time.RFC3339))

	if info, err := auth.DecodeAccessToken(pair.AccessToken); err == nil && info.Subject != "" {
		fmt.Printf("Subject: %s\n", info.Subject)
	}
	return nil
}

func runLogout(c *cli.Context) error {
	authenticator, err := setup()
	if err != nil {
		return err
	}
	defer authenticator.Store().Close()

	if err := authenticator.Logout(); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}
