package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/feats/ftg/internal/config"
)

// newAuthCmd returns the auth command with subcommands
func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "auth",
		Aliases: []string{"au"},
		Short:   "Manage gateway credentials",
		Long:    "Configure and manage the Telegram gateway URL and session token, stored securely in your OS keychain.",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthLogoutCmd())

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var (
		url   string
		token string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save gateway credentials",
		Long: strings.TrimSpace(`
Save the gateway URL and session token to your OS keychain.

The gateway owns the Telegram session; ftg only needs its HTTP address and
a session token. For scripted runs, set FTG_GATEWAY_URL and
FTG_SESSION_TOKEN instead - the environment always wins over the keychain.
`),
		Example: strings.TrimSpace(`
  ftg auth login --url https://gateway.example.com --token YOUR_TOKEN
`),
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if url == "" {
				return fmt.Errorf("--url is required")
			}
			if token == "" {
				return fmt.Errorf("--token is required")
			}
			url = strings.TrimSuffix(url, "/")
			if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
				return fmt.Errorf("invalid --url %q: must start with http:// or https://", url)
			}

			if err := config.SaveAccount(config.Account{
				GatewayURL:   url,
				SessionToken: token,
			}); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Credentials saved for %s\n", url)
			return nil
		}),
	}

	cmd.Flags().StringVar(&url, "url", "", "Gateway base URL (e.g. https://gateway.example.com)")
	cmd.Flags().StringVar(&token, "token", "", "Gateway session token")

	return cmd
}

func newAuthStatusCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the configured gateway",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			account, err := config.LoadAccount()
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				status := map[string]any{
					"gateway_url": account.GatewayURL,
					"token_set":   account.SessionToken != "",
				}
				if check {
					healthy := gatewayHealthy(cmd)
					status["healthy"] = healthy
				}
				return printJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Gateway: %s\n", account.GatewayURL)
			if account.SessionToken != "" {
				_, _ = fmt.Fprintln(out, "Session token: configured")
			} else {
				_, _ = fmt.Fprintln(out, "Session token: missing")
			}
			if check {
				if gatewayHealthy(cmd) {
					_, _ = fmt.Fprintln(out, "Health: ok")
				} else {
					_, _ = fmt.Fprintln(out, "Health: unreachable")
				}
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&check, "check", false, "Probe the gateway health endpoint")

	return cmd
}

func gatewayHealthy(cmd *cobra.Command) bool {
	client, err := getClient()
	if err != nil {
		return false
	}
	ok, err := client.HealthCheck(cmd.Context())
	return err == nil && ok
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove saved gateway credentials",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if err := config.DeleteAccount(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Credentials removed")
			return nil
		}),
	}
}
