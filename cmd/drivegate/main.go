// drivegate serves an access-controlled web view of a OneDrive share.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "drivegate",
	Short: "Access-controlled web gateway for a OneDrive share",
	Long: `drivegate publishes a OneDrive folder tree over HTTP behind a
rule-based ACL. Visitors browse anonymously where the policy allows it and
sign in with HTTP Basic credentials for the rest.

Configuration comes from the environment (a .env file is honored):

  DRIVEGATE_LISTEN          listen address (default :8080)
  DRIVEGATE_ACL             ACL policy file (default acl.yml)
  AZURE_CLIENT_ID           application (client) ID
  AZURE_TENANT_ID           directory (tenant) ID (default common)
  DRIVEGATE_SCOPES          comma-separated Graph scopes
  DRIVEGATE_TOKEN_CACHE     token cache file (default .token_cache.json)
  DRIVEGATE_SESSION_SECRET  cookie signing secret (default random)
  DRIVEGATE_SESSION_TTL     browser session lifetime (default 15m)
  DRIVEGATE_REDIS_ADDR      enable the login throttle (optional)
  DRIVEGATE_LOG_LEVEL       debug, info, warn or error (default info)`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "drivegate:", err)
		os.Exit(1)
	}
}
