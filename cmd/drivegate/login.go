package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"drivegate/msauth"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize the gateway with the device-code flow",
	Long: `Run the interactive device-code sign-in and persist the resulting
token so 'serve' starts authenticated.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadEnv()
	if err != nil {
		return err
	}
	if cfg.ClientID == "" {
		return errors.New("AZURE_CLIENT_ID is required")
	}

	engineCfg := cfg.engineConfig()
	tokens, err := msauth.NewManager(msauth.Config{
		ClientID:  engineCfg.Auth.ClientID,
		TenantID:  engineCfg.Auth.TenantID,
		Scopes:    engineCfg.Auth.Scopes,
		CacheFile: engineCfg.Auth.CacheFile,
		Logger:    cfg.logger(),
	})
	if err != nil {
		return err
	}

	if tokens.Authenticated() {
		fmt.Println("Already signed in; token cache is valid.")
		return nil
	}

	err = tokens.Authenticate(cmd.Context(), func(da *oauth2.DeviceAuthResponse) {
		fmt.Printf("To sign in, open %s and enter the code %s\n",
			da.VerificationURI, da.UserCode)
	})
	if err != nil {
		return err
	}
	fmt.Println("Signed in; token cached at", cfg.TokenCache)
	return nil
}
