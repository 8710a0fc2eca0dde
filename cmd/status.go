package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sells-group/item-dedupe/internal/tokens"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored Zoho credential without refreshing it",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printStatus(time.Now())
	},
}

func printStatus(now time.Time) error {
	tm := newTokenManager(newZohoClient())
	cred, err := tm.Current()
	if errors.Is(err, tokens.ErrNoCredentials) {
		fmt.Printf("%s no credential at %s; run `item-dedupe setup`\n", color.YellowString("○"), cfg.Zoho.TokenFile)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Token file: %s\n", cfg.Zoho.TokenFile)
	fmt.Printf("Client ID:  %s\n", cred.ClientID)
	fmt.Printf("Expires at: %s\n", cred.ExpiresAt.Local().Format("2006-01-02 15:04:05"))

	if tokens.IsValid(cred, now) {
		left := cred.ExpiresAt.Sub(now).Round(time.Second)
		fmt.Printf("%s access token valid (%s left)\n", color.GreenString("●"), left)
	} else {
		fmt.Printf("%s access token expired or expiring; it will be refreshed on the next run\n", color.YellowString("⚠"))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
