package main

import (
	"fmt"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var setupFlags struct {
	clientID     string
	clientSecret string
	grantToken   string
	orgID        string
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Exchange a Zoho grant token and store the credential",
	Long:  "Exchanges a one-time Zoho grant token for access and refresh tokens and writes them to the token file. Missing values are prompted for.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("setup"); err != nil {
			return err
		}
		if setupFlags.orgID == "" {
			setupFlags.orgID = cfg.Zoho.OrganizationID
		}

		if err := promptMissing(); err != nil {
			return err
		}

		tm := newTokenManager(newZohoClient())
		cred, err := tm.Setup(cmd.Context(), setupFlags.clientID, setupFlags.clientSecret, setupFlags.grantToken)
		if err != nil {
			fmt.Printf("%s %v\n", color.RedString("✗ Setup failed:"), err)
			return err
		}

		green := color.New(color.FgGreen, color.Bold).SprintFunc()
		fmt.Printf("%s Zoho authentication setup completed successfully!\n", green("✓"))
		fmt.Printf("  Token file:   %s\n", cfg.Zoho.TokenFile)
		fmt.Printf("  Organization: %s\n", setupFlags.orgID)
		fmt.Printf("  Expires at:   %s\n", cred.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
		return nil
	},
}

// promptMissing asks for each setup value not given as a flag.
func promptMissing() error {
	fields := []struct {
		label  string
		target *string
		secret bool
	}{
		{"Client ID", &setupFlags.clientID, false},
		{"Client secret", &setupFlags.clientSecret, true},
		{"Grant token", &setupFlags.grantToken, true},
		{"Organization ID", &setupFlags.orgID, false},
	}

	var rl *readline.Instance
	defer func() {
		if rl != nil {
			rl.Close() //nolint:errcheck
		}
	}()

	cyan := color.New(color.FgCyan).SprintFunc()
	for _, f := range fields {
		if *f.target != "" {
			continue
		}
		if rl == nil {
			var err error
			rl, err = readline.NewEx(&readline.Config{
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return eris.Wrap(err, "setup: open prompt")
			}
		}

		var (
			line string
			err  error
		)
		if f.secret {
			var b []byte
			b, err = rl.ReadPassword(cyan(f.label + ": "))
			line = string(b)
		} else {
			rl.SetPrompt(cyan(f.label + ": "))
			line, err = rl.Readline()
		}
		if err != nil {
			return eris.Wrapf(err, "setup: read %s", strings.ToLower(f.label))
		}

		*f.target = strings.TrimSpace(line)
		if *f.target == "" {
			return eris.Errorf("setup: %s is required", strings.ToLower(f.label))
		}
	}
	return nil
}

func init() {
	setupCmd.Flags().StringVar(&setupFlags.clientID, "client-id", "", "Zoho OAuth client id")
	setupCmd.Flags().StringVar(&setupFlags.clientSecret, "client-secret", "", "Zoho OAuth client secret")
	setupCmd.Flags().StringVar(&setupFlags.grantToken, "grant-token", "", "one-time grant token from the Zoho API console")
	setupCmd.Flags().StringVar(&setupFlags.orgID, "org-id", "", "Zoho Books organization id")
	rootCmd.AddCommand(setupCmd)
}
