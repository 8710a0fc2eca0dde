package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/item-dedupe/internal/runs"
)

var detectOrgID string

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Run duplicate detection for an organization",
	RunE: func(cmd *cobra.Command, args []string) error {
		orgID := detectOrgID
		if orgID == "" {
			orgID = cfg.Zoho.OrganizationID
		}
		if orgID == "" {
			return eris.New("detect: --org-id is required (or set zoho.organization_id)")
		}

		env, err := initPipeline("detect")
		if err != nil {
			return err
		}

		runID := runs.NewID()
		out, err := env.Pipeline.Run(cmd.Context(), orgID, runID)
		if err != nil {
			msg := err.Error()
			if st, ok := env.Registry.Get(runID); ok && st.Error != "" {
				msg = st.Error
			}
			fmt.Printf("%s %s\n", color.RedString("✗"), msg)
			return err
		}

		st, _ := env.Registry.Get(runID)
		green := color.New(color.FgGreen, color.Bold).SprintFunc()
		fmt.Printf("%s %s\n", green("✓"), st.Progress)
		fmt.Printf("  Report: %s\n", filepath.Join(env.Artifacts.Dir(), out.Filename))
		fmt.Printf("  JSON:   %s\n", filepath.Join(env.Artifacts.Dir(), out.ResultFile))

		if len(out.Failed) > 0 {
			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Printf("%s %d batch(es) skipped:\n", yellow("!"), len(out.Failed))
			for _, f := range out.Failed {
				fmt.Printf("  batch %d [%s] %s\n", f.Index, f.Kind, f.Error)
			}
		}
		return nil
	},
}

func init() {
	detectCmd.Flags().StringVar(&detectOrgID, "org-id", "", "Zoho Books organization id")
	rootCmd.AddCommand(detectCmd)
}
