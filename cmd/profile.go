package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/curate-cli/internal/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Work with market profile files",
}

var profileValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a market profile file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := profile.Load(args[0])
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "%s: ok\n", args[0])
		fmt.Fprintf(os.Stdout, "  name:     %s\n", p.Name)
		fmt.Fprintf(os.Stdout, "  market:   %s\n", p.Market)
		fmt.Fprintf(os.Stdout, "  industry: %s\n", p.Industry)
		fmt.Fprintf(os.Stdout, "  keywords: %d primary, %d secondary, %d oem, %d application, %d negative\n",
			len(p.Keywords.Primary), len(p.Keywords.Secondary), len(p.Keywords.OEM),
			len(p.Keywords.Application), len(p.Keywords.Negative))
		fmt.Fprintf(os.Stdout, "  thresholds: low=%.0f medium=%.0f high=%.0f\n",
			p.Thresholds.Low, p.Thresholds.Medium, p.Thresholds.High)
		return nil
	},
}

func init() {
	profileCmd.AddCommand(profileValidateCmd)
	rootCmd.AddCommand(profileCmd)
}
