package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect and extend the deny lists",
}

var policyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List blocked addresses and domains",
	RunE: func(cmd *cobra.Command, _ []string) error {
		pol, err := initPolicy()
		if err != nil {
			return err
		}

		addrs := pol.Addresses()
		domains := pol.Domains()

		fmt.Fprintf(os.Stdout, "# blocked addresses (%d)\n", len(addrs))
		for _, a := range addrs {
			fmt.Fprintln(os.Stdout, a)
		}
		fmt.Fprintf(os.Stdout, "# blocked domains (%d)\n", len(domains))
		for _, d := range domains {
			fmt.Fprintln(os.Stdout, d)
		}
		return nil
	},
}

var policyBlockAddressCmd = &cobra.Command{
	Use:   "block-address <address>...",
	Short: "Add addresses to the blocked-address list",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pol, err := initPolicy()
		if err != nil {
			return err
		}
		added, err := pol.AppendAddresses(args)
		if err != nil {
			return eris.Wrap(err, "policy block-address")
		}
		fmt.Fprintf(os.Stdout, "added %d of %d (rest already present)\n", added, len(args))
		return nil
	},
}

var policyBlockDomainCmd = &cobra.Command{
	Use:   "block-domain <domain>...",
	Short: "Add domains to the blocked-domain list",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pol, err := initPolicy()
		if err != nil {
			return err
		}
		added, err := pol.AppendDomains(args)
		if err != nil {
			return eris.Wrap(err, "policy block-domain")
		}
		fmt.Fprintf(os.Stdout, "added %d of %d (rest already present)\n", added, len(args))
		return nil
	},
}

func init() {
	policyCmd.AddCommand(policyShowCmd)
	policyCmd.AddCommand(policyBlockAddressCmd)
	policyCmd.AddCommand(policyBlockDomainCmd)
	rootCmd.AddCommand(policyCmd)
}
