package cmd

import (
	"github.com/blockwork-protocol/marketplace/src/marketplace"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(reconcileCmd)
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Mirrors escrow state of unsettled jobs once and exits",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return marketplace.Reconcile(applicationCtx, conf)
	},
}
