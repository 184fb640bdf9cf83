package cmd

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledgesync",
		Short: "Tenant knowledge synchronization and retrieval service",
	}

	cmd.AddCommand(
		newServeCmd(),
		newSyncCmd(),
		newSearchCmd(),
		newAssistantCmd(),
	)

	return cmd
}
