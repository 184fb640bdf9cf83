package cmd

import (
	"github.com/jcooky/go-din"
	"github.com/spf13/cobra"

	"github.com/prodpulse/knowledgesync/assistant"
	"github.com/prodpulse/knowledgesync/internal/mylog"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync <tenant-id>",
		Short: "Synchronize a tenant's knowledge index from its product data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID := args[0]

			c := din.NewContainer(cmd.Context(), din.EnvProd)
			defer c.Close()

			logger := din.MustGetT[*mylog.Logger](c)
			registry := din.MustGetT[assistant.Service](c)

			if err := registry.EnsureTenantDataSynced(c, tenantID); err != nil {
				return err
			}

			entry, _ := registry.GetCacheInfo(tenantID)
			logger.Info("tenant synced",
				"tenant_id", tenantID,
				"assistant_id", entry.AssistantID,
				"last_synced_at", entry.LastSyncedAt,
			)
			return nil
		},
	}
}
