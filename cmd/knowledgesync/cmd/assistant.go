package cmd

import (
	"fmt"

	"github.com/jcooky/go-din"
	"github.com/spf13/cobra"

	"github.com/prodpulse/knowledgesync/assistant"
)

func newAssistantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assistant <tenant-id>",
		Short: "Resolve (or create) the assistant for a tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID := args[0]

			c := din.NewContainer(cmd.Context(), din.EnvProd)
			defer c.Close()

			registry := din.MustGetT[assistant.Service](c)

			assistantID, err := registry.GetOrCreateAssistant(c, tenantID)
			if err != nil {
				return err
			}

			fmt.Println(assistantID)
			return nil
		},
	}
}
