package cmd

import (
	"fmt"
	"strings"

	"github.com/jcooky/go-din"
	"github.com/spf13/cobra"

	"github.com/prodpulse/knowledgesync/retriever"
)

func newSearchCmd() *cobra.Command {
	params := &struct {
		Limit      int
		EntityType string
		Priority   string
		Status     string
	}{}
	cmd := &cobra.Command{
		Use:   "search <tenant-id> <query...>",
		Short: "Run a semantic search against a tenant's vector index",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID := args[0]
			query := strings.Join(args[1:], " ")

			c := din.NewContainer(cmd.Context(), din.EnvProd)
			defer c.Close()

			retrieverService := din.MustGetT[retriever.Service](c)

			filters := &retriever.Filters{
				EntityType: params.EntityType,
				Priority:   params.Priority,
				Status:     params.Status,
			}
			results, err := retrieverService.Search(c, query, tenantID, filters, params.Limit)
			if err != nil {
				return err
			}

			for i, result := range results {
				fmt.Printf("%d. [%.4f] %s\n%s\n\n", i+1, result.Similarity, result.ID, result.Content)
			}
			fmt.Printf("%d results\n", len(results))
			return nil
		},
	}

	cmd.Flags().IntVarP(&params.Limit, "limit", "n", 0, "Max results (0 = infer from query)")
	cmd.Flags().StringVar(&params.EntityType, "entity-type", "", "Filter by entity type")
	cmd.Flags().StringVar(&params.Priority, "priority", "", "Filter by priority")
	cmd.Flags().StringVar(&params.Status, "status", "", "Filter by status")

	return cmd
}
