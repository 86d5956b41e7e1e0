package main

import (
	"net/http"

	"github.com/spf13/cobra"
)

func init() {
	var (
		assistantID   string
		mode          string
		limit         int
		includeShared bool
	)
	searchCmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search memories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]any{
				"query":         args[0],
				"searchType":    mode,
				"limit":         limit,
				"includeShared": includeShared,
			}
			if assistantID != "" {
				payload["assistantId"] = assistantID
			}
			return call(client().R().SetBody(payload), http.MethodPost, "/api/search")
		},
	}
	searchCmd.Flags().StringVarP(&assistantID, "assistant", "A", "", "Scope to one assistant")
	searchCmd.Flags().StringVarP(&mode, "mode", "m", "hybrid", "Search mode: keyword, semantic, hybrid")
	searchCmd.Flags().IntVarP(&limit, "limit", "l", 10, "Maximum results (1-100)")
	searchCmd.Flags().BoolVar(&includeShared, "shared", false, "Include shared memories")
	rootCmd.AddCommand(searchCmd)

	suggestCmd := &cobra.Command{
		Use:   "suggest PREFIX",
		Short: "Suggest recent queries containing PREFIX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := client().R().SetQueryParam("q", args[0])
			if assistantID != "" {
				req.SetQueryParam("assistantId", assistantID)
			}
			return call(req, http.MethodGet, "/api/search/suggestions")
		},
	}
	suggestCmd.Flags().StringVarP(&assistantID, "assistant", "A", "", "Scope to one assistant")
	rootCmd.AddCommand(suggestCmd)
}
