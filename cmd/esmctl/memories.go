package main

import (
	"net/http"

	"github.com/spf13/cobra"
)

func init() {
	memoryCmd := &cobra.Command{Use: "memory", Short: "Memory operations"}

	var (
		assistantID string
		content     string
		summary     string
		memoryType  string
		importance  int
		tags        []string
	)
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Store a memory for an assistant",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]any{
				"content":    content,
				"importance": importance,
			}
			if summary != "" {
				payload["summary"] = summary
			}
			if memoryType != "" {
				payload["memoryType"] = memoryType
			}
			if len(tags) > 0 {
				payload["tags"] = tags
			}
			return call(client().R().SetBody(payload),
				http.MethodPost, "/api/assistants/"+assistantID+"/memories")
		},
	}
	addCmd.Flags().StringVarP(&assistantID, "assistant", "A", "", "Assistant ID (required)")
	addCmd.Flags().StringVarP(&content, "content", "c", "", "Memory content (required)")
	addCmd.Flags().StringVarP(&summary, "summary", "s", "", "Short summary")
	addCmd.Flags().StringVarP(&memoryType, "type", "t", "", "Memory type (default general)")
	addCmd.Flags().IntVarP(&importance, "importance", "i", 5, "Importance 1-10")
	addCmd.Flags().StringSliceVar(&tags, "tags", nil, "Comma-separated tags")
	_ = addCmd.MarkFlagRequired("assistant")
	_ = addCmd.MarkFlagRequired("content")
	memoryCmd.AddCommand(addCmd)

	var listAssistant string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List an assistant's memories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(client().R(), http.MethodGet, "/api/assistants/"+listAssistant+"/memories")
		},
	}
	listCmd.Flags().StringVarP(&listAssistant, "assistant", "A", "", "Assistant ID (required)")
	_ = listCmd.MarkFlagRequired("assistant")
	memoryCmd.AddCommand(listCmd)

	memoryCmd.AddCommand(&cobra.Command{
		Use:   "get MEMORY_ID",
		Short: "Get a memory by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(client().R(), http.MethodGet, "/api/memories/"+args[0])
		},
	})

	memoryCmd.AddCommand(&cobra.Command{
		Use:   "delete MEMORY_ID",
		Short: "Delete a memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(client().R(), http.MethodDelete, "/api/memories/"+args[0])
		},
	})

	rootCmd.AddCommand(memoryCmd)
}
