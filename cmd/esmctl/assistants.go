package main

import (
	"net/http"

	"github.com/spf13/cobra"
)

func init() {
	assistantCmd := &cobra.Command{Use: "assistant", Short: "Assistant operations"}

	var name, personality string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an assistant",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]any{"name": name}
			if personality != "" {
				payload["personality"] = personality
			}
			return call(client().R().SetBody(payload), http.MethodPost, "/api/assistants")
		},
	}
	createCmd.Flags().StringVarP(&name, "name", "n", "", "Assistant name (required)")
	createCmd.Flags().StringVarP(&personality, "personality", "p", "", "Assistant personality")
	_ = createCmd.MarkFlagRequired("name")
	assistantCmd.AddCommand(createCmd)

	assistantCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List assistants",
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(client().R(), http.MethodGet, "/api/assistants")
		},
	})

	assistantCmd.AddCommand(&cobra.Command{
		Use:   "get ASSISTANT_ID",
		Short: "Get an assistant by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(client().R(), http.MethodGet, "/api/assistants/"+args[0])
		},
	})

	assistantCmd.AddCommand(&cobra.Command{
		Use:   "deactivate ASSISTANT_ID",
		Short: "Deactivate an assistant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(client().R(), http.MethodDelete, "/api/assistants/"+args[0])
		},
	})

	rootCmd.AddCommand(assistantCmd)
}
