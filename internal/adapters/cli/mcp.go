package cli

import (
	"github.com/spf13/cobra"

	mcpadapter "github.com/kirillkom/document-classifier/internal/adapters/mcp"
)

func newMCPCommand(a *app) *cobra.Command {
	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server commands",
	}
	mcpCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Long: `Serves the classify_documents and list_document_types tools over
stdio using JSON-RPC, for MCP-compatible assistants.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withServices(cmd.Context(), func(s *Services) error {
				server, err := mcpadapter.NewServer(s.Classifiers, s.DefaultStrategy, s.Logger)
				if err != nil {
					return err
				}
				return server.ServeStdio()
			})
		},
	})
	return mcpCmd
}
