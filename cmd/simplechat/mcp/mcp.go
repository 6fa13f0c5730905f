package mcpcmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/simplechat/cmd/simplechat/globals"
	"github.com/papercomputeco/simplechat/pkg/mcptool"
)

const mcpLongDesc string = `Serve the chat tool over the Model Context Protocol.

The server speaks MCP on stdin/stdout and offers one tool, "chat",
which takes {"message": ..., "image": ...} and returns the reply text.
Logs go to stderr.

Example MCP client entry:
  {"command": "simplechat", "args": ["mcp"]}`

const mcpShortDesc string = "Serve the chat tool over MCP (stdio)"

func NewMCPCmd(g *globals.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: mcpShortDesc,
		Long:  mcpLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			server := mcptool.NewServer(g.Completer(g.Logger), g.Version, g.Logger)
			return mcptool.Serve(cmd.Context(), server)
		},
	}
}
