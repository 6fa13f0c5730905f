package main

import (
	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/simplechat/cmd/simplechat/ask"
	chatcmder "github.com/papercomputeco/simplechat/cmd/simplechat/chat"
	"github.com/papercomputeco/simplechat/cmd/simplechat/globals"
	mcpcmder "github.com/papercomputeco/simplechat/cmd/simplechat/mcp"
	servecmder "github.com/papercomputeco/simplechat/cmd/simplechat/serve"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

const rootLongDesc string = `simplechat is a small chat front-end for a hosted chat-completion API.

Configuration is read from $XDG_CONFIG_HOME/simplechat/config.toml (or
--config) and then from the environment. The API key is only taken from
OPENAI_API_KEY.`

func NewRootCmd() *cobra.Command {
	g := &globals.Globals{Version: Version}

	cmd := &cobra.Command{
		Use:           "simplechat",
		Short:         "Chat with an AI model from the terminal",
		Long:          rootLongDesc,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.Load(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVarP(&g.ConfigPath, "config", "c", "", "Path to a TOML config file")
	cmd.PersistentFlags().BoolVar(&g.Debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(servecmder.NewServeCmd(g))
	cmd.AddCommand(chatcmder.NewChatCmd(g))
	cmd.AddCommand(askcmder.NewAskCmd(g))
	cmd.AddCommand(mcpcmder.NewMCPCmd(g))

	return cmd
}
