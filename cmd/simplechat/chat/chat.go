package chatcmder

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/simplechat/cmd/simplechat/globals"
	"github.com/papercomputeco/simplechat/pkg/completion"
	"github.com/papercomputeco/simplechat/pkg/config"
	"github.com/papercomputeco/simplechat/pkg/conversation"
	"github.com/papercomputeco/simplechat/pkg/export"
	"github.com/papercomputeco/simplechat/pkg/logger"
	"github.com/papercomputeco/simplechat/pkg/speech"
	"github.com/papercomputeco/simplechat/pkg/tui"
)

const chatLongDesc string = `Start an interactive chat session.

Messages live only for the session. Each message is answered on its own,
without earlier turns as context.

Keys:
  enter    send the message
  ctrl+t   toggle dark/light theme
  ctrl+e   export the conversation
  ctrl+s   speak the last reply (needs speech_dir)
  ctrl+y   copy the last reply to the clipboard
  esc      quit

Commands:
  /image <path> [prompt]   ask about an image (quote paths with spaces)
  /voice <path>            transcribe an audio clip into the input
  /clear                   start over

Examples:
  simplechat chat
  simplechat chat --export ./today.txt --auto-speak`

const chatShortDesc string = "Start an interactive chat session"

// debugLogFile receives log lines while the TUI owns the terminal.
const debugLogFile = "simplechat-debug.log"

type chatCommander struct {
	globals    *globals.Globals
	exportPath string
	autoSpeak  bool
}

func NewChatCmd(g *globals.Globals) *cobra.Command {
	cmder := &chatCommander{globals: g}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd, cmd.Flags().Changed("export"))
		},
	}

	cmd.Flags().StringVarP(&cmder.exportPath, "export", "e", "", "Export path; when set the conversation is also written on exit")
	cmd.Flags().BoolVar(&cmder.autoSpeak, "auto-speak", false, "Speak every reply as it arrives")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, cmd *cobra.Command, exportOnExit bool) error {
	cfg := c.globals.Config

	log := zap.NewNop()
	if cfg.Debug {
		f, err := tea.LogToFile(debugLogFile, "simplechat")
		if err != nil {
			return fmt.Errorf("could not open debug log: %w", err)
		}
		defer f.Close()
		log = logger.NewLogger(f, true)
	}

	ctrl := newController(cfg, c.globals.Completer(log), log, c.autoSpeak)

	exportPath := c.exportPath
	if exportPath == "" {
		exportPath = cfg.ExportPath
	}

	model := tui.New(ctx, ctrl, tui.Options{
		ExportPath: exportPath,
		Dark:       termenv.HasDarkBackground(),
	})
	defer model.Close()

	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("chat session failed: %w", err)
	}

	if exportOnExit {
		return writeExport(cmd.OutOrStdout(), exportPath, ctrl)
	}
	return nil
}

func writeExport(out io.Writer, path string, ctrl *conversation.Controller) error {
	if len(ctrl.State().Messages) == 0 {
		fmt.Fprintln(out, "No messages to export.")
		return nil
	}
	if err := export.WriteFile(path, ctrl.Export()); err != nil {
		return fmt.Errorf("could not export chat: %w", err)
	}
	fmt.Fprintf(out, "Chat exported to %s\n", path)
	return nil
}

// newController wires the speech capabilities the configuration allows.
// Recognition needs a credential; synthesis additionally needs a directory
// to write audio into.
func newController(cfg *config.Config, completer completion.Completer, log *zap.Logger, autoSpeak bool) *conversation.Controller {
	var opts []conversation.Option

	if cfg.APIKey != "" {
		oc := completion.NewOpenAIConfig(cfg)
		opts = append(opts, conversation.WithRecognizer(
			speech.NewOpenAIRecognizer(oc, cfg.TranscriptionModel, log),
		))
		if cfg.SpeechDir != "" {
			sink := speech.DirSink{Dir: cfg.SpeechDir}
			opts = append(opts, conversation.WithSynthesizer(
				speech.NewOpenAISynthesizer(oc, cfg.TTSModel, cfg.Voice, sink, log),
			))
		}
	}

	if autoSpeak {
		opts = append(opts, conversation.WithAutoSpeak())
	}

	return conversation.NewController(completer, log, opts...)
}
