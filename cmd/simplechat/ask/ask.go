package askcmder

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/simplechat/cmd/simplechat/globals"
	"github.com/papercomputeco/simplechat/pkg/llm"
)

const askLongDesc string = `Ask a single question and print the reply.

Each call is independent: no history is sent along. On a terminal the
reply is rendered as markdown.

Examples:
  simplechat ask "What is the capital of France?"
  simplechat ask --image ./cat.png "What breed is this?"`

const askShortDesc string = "Ask a single question"

type askCommander struct {
	globals   *globals.Globals
	imagePath string
	raw       bool
}

func NewAskCmd(g *globals.Globals) *cobra.Command {
	cmder := &askCommander{globals: g}

	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&cmder.imagePath, "image", "i", "", "Attach an image file")
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print the reply without markdown rendering")

	return cmd
}

func (c *askCommander) run(ctx context.Context, out io.Writer, prompt string) error {
	var image *llm.Image
	if c.imagePath != "" {
		img, err := llm.ImageFromFile(c.imagePath)
		if err != nil {
			return fmt.Errorf("could not load image: %w", err)
		}
		image = &img
	}

	completer := c.globals.Completer(c.globals.Logger)
	reply, err := completer.Complete(ctx, prompt, image)
	if err != nil {
		return err
	}

	if !c.raw && isTerminal(out) {
		rendered, err := glamour.Render(reply, "auto")
		if err == nil {
			reply = rendered
		}
	}

	fmt.Fprintln(out, strings.TrimRight(reply, "\n"))
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
