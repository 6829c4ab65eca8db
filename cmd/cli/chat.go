package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dvloznov/plata/internal/bot"
	"github.com/dvloznov/plata/internal/conversation"
)

const chatConversationID = "cli"

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the bot on stdin, exactly as a Telegram chat would",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = a.Shutdown(shutdownCtx)
			}()

			return runChat(ctx, a.Engine, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// runChat feeds stdin lines to the engine until the conversation ends or
// input is exhausted.
func runChat(ctx context.Context, engine *bot.Engine, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Type a message to start. Ctrl-D quits.")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		reply := engine.HandleTurn(ctx, chatConversationID, scanner.Text())
		printReply(out, reply)
		if reply.End {
			return nil
		}
	}
}

func printReply(out io.Writer, reply conversation.Reply) {
	fmt.Fprintln(out, reply.Text())
	if reply.End || len(reply.Options) == 0 {
		return
	}
	rows := make([]string, len(reply.Options))
	for i, row := range reply.Options {
		rows[i] = "[" + strings.Join(row, "] [") + "]"
	}
	fmt.Fprintln(out, strings.Join(rows, "  "))
}
