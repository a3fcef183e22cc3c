package main

import (
	"fmt"
	"io"
	"strings"

	voicechat "github.com/koscakluka/ema-chat/core"
	"github.com/koscakluka/ema-chat/core/conversations"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send [message]",
	Short: "Send one message and print the reply",
	Long: "Send one text message in the most recent conversation, or in the one given " +
		"with --conversation, and print the reply once it has been streamed.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		config := loadConfig()

		printer := newReplyPrinter(cmd.OutOrStdout())
		session, closeSession, err := openSession(ctx, config,
			voicechat.WithTranscriptCallback(func(_ string, messages []conversations.Message) {
				printer.print(messages)
			}),
		)
		if err != nil {
			return err
		}
		defer closeSession()

		conversationID, _ := cmd.Flags().GetString("conversation")
		newConversation, _ := cmd.Flags().GetBool("new")
		switch {
		case newConversation:
			session.NewConversation(ctx)
		case conversationID != "":
			if err := session.SwitchConversation(ctx, conversationID); err != nil {
				return err
			}
		}
		if systemPrompt, _ := cmd.Flags().GetString("system-prompt"); systemPrompt != "" {
			if err := session.SetSystemPrompt(ctx, systemPrompt); err != nil {
				return err
			}
		}
		if model, _ := cmd.Flags().GetString("model"); model != "" {
			if err := session.SetModel(ctx, model); err != nil {
				return err
			}
		}

		printer.from = len(session.Active().Messages)
		if err := session.SendText(ctx, strings.Join(args, " ")); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	},
}

// replyPrinter writes assistant replies to out as they stream in. Replies
// only ever grow, so each call writes the new suffix.
type replyPrinter struct {
	out     io.Writer
	from    int
	written map[int]int
}

func newReplyPrinter(out io.Writer) *replyPrinter {
	return &replyPrinter{out: out, written: map[int]int{}}
}

func (p *replyPrinter) print(messages []conversations.Message) {
	for i := p.from; i < len(messages); i++ {
		message := messages[i]
		if message.Role != conversations.RoleAssistant {
			continue
		}
		written, ok := p.written[i]
		if !ok && len(p.written) > 0 {
			fmt.Fprintln(p.out)
		}
		if len(message.Content) > written {
			fmt.Fprint(p.out, message.Content[written:])
		}
		p.written[i] = len(message.Content)
	}
}

func init() {
	sendCmd.Flags().String("conversation", "", "ID of the conversation to send in (see conversations list)")
	sendCmd.Flags().Bool("new", false, "Start a new conversation")
	sendCmd.Flags().String("system-prompt", "", "Replace the system prompt of the conversation")
	sendCmd.Flags().String("model", "", "Model to answer with, remembered for later turns")
}
