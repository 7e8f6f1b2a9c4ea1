package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
	"github.com/MobiAdvisor-core/server/internal/orchestrator"
)

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	var questions []string
	if len(args) > 0 {
		questions = []string{strings.Join(args, " ")}
	} else {
		in := cmd.InOrStdin()
		if chatFile != "" {
			f, err := os.Open(chatFile)
			if err != nil {
				return fmt.Errorf("open questions: %w", err)
			}
			defer f.Close()
			in = f
		}
		questions, err = readQuestions(in)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	conversationID := uuid.NewString()
	var history []model.ConversationTurn
	for i, q := range questions {
		fmt.Fprintf(out, "\n[%d] > %s\n", i+1, q)
		ans := a.advisor.HandleTurn(ctx, orchestrator.TurnRequest{
			ConversationID: conversationID,
			Query:          q,
			History:        history,
		})
		history = ans.History
		printAnswer(out, ans)
	}

	if a.messages != nil && len(history) > 0 {
		if err := a.messages.SaveTurns(ctx, conversationID, history...); err != nil {
			return fmt.Errorf("save conversation: %w", err)
		}
		fmt.Fprintf(out, "\nconversation saved as %s\n", conversationID)
	}
	return nil
}

func readQuestions(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" && !strings.HasPrefix(line, "#") {
			out = append(out, line)
		}
	}
	return out, sc.Err()
}

func printAnswer(w io.Writer, ans model.GroundedAnswer) {
	fmt.Fprintln(w, ans.Message)
	for _, p := range ans.Phones {
		fmt.Fprintf(w, "  - %s (ID: %d) ₹%s\n", p.DisplayName(), p.ID, humanize.Comma(int64(p.PriceINR)))
	}
	meta := []string{"source=" + string(ans.Source)}
	if !ans.Validated {
		meta = append(meta, "unvalidated")
	}
	if ans.ErrorKind != "" {
		meta = append(meta, "error="+string(ans.ErrorKind))
	}
	if ans.Warning != "" {
		meta = append(meta, "warning="+ans.Warning)
	}
	fmt.Fprintf(w, "  (%s)\n", strings.Join(meta, ", "))
}
