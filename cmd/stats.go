package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats <session-id>",
	Short: "Show recorded answers and accuracy for a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		repo := s.EventRepo()

		transitions, err := repo.QuerySessionEvents(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("query session events: %w", err)
		}
		answers, err := repo.QueryAnswerEvents(ctx, sessionID, store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query answers: %w", err)
		}
		if len(transitions) == 0 && len(answers) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No events recorded for session %s.\n", sessionID)
			return nil
		}
		accuracy, total, err := repo.SessionAccuracy(ctx, sessionID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render("Session "+sessionID))
		for _, e := range transitions {
			line := fmt.Sprintf("%s  %-5s  difficulty %.1f  ratio %.2f",
				e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Action, e.DifficultyLevel, e.CorrectRatio)
			if e.Action == store.SessionActionEnd {
				line += fmt.Sprintf("  served %d  correct %d  %ds", e.QuestionsServed, e.CorrectAnswers, e.DurationSecs)
			}
			fmt.Fprintln(out, line)
		}

		if len(answers) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "%-8s  %-28s  %-8s  %5s  %-12s  %-12s  %6s  %s\n",
				"Time", "Template", "Mode", "Level", "Answer", "Expected", "Secs", "OK")
			fmt.Fprintln(out, strings.Repeat("─", 100))
			for _, a := range answers {
				mark := correctStyle.Render("✓")
				if !a.Correct {
					mark = incorrectStyle.Render("✗")
				}
				fmt.Fprintf(out, "%-8s  %-28s  %-8s  %5d  %-12s  %-12s  %6.1f  %s\n",
					a.Timestamp.Local().Format("15:04:05"),
					truncate(a.TemplateID, 28),
					a.Mode,
					a.Difficulty,
					truncate(a.LearnerAnswer, 12),
					truncate(a.CorrectAnswer, 12),
					float64(a.ResponseTimeMs)/1000,
					mark,
				)
			}
		}

		fmt.Fprintln(out)
		fmt.Fprintf(out, "Accuracy: %.0f%% over %d answers\n", accuracy*100, total)
		return nil
	},
}

func init() {
	statsCmd.Flags().IntP("limit", "n", 0, "Show at most this many answers (0 = all)")
}
