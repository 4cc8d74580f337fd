package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/dedup"
	"github.com/abhisek/adaptiq/internal/engine"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Answer generated questions interactively (no database)",
	Long: `Generate and interactively answer questions for a subject and skill area.

This is a stateless developer tool: usage history lives in memory and no
events are recorded. Useful for checking how templates render and how
difficulty follows the answers.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().String("subject", "", "Subject (required)")
	previewCmd.Flags().String("skill-area", "", "Skill area; empty matches any")
	previewCmd.Flags().Int("count", 5, "Number of questions to serve")
	previewCmd.Flags().Bool("stable", false, "Serve from the precompiled batches")
	_ = previewCmd.MarkFlagRequired("subject")
}

func runPreview(cmd *cobra.Command, args []string) error {
	subject, _ := cmd.Flags().GetString("subject")
	skillArea, _ := cmd.Flags().GetString("skill-area")
	count, _ := cmd.Flags().GetInt("count")
	stable, _ := cmd.Flags().GetBool("stable")

	cat, err := loadCatalog(cmd)
	if err != nil {
		return err
	}
	ecfg := appCfg.Engine
	ecfg.Logger = logger
	eng, err := engine.New(cat, dedup.NewMemoryStore(), nil, ecfg)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	ctx := cmd.Context()
	sess, err := eng.StartSession(ctx, engine.StartOptions{})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Preview: %s / %s", subject, orAny(skillArea))))
	fmt.Fprintln(out, hintStyle.Render("Answer with the option number or the answer text. Empty input skips."))
	fmt.Fprintln(out)

	for i := 1; i <= count; i++ {
		q, err := eng.NextQuestion(ctx, engine.Request{
			SessionID: sess.ID,
			Subject:   subject,
			SkillArea: skillArea,
			Stable:    stable,
		})
		if errors.Is(err, engine.ErrCatalogMiss) {
			fmt.Fprintln(out, incorrectStyle.Render("No template matches this subject and skill area at the current level."))
			break
		}
		if err != nil {
			return err
		}

		var body strings.Builder
		fmt.Fprintf(&body, "%s\n", q.QuestionText)
		for j, o := range q.Options {
			fmt.Fprintf(&body, "\n  %d) %s", j+1, o)
		}
		fmt.Fprintf(out, "── Question %d/%d · level %d · %s ──\n", i, count, q.Difficulty, q.TemplateID)
		fmt.Fprintln(out, cardStyle.Render(body.String()))

		fmt.Fprint(out, "\nYour answer: ")
		start := time.Now()
		if !scanner.Scan() {
			fmt.Fprintln(out, "\n(input closed)")
			break
		}
		answer := strings.TrimSpace(scanner.Text())
		if answer == "" {
			fmt.Fprintln(out, hintStyle.Render("(skipped)"))
			fmt.Fprintln(out)
			continue
		}

		res, err := eng.SubmitAnswer(ctx, engine.AnswerInput{
			SessionID:       sess.ID,
			QuestionID:      q.ID,
			Answer:          answer,
			ResponseTimeSec: time.Since(start).Seconds(),
		})
		if err != nil {
			return err
		}
		if res.Correct {
			fmt.Fprintln(out, correctStyle.Render("✓ Correct!"))
		} else {
			fmt.Fprintf(out, "%s Answer: %s\n", incorrectStyle.Render("✗ Wrong."), res.CorrectAnswer)
		}
		fmt.Fprintln(out, res.Feedback)
		if res.Explanation != "" {
			fmt.Fprintln(out, hintStyle.Render("Explanation: "+res.Explanation))
		}
		fmt.Fprintln(out)
	}

	sum, err := eng.EndSession(ctx, sess.ID)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("── Summary: %d/%d correct ──", sum.Correct, sum.Answered)))
	fmt.Fprintf(out, "Difficulty %.1f · pace %s · ratio %.2f\n",
		sum.Metrics.DifficultyLevel, sum.Metrics.Pace, sum.Metrics.CorrectRatio)
	return nil
}

func orAny(s string) string {
	if s == "" {
		return "any"
	}
	return s
}
