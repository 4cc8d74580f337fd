package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/pacing"
	"github.com/abhisek/adaptiq/internal/performance"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show how a lesson's minutes are split across phases for a learner",
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes, _ := cmd.Flags().GetInt("minutes")
		paceVal, _ := cmd.Flags().GetString("pace")
		ratio, _ := cmd.Flags().GetFloat64("ratio")

		pace := performance.Pace(strings.ToLower(paceVal))
		switch pace {
		case performance.PaceFast, performance.PaceAverage, performance.PaceSlow:
		default:
			return fmt.Errorf("invalid pace %q: must be fast, average or slow", paceVal)
		}
		if ratio < 0 || ratio > 1 {
			return fmt.Errorf("ratio must be between 0 and 1, got %g", ratio)
		}

		alloc := pacing.New(appCfg.Engine.Pacing, fixedLearner{pace: pace, ratio: ratio})
		plan := alloc.Plan(appCfg.Engine.Phases, minutes)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%d-minute lesson · %s pace · %.0f%% correct", minutes, pace, ratio*100)))
		fmt.Fprintln(out)

		used := 0
		for _, p := range plan {
			fmt.Fprintf(out, "%-22s %s %5.1f%%  %3d min\n", p.Phase, bar(p.Percentage, 30), p.Percentage, p.Minutes)
			used += p.Minutes
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, hintStyle.Render(fmt.Sprintf("%d of %d minutes allocated", used, minutes)))
		return nil
	},
}

// fixedLearner reports a constant pace and accuracy.
type fixedLearner struct {
	pace  performance.Pace
	ratio float64
}

func (l fixedLearner) Pace() performance.Pace { return l.pace }
func (l fixedLearner) CorrectRatio() float64  { return l.ratio }

func init() {
	planCmd.Flags().Int("minutes", 60, "Total lesson length in minutes")
	planCmd.Flags().String("pace", "average", "Learner pace: fast, average or slow")
	planCmd.Flags().Float64("ratio", 0.6, "Learner correct ratio (0-1)")
}
