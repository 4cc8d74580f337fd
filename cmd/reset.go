package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset <session-id>",
	Short: "Forget which questions a session has already seen",
	Long: `Clear the stored usage history of a session so that its questions may be
served again. Recorded answer and session events are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		usage := s.UsageStore(logger)
		if !usage.Exists(args[0]) {
			fmt.Fprintf(cmd.OutOrStdout(), "Session %s has no usage history.\n", args[0])
			return nil
		}
		n := usage.Len(args[0])
		usage.Clear(args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d seen questions and templates for session %s.\n", n, args[0])
		return nil
	},
}
