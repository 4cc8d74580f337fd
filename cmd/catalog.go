package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/authoring"
	"github.com/abhisek/adaptiq/internal/catalog"
	"github.com/abhisek/adaptiq/internal/llm"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Validate, browse and extend the template catalog",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate [file...]",
	Short: "Validate catalog files (default: the configured catalog)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{catalogPath(cmd)}
		}

		var failed int
		for _, path := range args {
			name := path
			var (
				cat *catalog.Catalog
				err error
			)
			if path == "" {
				name = "(embedded)"
				cat, err = catalog.Load(catalog.DefaultJSON())
			} else {
				cat, err = catalog.LoadFile(path)
			}
			if err != nil {
				failed++
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", incorrectStyle.Render("✗"), name)
				var verr *catalog.ValidationError
				if errors.As(err, &verr) {
					for _, p := range verr.Problems {
						fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", p)
					}
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "    %v\n", err)
				}
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d templates, version %s\n",
				correctStyle.Render("✓"), name, cat.Len(), cat.Version())
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d catalogs invalid", failed, len(args))
		}
		return nil
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates (optionally filtered by subject, skill area or level)",
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		skillArea, _ := cmd.Flags().GetString("skill-area")
		level, _ := cmd.Flags().GetInt("level")

		cat, err := loadCatalog(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-28s  %-12s  %-14s  %-14s  %5s\n",
			"ID", "Subject", "Skill Area", "Type", "Level")
		fmt.Fprintln(out, strings.Repeat("─", 82))

		n := 0
		for _, t := range cat.Templates() {
			if subject != "" && t.Subject != subject {
				continue
			}
			if skillArea != "" && t.SkillArea != skillArea {
				continue
			}
			if level > 0 && t.DifficultyLevel > level {
				continue
			}
			fmt.Fprintf(out, "%-28s  %-12s  %-14s  %-14s  %5d\n",
				truncate(t.ID, 28), truncate(t.Subject, 12), truncate(t.SkillArea, 14), t.Type, t.DifficultyLevel)
			n++
		}

		fmt.Fprintf(out, "\n%d of %d templates (catalog %s)\n", n, cat.Len(), cat.Version())
		return nil
	},
}

var catalogDraftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Draft a new template with the configured LLM provider",
	Long: `Ask the configured LLM provider for a template, validate it and print it
as JSON. With --append the template is added to the --catalog file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		skillArea, _ := cmd.Flags().GetString("skill-area")
		difficulty, _ := cmd.Flags().GetInt("difficulty")
		typ, _ := cmd.Flags().GetString("type")
		notes, _ := cmd.Flags().GetString("notes")
		appendTo, _ := cmd.Flags().GetBool("append")

		path := catalogPath(cmd)
		if appendTo && path == "" {
			return fmt.Errorf("--append needs a catalog file (--catalog or catalog.path)")
		}
		cat, err := loadCatalog(cmd)
		if err != nil {
			return err
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		provider, err := llm.NewProvider(ctx, appCfg.LLM, st.EventRepo(), logger)
		if err != nil {
			return fmt.Errorf("LLM provider: %w", err)
		}

		acfg := appCfg.Authoring
		acfg.Logger = logger
		drafter := authoring.New(provider, cat, acfg)
		t, err := drafter.Draft(ctx, authoring.DraftInput{
			Subject:         subject,
			SkillArea:       skillArea,
			DifficultyLevel: difficulty,
			Type:            catalog.Type(typ),
			Notes:           notes,
		})
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return fmt.Errorf("encode template: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))

		if !appendTo {
			return nil
		}
		updated := catalog.New(cat.Version(), append(cat.Templates(), *t)...)
		doc, err := updated.Marshal()
		if err != nil {
			return fmt.Errorf("encode catalog: %w", err)
		}
		if _, err := catalog.Load(doc); err != nil {
			return fmt.Errorf("catalog with draft is invalid: %w", err)
		}
		if err := os.WriteFile(path, append(doc, '\n'), 0o644); err != nil {
			return fmt.Errorf("write catalog: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "appended %s to %s\n", t.ID, path)
		return nil
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func init() {
	catalogListCmd.Flags().String("subject", "", "Filter by subject")
	catalogListCmd.Flags().String("skill-area", "", "Filter by skill area")
	catalogListCmd.Flags().Int("level", 0, "Only templates at or below this difficulty level")

	catalogDraftCmd.Flags().String("subject", "", "Subject (required)")
	catalogDraftCmd.Flags().String("skill-area", "", "Skill area (required)")
	catalogDraftCmd.Flags().Int("difficulty", 3, "Difficulty level 1-10")
	catalogDraftCmd.Flags().String("type", "", "word_problem, arithmetic or string_choice (default: model's choice)")
	catalogDraftCmd.Flags().String("notes", "", "Extra guidance for the model")
	catalogDraftCmd.Flags().Bool("append", false, "Append the draft to the catalog file")
	_ = catalogDraftCmd.MarkFlagRequired("subject")
	_ = catalogDraftCmd.MarkFlagRequired("skill-area")

	catalogCmd.AddCommand(catalogValidateCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogDraftCmd)
}
