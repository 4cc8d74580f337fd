package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/catalog"
	"github.com/abhisek/adaptiq/internal/dedup"
	"github.com/abhisek/adaptiq/internal/problemgen"
	"github.com/abhisek/adaptiq/internal/stable"
)

var precompileCmd = &cobra.Command{
	Use:   "precompile",
	Short: "Export the precompiled stable question batches as JSON",
	Long: `Build the stable batches for every catalog template and write them as JSON.

With --verify the batches are built twice and compared, failing if any
question differs between the runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		only, _ := cmd.Flags().GetStringSlice("template")
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		verify, _ := cmd.Flags().GetBool("verify")
		outPath, _ := cmd.Flags().GetString("out")

		cat, err := loadCatalog(cmd)
		if err != nil {
			return err
		}
		cfg := appCfg.Engine.Stable
		cfg.Logger = logger
		if batchSize > 0 {
			cfg.BatchSize = batchSize
		}

		doc, err := precompile(cat, cfg, only)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("encode batches: %w", err)
		}

		if verify {
			again, err := precompile(cat, cfg, only)
			if err != nil {
				return err
			}
			second, err := json.MarshalIndent(again, "", "  ")
			if err != nil {
				return fmt.Errorf("encode batches: %w", err)
			}
			if !bytes.Equal(data, second) {
				return fmt.Errorf("precompiled batches differ between runs")
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "verified %d templates × %d questions\n", len(doc.Batches), doc.BatchSize)
		}

		if outPath == "" {
			_, err = cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		}
		return os.WriteFile(outPath, append(data, '\n'), 0o644)
	},
}

func init() {
	precompileCmd.Flags().StringSlice("template", nil, "Only export these template ids")
	precompileCmd.Flags().Int("batch-size", 0, "Questions per template (overrides stable.batch_size)")
	precompileCmd.Flags().Bool("verify", false, "Build twice and check the output is identical")
	precompileCmd.Flags().StringP("out", "o", "", "Write to file instead of stdout")
}

type precompiledDoc struct {
	CatalogVersion string                                    `json:"catalog_version"`
	BatchSize      int                                       `json:"batch_size"`
	Batches        map[string][]problemgen.GeneratedQuestion `json:"batches"`
}

func precompile(cat *catalog.Catalog, cfg stable.Config, only []string) (*precompiledDoc, error) {
	p := stable.New(cat, dedup.NewMemoryStore(), cfg)
	doc := &precompiledDoc{
		CatalogVersion: cat.Version(),
		BatchSize:      p.BatchSize(),
		Batches:        make(map[string][]problemgen.GeneratedQuestion),
	}
	for _, t := range cat.Templates() {
		if len(only) > 0 && !slices.Contains(only, t.ID) {
			continue
		}
		batch, _ := p.Batch(t.ID)
		doc.Batches[t.ID] = batch
	}
	for _, id := range only {
		if _, ok := doc.Batches[id]; !ok {
			return nil, fmt.Errorf("template %q not in catalog", id)
		}
	}
	return doc, nil
}
