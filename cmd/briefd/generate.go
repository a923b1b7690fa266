package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/briefdhq/briefd/config"
	"github.com/briefdhq/briefd/internal/brief"
	"github.com/briefdhq/briefd/internal/cache/inmemory"
	"github.com/briefdhq/briefd/internal/index/bleveindex"
	"github.com/briefdhq/briefd/internal/pipeline"
	"github.com/briefdhq/briefd/models"
)

// generateCMD produces a single brief from the local index and prints it as
// JSON. Useful for inspecting pipeline output without the API server.
func generateCMD() *cobra.Command {
	var cfgPath string
	var userID string
	var orgID string
	var briefType string
	var hours int

	var generate = &cobra.Command{
		Use:   "generate",
		Short: "Generate one brief and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)

			idx, err := bleveindex.New(cfg.Index.Path)
			if err != nil {
				return err
			}

			assembler := brief.NewAssembler(brief.Options{
				Index:         idx,
				Pipeline:      pipeline.New(log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags)),
				Cache:         inmemory.New(),
				Logger:        log.New(log.Writer(), "[ASSEMBLER] ", log.LstdFlags),
				CacheTTL:      cfg.Brief.CacheTTL,
				MaxBatchItems: cfg.Index.MaxBatchItems,
			})

			timeRange := hours
			if timeRange <= 0 {
				timeRange = cfg.Brief.TimeRangeHours
			}
			generated, err := assembler.Generate(context.Background(), models.BriefConfig{
				UserID:             userID,
				OrgID:              orgID,
				BriefType:          briefType,
				MaxItemsPerSection: cfg.Brief.MaxItemsPerSection,
				PriorityThreshold:  cfg.Brief.PriorityThreshold,
				TimeRangeHours:     timeRange,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(generated)
		},
	}
	generate.Flags().StringVar(&userID, "user", "local", "user id")
	generate.Flags().StringVar(&orgID, "org", "", "org id")
	generate.Flags().StringVar(&briefType, "type", "daily", "brief type")
	generate.Flags().IntVar(&hours, "hours", 0, "time range in hours (0 = configured default)")
	generate.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return generate
}
