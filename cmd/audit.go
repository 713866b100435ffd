package cmd

import (
	"fmt"

	"media-store/core/database"
	"media-store/feature/library"
	"media-store/feature/library/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// auditCmd compares library records with stored reference counts.
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Compare library records with stored reference counts",
	Long:  `Counts library records per media path and compares each count with the references metadata of the stored object. Requires the library database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		jsonOutput, _ := cmd.Flags().GetBool("json")

		db, err := database.Connect(a.cfg.Database)
		if err != nil {
			return fmt.Errorf("database connection required: %w", err)
		}

		svc := library.NewService(a.provider, db, a.logger)
		if err := svc.Migrate(); err != nil {
			return err
		}

		a.logger.Info("Auditing media references...")
		report, err := svc.Audit(cmd.Context())
		if err != nil {
			return fmt.Errorf("reference audit failed: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd, report)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "\n=== Media Reference Audit ===")
		fmt.Fprintf(out, "Total Paths: %d\n", report.TotalPaths)
		fmt.Fprintf(out, "Mismatches: %d\n", report.Mismatches)
		for _, e := range report.Entries {
			if e.Status == models.StatusOK {
				continue
			}
			fmt.Fprintf(out, "  [%s] %s records=%d references=%d %s\n", e.Status, e.Path, e.Records, e.References, e.Error)
		}
		fmt.Fprintf(out, "Execution Time: %s\n", report.ExecutionTime)

		a.logger.Info("Reference audit completed",
			zap.Int("paths", report.TotalPaths),
			zap.Int("mismatches", report.Mismatches),
		)
		return nil
	},
}

func init() {
	auditCmd.Flags().Bool("json", false, "Print the full report as JSON")
	RootCmd.AddCommand(auditCmd)
}
