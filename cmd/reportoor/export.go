package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/qaforge/reportoor/pkg/export"
	"github.com/qaforge/reportoor/pkg/report"
	"github.com/qaforge/reportoor/pkg/store"
)

var (
	exportDimensions []string
	exportMetrics    []string
	exportProjectID  uint
	exportStartDate  string
	exportEndDate    string
	exportOutputDir  string
	exportUpload     bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Run a report and export it to CSV",
	Long: `Run a report against the configured database and write one CSV
file per selected metric, optionally uploading the files to S3.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringSliceVar(&exportDimensions, "dimensions", nil,
		"dimension ids to group by, in order")
	exportCmd.Flags().StringSliceVar(&exportMetrics, "metrics", nil,
		"metric ids to compute")
	exportCmd.Flags().UintVar(&exportProjectID, "project", 0,
		"project id to scope to (0 = cross-project)")
	exportCmd.Flags().StringVar(&exportStartDate, "start-date", "",
		"inclusive start date (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportEndDate, "end-date", "",
		"inclusive end date (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportOutputDir, "output", "",
		"output directory (overrides config)")
	exportCmd.Flags().BoolVar(&exportUpload, "upload", false,
		"upload exported files to the configured S3 bucket")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	outputDir := exportOutputDir
	if outputDir == "" && cfg.Export != nil {
		outputDir = cfg.Export.OutputDir
	}

	if outputDir == "" {
		outputDir = "."
	}

	var uploader export.Uploader

	if exportUpload {
		if cfg.Export == nil || cfg.Export.S3 == nil ||
			!cfg.Export.S3.Enabled {
			return fmt.Errorf("--upload requires an enabled export.s3 config")
		}

		uploader, err = export.NewS3Uploader(log, cfg.Export.S3)
		if err != nil {
			return fmt.Errorf("creating s3 uploader: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	st := store.NewStore(log, &cfg.Database)
	if err := st.Start(ctx); err != nil {
		return fmt.Errorf("starting store: %w", err)
	}

	defer func() {
		if err := st.Stop(); err != nil {
			log.WithError(err).Warn("Failed to stop store")
		}
	}()

	if uploader != nil {
		if err := uploader.Preflight(ctx); err != nil {
			return fmt.Errorf("s3 preflight: %w", err)
		}
	}

	req := report.Request{
		Dimensions: exportDimensions,
		Metrics:    exportMetrics,
	}

	if exportProjectID != 0 {
		pid := exportProjectID
		req.ProjectID = &pid
	}

	if exportStartDate != "" || exportEndDate != "" {
		req.Filters = &report.DateRange{
			StartDate: exportStartDate,
			EndDate:   exportEndDate,
		}
	}

	engine := report.NewEngine(log, st, cfg.Report.MaxScannedRows)

	result, err := engine.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("running report: %w", err)
	}

	if result.Summary != "" {
		log.WithField("summary", result.Summary).Info("Report computed")
	}

	for i := range result.Results {
		metric := &result.Results[i]

		path := filepath.Join(outputDir, metric.MetricID+".csv")

		if err := writeMetricCSV(path, metric); err != nil {
			return err
		}

		log.WithField("path", path).
			WithField("rows", len(metric.Rows)).
			Info("Exported metric")

		if uploader != nil {
			if err := uploader.Upload(ctx, path); err != nil {
				return fmt.Errorf("uploading %s: %w", path, err)
			}
		}
	}

	return nil
}

// writeMetricCSV writes one metric's rows to a CSV file.
func writeMetricCSV(path string, metric *report.MetricResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := export.WriteCSV(f, metric); err != nil {
		_ = f.Close()

		return fmt.Errorf("writing %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}

	return nil
}
