package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dvloznov/plata/internal/export"
)

func newExportCmd() *cobra.Command {
	var bucket string

	cmd := &cobra.Command{
		Use:   "export <account>",
		Short: "Upload a CSV snapshot of an account's ledger to Cloud Storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			ctx, a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Shutdown(ctx)

			if bucket == "" {
				bucket = a.Config.Export.Bucket
			}
			exporter, err := export.NewGCSExporter(ctx, bucket)
			if err != nil {
				return err
			}
			defer exporter.Close()

			acc, err := a.Account(args[0])
			if err != nil {
				return err
			}
			rows, err := a.Ledgers.Snapshot(ctx, acc.Ledger)
			if err != nil {
				return err
			}
			uri, err := exporter.Export(ctx, acc.Ledger, rows)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows of %s to %s\n", len(rows)-1, acc.Name, uri)
			return nil
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "GCS bucket (default from config or GCS_BUCKET)")
	return cmd
}

func newShowExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show-export <gs://bucket/object>",
		Short: "Download an exported snapshot and print it as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			bucket, _, err := export.ParseURI(args[0])
			if err != nil {
				return err
			}
			exporter, err := export.NewGCSExporter(ctx, bucket)
			if err != nil {
				return err
			}
			defer exporter.Close()

			rows, err := exporter.Fetch(ctx, args[0])
			if err != nil {
				return err
			}

			w := csv.NewWriter(cmd.OutOrStdout())
			if err := w.WriteAll(rows); err != nil {
				return fmt.Errorf("writing csv: %w", err)
			}
			return nil
		},
	}
}
