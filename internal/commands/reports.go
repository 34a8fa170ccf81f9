package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/X-Plane/dashboard/internal/output"
	"github.com/X-Plane/dashboard/internal/reports"
)

type reportFlags struct {
	out      string
	absolute bool
}

func (a *app) aircraftCommand() *cobra.Command {
	var flags reportFlags
	cmd := &cobra.Command{
		Use:   "aircraft",
		Short: "Write the aircraft popularity workbook (.xlsx)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runReport(cmd.Context(), reports.KindAircraft, flags)
		},
	}
	addReportFlags(cmd, &flags)
	return cmd
}

func (a *app) hardwareCommand() *cobra.Command {
	var flags reportFlags
	cmd := &cobra.Command{
		Use:   "hardware",
		Short: "Write the hardware breakdown (.csv)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runReport(cmd.Context(), reports.KindHardware, flags)
		},
	}
	addReportFlags(cmd, &flags)
	return cmd
}

func addReportFlags(cmd *cobra.Command, flags *reportFlags) {
	cmd.Flags().StringVar(&flags.out, "out", ".", "directory to write the report into")
	cmd.Flags().BoolVar(&flags.absolute, "absolute", false, "include absolute counts next to the percentages")
}

func (a *app) runReport(ctx context.Context, kind reports.Kind, flags reportFlags) error {
	queries, group, err := a.queries(ctx)
	if err != nil {
		return err
	}

	report, err := reports.NewGenerator(queries, group, a.logger()).Generate(ctx, kind, flags.absolute)
	if err != nil {
		return NewServiceUnavailableError("Google Analytics", err)
	}

	if err := os.MkdirAll(flags.out, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(flags.out, report.Name)
	if err := os.WriteFile(path, report.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return a.write(output.Table{
		Headers: []string{"Report", "File", "Bytes", "SHA-256"},
		Rows: [][]string{{
			string(kind),
			path,
			strconv.Itoa(len(report.Data)),
			reports.Checksum(report.Data),
		}},
	})
}
