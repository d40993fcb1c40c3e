package cmd

import (
	"fmt"
	"strings"

	"asset-pipeline/core/asset"
	"asset-pipeline/core/utils"
	"asset-pipeline/feature/pipeline"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	exportUpload        bool
	exportMaterialsOnly bool

	dirRoot      string
	dirPattern   string
	dirRecursive bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every resource flagged for export",
	Long: `Runs the converters over every flagged model, material and texture and
writes mapping.json. With --upload the produced files, and only those, are uploaded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		opts := a.pipeline.Defaults()
		opts.MaterialsOnly = exportMaterialsOnly
		result, err := a.pipeline.ExportSelected(cmd.Context(), pipeline.ExportRequest{Options: &opts, AutoUpload: exportUpload}, progressPrinter(a.logger))
		if err != nil {
			return err
		}

		s := result.Export
		fmt.Println("\n--- Export Summary ---")
		fmt.Printf("Run:            %s\n", s.RunID)
		fmt.Printf("Succeeded:      %d\n", s.SuccessCount)
		fmt.Printf("Failed:         %d\n", s.FailCount)
		if s.Cancelled {
			fmt.Printf("Not started:    %d (cancelled)\n", s.Skipped)
		}
		fmt.Printf("Files:          %d\n", len(s.Files))
		fmt.Printf("Mapping:        %s\n", s.MappingPath)
		fmt.Printf("Duration:       %s\n", s.Duration)
		for _, f := range s.Failures {
			fmt.Printf("- %s (%s): %s\n", f.Name, f.Ref, f.Error)
		}
		if result.Upload != nil {
			printUpload(result.Upload)
		}
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload [files...]",
	Short: "Upload exported files and mapping.json",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.pipeline.UploadExportedFiles(cmd.Context(), args, progressPrinter(a.logger))
		if err != nil {
			return err
		}
		printUpload(report)
		return nil
	},
}

var uploadDirCmd = &cobra.Command{
	Use:   "upload-dir",
	Short: "Upload a directory below the server root (full re-sync)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		req := pipeline.DirectoryRequest{Root: dirRoot, Pattern: dirPattern, Recursive: dirRecursive}
		report, err := a.pipeline.UploadFullDirectory(cmd.Context(), req, progressPrinter(a.logger))
		if err != nil {
			return err
		}
		printUpload(report)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [remote-path]",
	Short: "Delete a remote object and reset resources pointing at it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.pipeline.DeleteRemoteFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !result.Deleted {
			return fmt.Errorf("delete of %s was rejected by storage", result.RemotePath)
		}
		fmt.Printf("Deleted %s, reset %d resources, %d ledger records marked removed\n",
			result.RemotePath, result.Report.Reset, result.Report.Removed)
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Reconcile the catalog against the bucket listing",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.pipeline.RefreshRemoteListing(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Verified %d, reset %d, ledger records marked removed %d\n", report.Verified, report.Reset, report.Removed)
		return nil
	},
}

// marksCmd is the parent of the export-flag commands.
var marksCmd = &cobra.Command{
	Use:   "marks",
	Short: "Manage export flags",
}

var marksRelatedCmd = &cobra.Command{
	Use:   "related [kind:id...]",
	Short: "Flag resources and everything related to them",
	Example: `  marks related model:12
  marks related material:4 texture:9`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		refs, err := parseRefs(args)
		if err != nil {
			return err
		}
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.pipeline.MarkRelated(cmd.Context(), refs)
		if err != nil {
			return err
		}
		for _, ref := range result.Marked {
			fmt.Println(ref)
		}
		return nil
	},
}

var marksClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear every export flag",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		cleared, err := a.pipeline.ClearMarks(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Cleared %d export flags\n", cleared)
		return nil
	},
}

func init() {
	exportCmd.Flags().BoolVar(&exportUpload, "upload", false, "Upload the produced files after the export")
	exportCmd.Flags().BoolVar(&exportMaterialsOnly, "materials-only", false, "Export standalone materials as JSON only")

	uploadDirCmd.Flags().StringVar(&dirRoot, "root", "", "Directory relative to the server root")
	uploadDirCmd.Flags().StringVar(&dirPattern, "pattern", "*", "File name glob")
	uploadDirCmd.Flags().BoolVar(&dirRecursive, "recursive", true, "Descend into subdirectories")

	marksCmd.AddCommand(marksRelatedCmd, marksClearCmd)
	RootCmd.AddCommand(exportCmd, uploadCmd, uploadDirCmd, deleteCmd, refreshCmd, marksCmd)
}

// parseRefs parses "kind:id" arguments.
func parseRefs(args []string) ([]asset.Ref, error) {
	refs := make([]asset.Ref, 0, len(args))
	for _, arg := range args {
		kindPart, idPart, ok := strings.Cut(arg, ":")
		if !ok {
			return nil, fmt.Errorf("invalid reference %q, want kind:id", arg)
		}
		kind, err := asset.ParseKind(kindPart)
		if err != nil {
			return nil, err
		}
		id, err := utils.ParseID(idPart)
		if err != nil {
			return nil, fmt.Errorf("invalid reference %q: %w", arg, err)
		}
		refs = append(refs, asset.Ref{Kind: kind, ID: id})
	}
	return refs, nil
}

func progressPrinter(l *zap.Logger) pipeline.ProgressFunc {
	return func(p pipeline.Progress) {
		l.Info("Progress",
			zap.String("phase", string(p.Phase)),
			zap.String("percent", fmt.Sprintf("%.0f%%", p.Percent)),
			zap.String("item", p.Item))
	}
}

func printUpload(r *pipeline.UploadReport) {
	b := r.Batch
	fmt.Println("\n--- Upload Summary ---")
	fmt.Printf("Uploaded:       %d\n", b.SuccessCount)
	fmt.Printf("Unchanged:      %d\n", b.SkippedCount)
	fmt.Printf("Failed:         %d\n", b.FailedCount)
	if b.Cancelled > 0 {
		fmt.Printf("Not started:    %d (cancelled)\n", b.Cancelled)
	}
	fmt.Printf("Duration:       %s\n", b.Duration)
	if r.Mapping != nil {
		fmt.Printf("Mapping:        %s (success=%v)\n", r.Mapping.RemotePath, r.Mapping.Success)
	}
	if r.Correlation.Skipped {
		fmt.Println("Correlation:    skipped (mapping unavailable)")
	} else {
		fmt.Printf("Correlation:    %d promoted, %d errored, %d unmatched\n",
			r.Correlation.Promoted, r.Correlation.Errored, r.Correlation.Unmatched)
	}
	for _, f := range b.Results {
		if !f.Success && f.Error != "" {
			fmt.Printf("- %s: %s\n", f.RemotePath, f.Error)
		}
	}
}
