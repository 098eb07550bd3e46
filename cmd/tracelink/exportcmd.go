package main

import (
	"archive/tar"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"

	"tracelink/internal/config"
	terrors "tracelink/internal/errors"
	"tracelink/internal/report"
	"tracelink/internal/storage"
	"tracelink/internal/version"
)

var (
	exportRun string
	exportOut string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Create a report bundle",
	Long: `Create a compressed bundle of a stored run for archiving or
hand-off.

The bundle is a zstd-compressed tar containing:
  - record.json: the full deterministic record
  - summary.txt: the human-readable report
  - sarif.json:  the diagnostics as SARIF 2.1.0
  - meta.json:   run id, timestamps and system information

Example:
  tracelink export --out audit-2026-08.tar.zst`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportRun, "run", "", "Run id to export (default: latest)")
	exportCmd.Flags().StringVar(&exportOut, "out", "tracelink-export.tar.zst", "Output file path")

	rootCmd.AddCommand(exportCmd)
}

// ExportMeta describes the bundle itself. Timestamps live here, never
// in record.json.
type ExportMeta struct {
	GeneratedAt string              `json:"generatedAt"`
	Tool        string              `json:"tool"`
	Version     string              `json:"version"`
	Run         *storage.RunSummary `json:"run"`
	System      ExportSystemInfo    `json:"system"`
}

// ExportSystemInfo records where the bundle was produced.
type ExportSystemInfo struct {
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	GoVersion    string `json:"goVersion"`
}

// bundleFile is one entry of the export archive.
type bundleFile struct {
	name    string
	content []byte
}

func runExport(cmd *cobra.Command, args []string) error {
	root := mustGetRoot()

	cfg, err := config.LoadConfig(root)
	if err != nil {
		return err
	}

	db, err := storage.Open(root, newCommandLogger(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	rec, sum, err := loadStoredRecord(db, exportRun)
	if err != nil {
		return err
	}

	files, err := buildBundle(rec, sum)
	if err != nil {
		return err
	}

	if err := writeBundle(exportOut, files); err != nil {
		return err
	}

	fmt.Printf("Export bundle created: %s\n", exportOut)
	for _, f := range files {
		fmt.Printf("  %s (%d bytes)\n", f.name, len(f.content))
	}
	return nil
}

// buildBundle renders every bundle entry for one stored run.
func buildBundle(rec *report.Record, sum *storage.RunSummary) ([]bundleFile, error) {
	recordJSON, err := report.EncodeJSON(rec)
	if err != nil {
		return nil, terrors.Wrap(terrors.ExportFailed, "failed to encode record", err)
	}

	sarifDoc, err := FormatRecordAsSARIF(rec)
	if err != nil {
		return nil, terrors.Wrap(terrors.ExportFailed, "failed to build SARIF document", err)
	}

	meta := ExportMeta{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Tool:        rec.Tool.Name,
		Version:     version.Version,
		Run:         sum,
		System: ExportSystemInfo{
			OS:           runtime.GOOS,
			Architecture: runtime.GOARCH,
			GoVersion:    runtime.Version(),
		},
	}
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, terrors.Wrap(terrors.ExportFailed, "failed to marshal bundle metadata", err)
	}

	return []bundleFile{
		{name: "record.json", content: recordJSON},
		{name: "summary.txt", content: []byte(report.RenderText(rec))},
		{name: "sarif.json", content: []byte(sarifDoc)},
		{name: "meta.json", content: metaJSON},
	}, nil
}

// writeBundle writes the entries as a zstd-compressed tar archive.
func writeBundle(outPath string, files []bundleFile) error {
	outFile, err := os.Create(outPath)
	if err != nil {
		return terrors.Wrap(terrors.ExportFailed, "failed to create output file", err)
	}
	defer func() { _ = outFile.Close() }()

	zw, err := zstd.NewWriter(outFile)
	if err != nil {
		return terrors.Wrap(terrors.ExportFailed, "failed to create zstd writer", err)
	}
	tw := tar.NewWriter(zw)

	modTime := time.Now().UTC()
	for _, f := range files {
		hdr := &tar.Header{
			Name:    f.name,
			Mode:    0644,
			Size:    int64(len(f.content)),
			ModTime: modTime,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return terrors.Wrap(terrors.ExportFailed, "failed to write archive header", err)
		}
		if _, err := tw.Write(f.content); err != nil {
			return terrors.Wrap(terrors.ExportFailed, "failed to write archive entry", err)
		}
	}

	if err := tw.Close(); err != nil {
		return terrors.Wrap(terrors.ExportFailed, "failed to finalize archive", err)
	}
	if err := zw.Close(); err != nil {
		return terrors.Wrap(terrors.ExportFailed, "failed to finalize compression", err)
	}
	return nil
}
