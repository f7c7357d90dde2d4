package main

import (
	"fmt"
	"io"
	"os"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"github.com/spf13/cobra"

	"doxyscan/internal/errors"
	"doxyscan/internal/highlight"
	"doxyscan/internal/paths"
	"doxyscan/internal/scipexport"
	"doxyscan/internal/storage"
)

var (
	exportOut      string
	exportNoUpdate bool
)

var exportSCIPCmd = &cobra.Command{
	Use:   "export-scip",
	Short: "Export highlight ranges and findings as a SCIP index",
	Long: `Write a SCIP index whose occurrences carry syntax kinds for comments,
Doxygen commands and their arguments, plus a warning diagnostic per lint
finding. The index covers the files of the scan index.

Examples:
  doxyscan export-scip --out doxyscan.scip
  doxyscan export-scip --out - | scip print -`,
	Args: cobra.NoArgs,
	RunE: runExportSCIP,
}

func init() {
	exportSCIPCmd.Flags().StringVar(&exportOut, "out", "doxyscan.scip", `Output file ("-" for stdout)`)
	exportSCIPCmd.Flags().BoolVar(&exportNoUpdate, "no-update", false, "Export the index as it is")
	rootCmd.AddCommand(exportSCIPCmd)
}

func runExportSCIP(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if !exportNoUpdate {
		if _, err := updateIndex(e, false); err != nil {
			return err
		}
	}
	db, err := openIndex(e)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := newContext()
	defer cancel()
	files, err := db.Files(ctx)
	if err != nil {
		return err
	}

	exp := scipexport.New(e.root, highlight.New(e.recognizer, e.highlightOptions()))
	docs := make([]*scippb.Document, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(paths.JoinRoot(e.root, f.Path))
		if err != nil {
			e.logger.Warn("Skipping file missing since indexing", "path", f.Path, "error", err.Error())
			continue
		}
		findings, err := db.Findings(ctx, storage.FindingFilter{Path: f.Path})
		if err != nil {
			return err
		}
		doc, err := exp.Document(ctx, f.Path, string(data), findings)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	var w io.Writer = e.out
	if exportOut != "-" {
		file, err := os.Create(exportOut)
		if err != nil {
			return errors.New(errors.InternalError, "cannot create "+exportOut, err)
		}
		defer file.Close()
		w = file
	}
	if err := scipexport.Write(w, exp.Index(docs)); err != nil {
		return err
	}
	if exportOut != "-" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d documents to %s\n", len(docs), exportOut)
	}
	return nil
}
