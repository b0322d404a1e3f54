// Package main is the entry point for the pdf2json CLI. It converts one PDF
// file and prints the JSON result as a single line on stdout.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/a3tai/pdf2json/internal/config"
	"github.com/a3tai/pdf2json/internal/pdf"
	"github.com/a3tai/pdf2json/internal/pdf/wrapper"
)

var (
	version   = config.Version // This will be set by build flags
	buildTime = "unknown"      // This will be set by build flags
	gitCommit = "unknown"      // This will be set by build flags
)

// Exit codes
const (
	exitOK         = 0
	exitDependency = 1
	exitUsage      = 2
)

// newLogger returns a stderr logger at debug level and a discarding one otherwise
func newLogger(cfg *config.Config, stderr io.Writer) *log.Logger {
	if cfg.IsDebug() {
		return log.New(stderr, "[pdf2json] ", log.LstdFlags|log.Lshortfile)
	}
	return log.New(io.Discard, "", 0)
}

// versionString describes the build
func versionString() string {
	return fmt.Sprintf("pdf2json\nVersion: %s\nBuild Time: %s\nGit Commit: %s\nBuilt with: %s\n",
		version, buildTime, gitCommit, runtime.Version())
}

// newRootCmd builds the root command. The exit status of a completed run is
// stored in code; errors returned from Execute are usage errors.
func newRootCmd(stdout, stderr io.Writer, code *int) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pdf2json <pdf_path>",
		Short: "Convert a PDF document to JSON",
		Long: `pdf2json extracts the text spans of every page of a PDF, with bounding
boxes, fonts and sizes, and optionally the document metadata and tables.
The result is printed to stdout as one line of JSON. Failures are reported
in the JSON as {"success": false, "error": "..."}.`,
		Example: `  pdf2json report.pdf
  pdf2json report.pdf --include-metadata true --extract-tables true
  pdf2json report.pdf --extract-tables true --table-strategy text --output report.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags(), args[0])
			if err != nil {
				return err
			}
			*code = convert(cfg, stdout, stderr)
			return nil
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("{{.Version}}")
	cmd.Version = versionString()
	config.DefineFlags(cmd.Flags())

	return cmd
}

// convert runs one conversion and returns the process exit code
func convert(cfg *config.Config, stdout, stderr io.Writer) int {
	logger := newLogger(cfg, stderr)
	if cfg.IsDebug() {
		wrapper.ConfigureLogging(logger)
		logger.Printf("Starting with configuration: %s", cfg.String())
	} else {
		wrapper.ConfigureLogging(nil)
	}

	convCfg := pdf.DefaultConverterConfig()
	convCfg.MaxFileSize = cfg.MaxFileSize
	convCfg.Logger = logger
	converter := pdf.NewConverter(convCfg)

	if err := converter.SelfCheck(); err != nil {
		logger.Printf("Self-check failed: %v", err)
		if werr := pdf.WriteJSON(stdout, pdf.Failed(err)); werr != nil {
			logger.Printf("Failed to write result: %v", werr)
		}
		return exitDependency
	}

	result := converter.Convert(cfg.PDFPath, pdf.Options{
		IncludeMetadata: cfg.IncludeMetadata,
		ExtractTables:   cfg.ExtractTables,
		TableStrategy:   cfg.TableStrategy,
		NormalizeText:   cfg.NormalizeText,
	})

	if cfg.OutputPath != "" && result.Success {
		if err := pdf.WriteFile(cfg.OutputPath, result); err != nil {
			logger.Printf("Failed to write output file: %v", err)
		}
	}

	if err := pdf.WriteJSON(stdout, result); err != nil {
		logger.Printf("Failed to write result: %v", err)
	}
	return exitOK
}

// run executes the CLI with args and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	code := exitOK
	cmd := newRootCmd(stdout, stderr, &code)
	if args == nil {
		// cobra falls back to os.Args for a nil slice
		args = []string{}
	}
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n\n%s", err, cmd.UsageString())
		return exitUsage
	}
	return code
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
