// Package main provides the CLI entrypoint for rowmapper.
//
// rowmapper checks and normalizes CSV files against a YAML row schema:
//   - check decodes every row and reports the cells that do not convert
//   - normalize decodes every row and writes it back in canonical cell text
//   - infer writes a starting schema from a CSV header
//   - validate reports structural problems of a schema file
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rowmapper/internal/diagnostic"
	"rowmapper/mapper"
	"rowmapper/options"
	"rowmapper/schema"
)

var errRowsFailed = errors.New("some rows failed")

var (
	schemaPath string
	typeName   string
	outputPath string
	workers    int
	skipFailed bool
	strict     bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "rowmapper",
	Short: "Check and normalize CSV files against a row schema",
	Long: `Check and normalize CSV files against a YAML row schema.

Every column of a schema type carries a type tag (int, *float64, []string,
[][]date, locale, ...). Sequence cells use the bracket form "[a, b, [c, d]]";
an empty cell is null.

Examples:
  rowmapper infer --type Item items.csv -o items.yaml
  rowmapper check --schema items.yaml --type Item items.csv
  rowmapper normalize --schema items.yaml --type Item items.csv -o clean.csv`,
	SilenceUsage: true,
}

var checkCmd = &cobra.Command{
	Use:   "check <data.csv>",
	Short: "Report rows whose cells do not convert",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize <data.csv>",
	Short: "Rewrite every row in canonical cell text",
	Long: `Decode every row with the schema and encode it again.

The first failing row aborts the command unless --skip-failed is given, in which
case failing rows are left out of the output and logged.`,
	Args: cobra.ExactArgs(1),
	RunE: runNormalize,
}

var inferCmd = &cobra.Command{
	Use:   "infer <data.csv>",
	Short: "Write a schema with one string column per CSV header entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfer,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Report structural problems of a schema file",
	Args:  cobra.NoArgs,
	RunE:  runValidate,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	for _, cmd := range []*cobra.Command{checkCmd, normalizeCmd, validateCmd} {
		cmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "Schema file")
		_ = cmd.MarkFlagRequired("schema")
	}

	for _, cmd := range []*cobra.Command{checkCmd, normalizeCmd, inferCmd} {
		cmd.Flags().StringVarP(&typeName, "type", "t", "", "Schema type name")
		_ = cmd.MarkFlagRequired("type")
	}

	for _, cmd := range []*cobra.Command{checkCmd, normalizeCmd} {
		cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Parallel workers (default GOMAXPROCS)")
		cmd.Flags().BoolVar(&strict, "strict", false, "Fail rows with columns the schema does not declare")
	}

	normalizeCmd.Flags().BoolVar(&skipFailed, "skip-failed", false, "Leave failing rows out instead of aborting")
	normalizeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output CSV (default stdout)")
	inferCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output schema (default stdout)")

	rootCmd.AddCommand(checkCmd, normalizeCmd, inferCmd, validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableCaller = true

	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}

	return cfg.Build()
}

// loadDynamic reads the schema, validates it and builds the dynamic mapper of the
// selected type.
func loadDynamic(logger *zap.Logger) (*mapper.Dynamic, error) {
	f, err := schema.LoadFile(schemaPath)
	if err != nil {
		return nil, err
	}

	diags := schema.Validate(f)
	logWarnings(logger, diags)

	if err := diags.Error(); err != nil {
		return nil, err
	}

	typ, err := f.Lookup(typeName)
	if err != nil {
		return nil, err
	}

	cols, err := typ.Dynamic()
	if err != nil {
		return nil, err
	}

	flags := options.FlagNone
	if skipFailed {
		flags |= options.FlagSkipFailedRows
	}

	if strict {
		flags |= options.FlagStrictColumns
	}

	return mapper.NewDynamic(cols, mapper.WithLogger(logger), mapper.WithWorkers(workers), mapper.WithFlags(flags))
}

func logWarnings(logger *zap.Logger, diags *diagnostic.Diagnostics) {
	for _, w := range diags.Warnings {
		logger.Warn("schema", zap.String("diagnostic", w.String()))
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	d, err := loadDynamic(logger)
	if err != nil {
		return err
	}

	_, rows, err := readCSV(args[0])
	if err != nil {
		return err
	}

	results, err := d.ReadEach(cmd.Context(), rows)
	if err != nil {
		return err
	}

	failed := 0

	for _, r := range results {
		if r.Err != nil {
			failed++
			// header is line 1
			fmt.Fprintf(cmd.OutOrStdout(), "%s:%d: %v\n", args[0], r.Index+2, r.Err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d rows, %d failed\n", len(results), failed)

	if failed > 0 {
		return errRowsFailed
	}

	return nil
}

func runNormalize(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	d, err := loadDynamic(logger)
	if err != nil {
		return err
	}

	_, rows, err := readCSV(args[0])
	if err != nil {
		return err
	}

	results, err := d.ReadEach(cmd.Context(), rows)
	if err != nil {
		return err
	}

	out := make([]mapper.Row, 0, len(results))

	for _, r := range results {
		row := mapper.Row(nil)
		if r.Err == nil {
			row, r.Err = d.Write(r.Value)
		}

		if r.Err != nil {
			if !skipFailed {
				return &mapper.RowError{Index: r.Index, Err: r.Err}
			}

			logger.Warn("row skipped", zap.Int("row", r.Index), zap.Error(r.Err))

			continue
		}

		out = append(out, row)
	}

	w := cmd.OutOrStdout()

	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer f.Close()

		w = f
	}

	return writeCSV(w, d.Columns(), out)
}

func runInfer(cmd *cobra.Command, args []string) error {
	header, _, err := readCSV(args[0])
	if err != nil {
		return err
	}

	f := &schema.File{Version: "1", Types: []schema.Type{schema.Infer(typeName, header)}}

	if outputPath != "" {
		return schema.WriteFile(f, outputPath)
	}

	data, err := schema.Marshal(f)
	if err != nil {
		return err
	}

	_, err = cmd.OutOrStdout().Write(data)

	return err
}

func runValidate(cmd *cobra.Command, _ []string) error {
	f, err := schema.LoadFile(schemaPath)
	if err != nil {
		return err
	}

	diags := schema.Validate(f)

	for _, d := range append(diags.Errors, diags.Warnings...) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", d.Severity, d)
	}

	return diags.Error()
}
