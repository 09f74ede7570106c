package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"auditdom"
	"auditdom/extract"
	"auditdom/internal/config"
)

var (
	configPath string
	filterFlag bool
	indentFlag int
	formatFlag string

	queryName  string
	queryAttr  string
	queryExpr  string
	queryNames []string

	cfg      config.Config
	registry = prometheus.NewRegistry()
	metrics  = auditdom.NewMetrics(registry)

	rootCmd = &cobra.Command{
		Use:               "auditdom",
		Short:             "Parse markup into an audit oriented document tree",
		Long:              `auditdom reads HTML captured while scanning a web application and keeps the parts that matter to an audit: forms, fields, links, frames, scripts and cookie or refresh meta tags.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: reportMetrics,
	}
	parseCmd = &cobra.Command{
		Use:   "parse [file]",
		Short: "Print the document tree of a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runParse,
	}
	queryCmd = &cobra.Command{
		Use:   "query [file]",
		Short: "Print the elements matching a tag name, attribute or expression",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runQuery,
	}
	extractCmd = &cobra.Command{
		Use:   "extract [file]",
		Short: "Print meta refresh targets and script paths",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExtract,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().BoolVar(&filterFlag, "filter", true, "keep only audit relevant nodes")
	rootCmd.PersistentFlags().IntVar(&indentFlag, "indent", auditdom.DefaultIndent, "spaces per nesting level")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", config.FormatHTML, "output format: html or yaml")

	queryCmd.Flags().StringVar(&queryName, "name", "", "tag name to match, case-insensitive")
	queryCmd.Flags().StringSliceVar(&queryNames, "names", nil, "tag names to match, in order")
	queryCmd.Flags().StringVar(&queryAttr, "attr", "", "attribute to match as name=value, case-insensitive")
	queryCmd.Flags().StringVar(&queryExpr, "expr", "", "boolean expression over name, kind, text and attributes")

	rootCmd.AddCommand(parseCmd, queryCmd, extractCmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("filter") {
		cfg.Filter = filterFlag
	}
	if flags.Changed("indent") {
		cfg.Indent = indentFlag
	}
	if flags.Changed("format") {
		cfg.Format = formatFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, _ := cfg.Level()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

func parseInput(args []string) (*auditdom.Node, error) {
	var r io.Reader = os.Stdin
	if len(args) == 1 && args[0] != "-" {
		file, err := os.Open(args[0])
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = file.Close()
		}()
		r = file
	}
	parser := auditdom.NewParser(append(cfg.Options(), auditdom.WithMetrics(metrics))...)
	doc, err := parser.ParseReader(r)
	if err != nil {
		slog.Warn("input parsed partially", "error", err)
	}
	return doc, nil
}

func write(w io.Writer, n *auditdom.Node) error {
	switch cfg.Format {
	case config.FormatYAML:
		summary, err := auditdom.Summarize(n)
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(summary)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		return auditdom.Render(w, n, cfg.Indent, 0)
	}
}

func runParse(cmd *cobra.Command, args []string) error {
	doc, err := parseInput(args)
	if err != nil {
		return err
	}
	return write(cmd.OutOrStdout(), doc)
}

func runQuery(cmd *cobra.Command, args []string) error {
	doc, err := parseInput(args)
	if err != nil {
		return err
	}
	var writeErr error
	visit := func(n *auditdom.Node) {
		if writeErr == nil {
			writeErr = write(cmd.OutOrStdout(), n)
		}
	}
	switch {
	case queryExpr != "":
		err = doc.NodesByExpression(queryExpr, visit)
	case queryAttr != "":
		name, value, ok := strings.Cut(queryAttr, "=")
		if !ok {
			return fmt.Errorf("--attr expects name=value, got %q", queryAttr)
		}
		err = doc.NodesByAttributeNameAndValue(name, value, visit)
	case len(queryNames) > 0:
		err = doc.NodesByNames(queryNames, visit)
	case queryName != "":
		err = doc.NodesByName(queryName, visit)
	default:
		err = doc.TraverseComments(visit)
	}
	if err != nil {
		return err
	}
	return writeErr
}

func runExtract(cmd *cobra.Command, args []string) error {
	doc, err := parseInput(args)
	if err != nil {
		return err
	}
	refresh, err := extract.MetaRefresh(doc)
	if err != nil {
		return err
	}
	scripts, err := extract.Scripts(doc)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, path := range refresh {
		fmt.Fprintf(out, "meta-refresh\t%s\n", path)
	}
	for _, path := range scripts {
		fmt.Fprintf(out, "script\t%s\n", path)
	}
	return nil
}

func reportMetrics(_ *cobra.Command, _ []string) {
	if !cfg.Metrics {
		return
	}
	families, err := registry.Gather()
	if err != nil {
		slog.Error("failed to gather metrics", "error", err)
		return
	}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			attrs := []any{"metric", family.GetName()}
			for _, label := range metric.GetLabel() {
				attrs = append(attrs, label.GetName(), label.GetValue())
			}
			switch {
			case metric.GetCounter() != nil:
				attrs = append(attrs, "value", metric.GetCounter().GetValue())
			case metric.GetHistogram() != nil:
				attrs = append(attrs,
					"count", metric.GetHistogram().GetSampleCount(),
					"sum", metric.GetHistogram().GetSampleSum())
			}
			slog.Info("parser metric", attrs...)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
