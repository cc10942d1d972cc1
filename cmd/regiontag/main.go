// Command regiontag extracts the regions and tables named by a tagging plan
// from a PDF and prints them as text, JSON or HTML.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tsawler/regiontag"
	"github.com/tsawler/regiontag/dedup"
	"github.com/tsawler/regiontag/logging"
	"github.com/tsawler/regiontag/model"
	"github.com/tsawler/regiontag/plan"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type config struct {
	pdfPath      string
	planPath     string
	format       string
	output       string
	workers      int
	scale        float64
	redisAddr    string
	job          string
	sharedReplay bool
	glyphRuns    bool
	debug        bool
}

var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) && !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "regiontag: %v\n", err)
		}
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (config, bool, error) {
	var cfg config
	fs := flag.NewFlagSet("regiontag", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.pdfPath, "pdf", "", "PDF file to read (required)")
	fs.StringVar(&cfg.planPath, "plan", "", "tagging plan JSON (required)")
	fs.StringVar(&cfg.format, "format", "text", "output format: text, json or html")
	fs.StringVar(&cfg.output, "o", "", "write output to this file instead of stdout")
	fs.IntVar(&cfg.workers, "workers", 1, "plan elements processed at once")
	fs.Float64Var(&cfg.scale, "scale", model.CentimetersToPoints, "points per plan unit")
	fs.StringVar(&cfg.redisAddr, "redis", "", "Redis address for table deduplication across processes")
	fs.StringVar(&cfg.job, "job", "", "job id scoping table deduplication; set it to share state across runs (default: unique per invocation)")
	fs.BoolVar(&cfg.sharedReplay, "shared-replay", false, "replay each table page once")
	fs.BoolVar(&cfg.glyphRuns, "glyph-runs", false, "use the parser's glyph layout instead of content stream replay")
	fs.BoolVar(&cfg.debug, "debug", false, "enable debug logging (also "+logging.DebugEnv+"=1)")
	showVersion := fs.Bool("version", false, "show version information")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "regiontag - reconstruct text and tables from PDF regions\n\n")
		fmt.Fprintf(stderr, "Usage:\n")
		fmt.Fprintf(stderr, "  regiontag -pdf document.pdf -plan plan.json [flags]\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return cfg, false, err
	}
	if *showVersion {
		return cfg, true, nil
	}
	if cfg.pdfPath == "" || cfg.planPath == "" {
		fs.Usage()
		return cfg, false, fmt.Errorf("%w: -pdf and -plan are required", errUsage)
	}
	switch cfg.format {
	case "text", "json", "html":
	default:
		return cfg, false, fmt.Errorf("unknown format %q", cfg.format)
	}
	if cfg.job == "" {
		cfg.job = fmt.Sprintf("%s-%d-%d", filepath.Base(cfg.pdfPath), os.Getpid(), time.Now().UnixNano())
	}
	return cfg, false, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	cfg, showVersion, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if showVersion {
		fmt.Fprintf(stdout, "regiontag %s (commit: %s, built: %s)\n", version, commit, date)
		return nil
	}

	logging.SetLogger(logging.NewCLILogger(stderr, cfg.debug))
	log := logging.For("cli")

	p, err := plan.LoadFile(cfg.planPath)
	if err != nil {
		return fmt.Errorf("load plan: %w", err)
	}

	ext := regiontag.Open(cfg.pdfPath).Scale(cfg.scale).Workers(cfg.workers)
	if cfg.sharedReplay {
		ext = ext.SharedReplay()
	}
	if cfg.glyphRuns {
		ext = ext.GlyphRuns()
	}

	if cfg.redisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), dedup.DefaultTimeout)
		client, err := dedup.NewClient(ctx, dedup.Config{Addr: cfg.redisAddr})
		cancel()
		if err != nil {
			return err
		}
		defer client.Close()
		guard := dedup.NewRedisGuard(client, cfg.job)
		log.Debug("using redis guard", "key", guard.Key())
		ext = ext.Guard(guard)
	}

	defer ext.Close()

	start := time.Now()
	res, warnings, err := ext.Run(p)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		log.Warn(w.String())
	}
	log.Info("extraction complete", "items", len(res.Items), "warnings", len(warnings),
		"elapsed", time.Since(start).Round(time.Millisecond))

	out := stdout
	if cfg.output != "" {
		f, err := os.Create(cfg.output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	switch cfg.format {
	case "json":
		return writeJSON(out, res, warnings)
	case "html":
		return writeHTML(out, strings.TrimSuffix(filepath.Base(cfg.pdfPath), filepath.Ext(cfg.pdfPath)), res)
	default:
		return writeText(out, res)
	}
}
