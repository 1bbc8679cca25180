// Command atscheck scores a folder of resumes against one job description,
// either in process or through a running atscore service.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/okian/atscore/internal/adapters/extract"
	"github.com/okian/atscore/internal/adapters/mq/amqp"
	"github.com/okian/atscore/internal/batch"
	"github.com/okian/atscore/internal/domain/analysis"
	"github.com/okian/atscore/internal/domain/keywords"
	"github.com/okian/atscore/pkg/logger"
)

const (
	defaultRunTimeout = 30 * time.Minute
	logFilePermission = 0o600
)

type options struct {
	job        string
	resumes    []string
	dir        string
	mode       string
	workers    int
	timeout    time.Duration
	remote     string
	rate       float64
	batchID    string
	amqpURL    string
	amqpQueue  string
	vocabulary string
	jsonOut    bool
	top        int
	logFile    string
	logLevel   string
	verbose    bool
}

var errUsage = errors.New("usage")

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := pflag.NewFlagSet("atscheck", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&o.job, "job", "j", "", "job description file (pdf, docx, txt, md, html)")
	fs.StringSliceVarP(&o.resumes, "resume", "r", nil, "resume file; repeat or comma separate")
	fs.StringVarP(&o.dir, "dir", "d", "", "directory of resumes")
	fs.StringVarP(&o.mode, "mode", "m", string(analysis.ModeExperienced), "candidate mode: experienced, student, fresher, internship")
	fs.IntVarP(&o.workers, "workers", "w", runtime.NumCPU(), "concurrent analyses")
	fs.DurationVar(&o.timeout, "timeout", time.Minute, "per-resume timeout")
	fs.StringVar(&o.remote, "remote", "", "base URL of an atscore service; empty analyzes in process")
	fs.Float64Var(&o.rate, "rate", 0, "max requests per second against --remote")
	fs.StringVar(&o.batchID, "batch-id", "", "request id prefix; reuse it to rerun without duplicate analyses")
	fs.StringVar(&o.amqpURL, "amqp", "", "publish the resumes to this AMQP broker instead of analyzing")
	fs.StringVar(&o.amqpQueue, "amqp-queue", amqp.DefaultQueue, "queue used with --amqp")
	fs.StringVar(&o.vocabulary, "vocabulary", "", "YAML file extending the keyword vocabulary (local runs)")
	fs.BoolVar(&o.jsonOut, "json", false, "print full reports as JSON")
	fs.IntVar(&o.top, "top", 0, "after a remote run, print the service leaderboard top N")
	fs.StringVar(&o.logFile, "log", "", "also write logs to this file")
	fs.StringVar(&o.logLevel, "log-level", "warn", "log level")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "log every finished analysis")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: atscheck --job JD [--resume FILE ...] [--dir DIR] [flags]\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.job == "" || (len(o.resumes) == 0 && o.dir == "") {
		fs.Usage()
		return o, errUsage
	}
	if _, err := analysis.ParseMode(o.mode); err != nil {
		return o, err
	}
	return o, nil
}

func main() {
	o, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(2)
	}

	closeLog, err := setupLogging(o.logFile, o.logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to set up logging:", err)
		os.Exit(1)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	if err := run(ctx, o, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "atscheck:", err)
		cancel()
		os.Exit(1)
	}
}

func setupLogging(path, level string) (func(), error) {
	var w io.Writer = os.Stderr
	closer := func() {}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, err
		}
		w = io.MultiWriter(os.Stderr, f)
		closer = func() { _ = f.Close() }
	}
	if err := logger.InitWithWriter(w); err != nil {
		closer()
		return nil, err
	}
	if err := logger.SetLevelString(level); err != nil {
		closer()
		return nil, err
	}
	return closer, nil
}

func run(ctx context.Context, o options, out io.Writer) error {
	log := logger.NamedOrDiscard("atscheck")
	chain := extract.NewChain(extract.WithLogger(log.Named("extract")))

	jd, err := batch.Load(ctx, chain, o.job)
	if err != nil {
		return err
	}
	paths, err := batch.Expand(o.resumes, o.dir)
	if err != nil {
		return err
	}
	docs, failed := batch.LoadAll(ctx, chain, paths)
	for _, f := range failed {
		log.Warn(ctx, "skipping resume", logger.String("resume", f.Name), logger.String("error", f.Error))
	}

	mode, _ := analysis.ParseMode(o.mode)
	cfg := batch.Config{
		JobDescription: jd.Text,
		Mode:           mode,
		Workers:        o.workers,
		Timeout:        o.timeout,
		Verbose:        o.verbose,
	}

	if o.amqpURL != "" {
		return publish(ctx, o, cfg, docs, out)
	}

	var (
		s      batch.Summary
		client *batch.Client
	)
	if o.remote != "" {
		client = batch.NewClient(o.remote, batch.WithRateLimit(o.rate))
		s, err = batch.RunRemote(ctx, client, cfg, o.batchID, docs)
	} else {
		analyzer, aerr := localAnalyzer(o.vocabulary, log)
		if aerr != nil {
			return aerr
		}
		s, err = batch.RunLocal(ctx, analyzer, cfg, docs)
	}
	if err != nil {
		return err
	}

	// Unreadable files still belong in the report.
	s.Results = append(s.Results, failed...)
	s.Total += len(failed)
	s.Failed += len(failed)

	if o.jsonOut {
		return batch.WriteJSON(out, s)
	}
	if err := batch.WriteTable(out, s); err != nil {
		return err
	}
	if client != nil && o.top > 0 {
		printLeaderboard(ctx, client, o.top, out)
	}
	return nil
}

func localAnalyzer(vocabulary string, log logger.Logger) (*analysis.Analyzer, error) {
	var kwOpts []keywords.Option
	if vocabulary != "" {
		v, err := keywords.LoadVocabulary(vocabulary)
		if err != nil {
			return nil, err
		}
		kwOpts = append(kwOpts, keywords.WithVocabulary(v))
	}
	return analysis.New(
		analysis.WithExtractor(keywords.NewExtractor(kwOpts...)),
		analysis.WithLogger(log.Named("analysis")),
	), nil
}

// publish hands every resume to the broker and prints the message ids. The
// service consuming the queue does the analysis.
func publish(ctx context.Context, o options, cfg batch.Config, docs []batch.Document, out io.Writer) error {
	if len(docs) == 0 {
		return batch.ErrNoResumes
	}
	p, err := amqp.NewPublisher(o.amqpURL, o.amqpQueue)
	if err != nil {
		return err
	}
	defer p.Close()

	batchID := o.batchID
	if batchID == "" {
		batchID = uuid.NewString()
	}
	for _, d := range docs {
		id, err := p.Publish(ctx, amqp.Message{
			RequestID:      batchID + ":" + d.Name,
			Label:          d.Name,
			Resume:         d.Text,
			JobDescription: cfg.JobDescription,
			Mode:           string(cfg.Mode),
		})
		if err != nil {
			return fmt.Errorf("publish %s: %w", d.Name, err)
		}
		fmt.Fprintf(out, "%s\t%s\n", id, filepath.Base(d.Path))
	}
	fmt.Fprintf(out, "published %d resumes to %s (batch %s)\n", len(docs), o.amqpQueue, batchID)
	return nil
}

func printLeaderboard(ctx context.Context, c *batch.Client, n int, out io.Writer) {
	entries, err := c.Leaderboard(ctx, n)
	if err != nil {
		fmt.Fprintln(out, "leaderboard unavailable:", err)
		return
	}
	fmt.Fprintf(out, "\nService leaderboard (top %d)\n", n)
	for _, e := range entries {
		fmt.Fprintf(out, "%3d  %3d  %s\n", e.Rank, e.Score, e.Label)
	}
}
