package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/prisma-ml-labs/lattice-go/v1/lattice"
	"github.com/prisma-ml-labs/lattice-go/v1/metrics"
)

// errUsage marks command line mistakes; main exits with status 2 for them.
var errUsage = errors.New("usage error")

// cmdEnv is what a command runs against.
type cmdEnv struct {
	client lattice.Client
	out    io.Writer

	// jobProgress, pollDuration and waitJobs are set when metrics are
	// enabled.
	jobProgress  *prometheus.GaugeVec
	pollDuration *prometheus.HistogramVec
	waitJobs     *prometheus.CounterVec
}

// newCmdEnv binds a command to client and out. With m set, the wait command
// reports job progress and poll latency through it.
func newCmdEnv(client lattice.Client, out io.Writer, m *metrics.Metrics) *cmdEnv {
	env := &cmdEnv{client: client, out: out}
	if m == nil {
		return env
	}

	env.jobProgress = m.CreateGauge("cli_job_progress",
		"Last progress reported for a job polled by the wait command",
		[]string{"job_id"})
	env.pollDuration = m.CreateHistogram("cli_wait_poll_duration_seconds",
		"Duration of progress requests issued by the wait command",
		[]string{"outcome"}, prometheus.DefBuckets)
	env.waitJobs = m.CreateCounter("cli_wait_jobs_total",
		"Jobs handled by the wait command by final state",
		[]string{"state"})
	return env
}

// pollOutcome labels a poll by its error kind.
func pollOutcome(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	if kind := lattice.ErrorKind(err); kind != "" {
		return kind
	}
	return metrics.OutcomeError
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, env *cmdEnv, args []string) error
}

var commands = []command{
	{"add", "submit text or a source reference", runAdd},
	{"progress", "print the progress of one job", runProgress},
	{"wait", "poll jobs until they complete", runWait},
	{"search", "query the knowledge base", runSearch},
	{"list", "list stored documents", runList},
	{"clear", "remove every document of the knowledge base", runClear},
}

func findCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	return nil
}

func runAdd(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet("add")
	text := fs.String("text", "", "raw text to index")
	source := fs.String("source", "", "URL or storage reference to index")
	chunker := fs.String("chunker", lattice.DefaultChunker, "chunking strategy")
	syncMode := fs.Bool("sync", false, "wait for ingestion and print the service payload")
	model := fs.String("model", "", "embedding model override")
	maxChars := fs.Int("max-chars", 0, "maximum characters per chunk")
	path := fs.String("path", "", "logical path of the document")
	origin := fs.String("origin", "", "origin label of the document")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	req := lattice.AddRequest{Chunker: *chunker, Async: lattice.Bool(!*syncMode)}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["text"] {
		req.Text = text
	}
	if set["source"] {
		req.Source = source
	}
	if set["model"] {
		req.EmbeddingModel = model
	}
	if set["max-chars"] {
		req.MaxChars = maxChars
	}
	if set["path"] {
		req.Path = path
	}
	if set["origin"] {
		req.Origin = origin
	}

	res, err := env.client.Add(ctx, req)
	if err != nil {
		return err
	}
	if res.IsAsync() {
		return writeJSON(env.out, map[string]string{"job_id": res.JobID})
	}
	return writeJSON(env.out, res.Payload)
}

func runProgress(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet("progress")
	details := fs.Bool("details", false, "print the full job status")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: progress takes exactly one job id", errUsage)
	}
	jobID := fs.Arg(0)

	if *details {
		payload, err := env.client.ProgressDetails(ctx, jobID)
		if err != nil {
			return err
		}
		return writeJSON(env.out, payload)
	}

	progress, err := env.client.Progress(ctx, jobID)
	if err != nil {
		return err
	}
	return writeJSON(env.out, map[string]interface{}{"job_id": jobID, "progress": progress})
}

func runWait(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet("wait")
	interval := fs.Duration("interval", 2*time.Second, "delay between polls of one job")
	timeout := fs.Duration("timeout", 10*time.Minute, "overall deadline, 0 for none")
	maxRate := fs.Float64("max-rate", 10, "progress requests per second across all jobs, 0 for no cap")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: wait needs at least one job id", errUsage)
	}

	opts := WaitOptions{Interval: *interval, Timeout: *timeout, MaxRate: *maxRate}
	if env.jobProgress != nil {
		opts.OnProgress = func(jobID string, p float64) {
			env.jobProgress.WithLabelValues(jobID).Set(p)
		}
	}
	if env.pollDuration != nil {
		opts.OnPoll = func(_ string, elapsed time.Duration, err error) {
			env.pollDuration.WithLabelValues(pollOutcome(err)).Observe(elapsed.Seconds())
		}
	}

	progress, err := Wait(ctx, env.client, fs.Args(), opts)
	if env.waitJobs != nil {
		for _, id := range fs.Args() {
			state := "unfinished"
			if p, ok := progress[id]; ok && p >= 1.0 {
				state = "completed"
			}
			env.waitJobs.WithLabelValues(state).Inc()
		}
	}
	if werr := writeJSON(env.out, progress); werr != nil && err == nil {
		err = werr
	}
	return err
}

func runSearch(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet("search")
	k := fs.Int("k", lattice.DefaultK, "number of results")
	strategy := fs.String("strategy", lattice.DefaultStrategy, "retrieval strategy")
	model := fs.String("model", "", "embedding model override")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	query := strings.Join(fs.Args(), " ")

	results, err := env.client.Search(ctx, lattice.SearchRequest{
		Query:          query,
		K:              *k,
		Strategy:       *strategy,
		EmbeddingModel: optional(*model),
	})
	if err != nil {
		return err
	}
	return writeJSON(env.out, results)
}

func runList(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet("list")
	page := fs.Int("page", lattice.DefaultPage, "page number, starting at 1")
	perPage := fs.Int("per-page", lattice.DefaultPerPage, "documents per page")
	model := fs.String("model", "", "embedding model override")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	payload, err := env.client.List(ctx, lattice.ListRequest{
		Page:           *page,
		PerPage:        *perPage,
		EmbeddingModel: optional(*model),
	})
	if err != nil {
		return err
	}
	return writeJSON(env.out, payload)
}

func runClear(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet("clear")
	model := fs.String("model", "", "embedding model override")
	yes := fs.Bool("yes", false, "confirm removal of every document")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if !*yes {
		return fmt.Errorf("%w: clear removes every document, pass -yes to confirm", errUsage)
	}

	payload, err := env.client.Clear(ctx, lattice.ClearRequest{EmbeddingModel: optional(*model)})
	if err != nil {
		return err
	}
	return writeJSON(env.out, payload)
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: lattice [-config file] [-env-file file] <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.summary)
	}
}
