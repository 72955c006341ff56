package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"

	"github.com/five82/traverse/internal/app"
	"github.com/five82/traverse/internal/cache"
	"github.com/five82/traverse/internal/config"
	"github.com/five82/traverse/internal/logtail"
	"github.com/five82/traverse/internal/traverse"
	"github.com/five82/traverse/internal/widget"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Globals are flags shared by every command.
type Globals struct {
	Config  string `help:"Config file path." placeholder:"PATH" type:"path"`
	Prefs   string `help:"Dashboard preferences path." placeholder:"PATH" type:"path"`
	Verbose bool   `help:"Log at debug level." short:"v"`
}

func (g *Globals) options() app.Options {
	return app.Options{ConfigPath: g.Config, PrefsPath: g.Prefs, Verbose: g.Verbose}
}

// CLI is the top-level command structure for traverse.
type CLI struct {
	Globals

	Version   kong.VersionFlag `help:"Show version." short:"V"`
	Dashboard DashboardCmd     `cmd:"" default:"1" help:"Open the interactive dashboard (default)."`
	Refresh   RefreshCmd       `cmd:"" help:"Fetch fresh data and update the local cache."`
	Status    StatusCmd        `cmd:"" help:"Print the cached summary without touching the network."`
	Revisions RevisionsCmd     `cmd:"" help:"List problems due for review."`
	Attempt   AttemptCmd       `cmd:"" help:"Record the outcome of reviewing a problem."`
	Widget    WidgetCmd        `cmd:"" help:"Print the widget snapshot."`
	Clear     ClearCmd         `cmd:"" help:"Delete every cached document."`
	Logs      LogsCmd          `cmd:"" help:"Show recent log entries."`
}

// DashboardCmd opens the TUI, or prints the status when stdout is not a terminal.
type DashboardCmd struct{}

// Run executes the dashboard command.
func (d *DashboardCmd) Run(ctx context.Context, g *Globals, out io.Writer) error {
	if !isTerminal(os.Stdout) {
		return (&StatusCmd{}).Run(g, out)
	}
	return app.Run(ctx, g.options())
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// RefreshCmd runs a full refresh regardless of freshness.
type RefreshCmd struct {
	IfStale bool `help:"Skip the refresh when the cache is still fresh."`
}

// Run executes the refresh command.
func (r *RefreshCmd) Run(ctx context.Context, g *Globals, out io.Writer) error {
	env, err := app.Open(g.options())
	if err != nil {
		return err
	}
	defer env.Close()

	if r.IfStale && env.Cache.IsFresh() {
		fmt.Fprintf(out, "cache is fresh (updated %s)\n", env.Cache.LastFetch().Local().Format(time.Kitchen))
		return nil
	}

	err = env.Refresh(ctx)
	if err != nil && !onlyDegraded(err) {
		return fmt.Errorf("refresh: %w", err)
	}
	if err != nil {
		fmt.Fprintf(out, "warning: %v\n", err)
	}
	fmt.Fprintln(out, "refreshed")
	return printStatus(out, env.Cache.Snapshot(), env.Cache.IsFresh(), time.Now())
}

// onlyDegraded reports whether every joined error is a persistence degradation.
func onlyDegraded(err error) bool {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if !onlyDegraded(e) {
				return false
			}
		}
		return true
	}
	return errors.Is(err, cache.ErrPersistenceDegraded)
}

// StatusCmd prints what the cache holds.
type StatusCmd struct{}

// Run executes the status command.
func (s *StatusCmd) Run(g *Globals, out io.Writer) error {
	env, err := app.Open(g.options())
	if err != nil {
		return err
	}
	defer env.Close()

	return printStatus(out, env.Cache.Snapshot(), env.Cache.IsFresh(), time.Now())
}

func printStatus(out io.Writer, snap cache.Snapshot, fresh bool, now time.Time) error {
	if !snap.HasData {
		_, err := fmt.Fprintln(out, "no cached data; run `traverse refresh`")
		return err
	}

	var b strings.Builder
	if s := snap.UserStats; s != nil {
		fmt.Fprintf(&b, "@%s  level %d  xp %d  solves %d\n",
			s.Username, s.Stats.Level, s.Stats.TotalXP, s.Stats.TotalSolves)
		fmt.Fprintf(&b, "streak      %d (best %d, freezes %d)\n",
			s.Stats.CurrentStreak, s.Stats.LongestStreak, s.Stats.FreezesLeft)
	}
	solved := "no"
	if snap.SolvedToday(now) {
		solved = "yes"
	}
	fmt.Fprintf(&b, "solved today %s\n", solved)
	if s := snap.RevisionStats; s != nil {
		fmt.Fprintf(&b, "revisions   %d due, %d overdue, %d upcoming\n", s.DueToday, s.Overdue, s.Upcoming)
	}
	fmt.Fprintf(&b, "friends     %d (%d received, %d sent)\n",
		len(snap.Friends), len(snap.ReceivedRequests), len(snap.SentRequests))

	freshness := "stale"
	if fresh {
		freshness = "fresh"
	}
	last := "never"
	if !snap.LastFetch.IsZero() {
		last = snap.LastFetch.Local().Format("2006-01-02 15:04")
	}
	fmt.Fprintf(&b, "updated     %s (%s)\n", last, freshness)

	_, err := io.WriteString(out, b.String())
	return err
}

// RevisionsCmd lists cached revision groups.
type RevisionsCmd struct {
	Refresh bool `help:"Reload revisions from the API first."`
}

// Run executes the revisions command.
func (r *RevisionsCmd) Run(ctx context.Context, g *Globals, out io.Writer) error {
	env, err := app.Open(g.options())
	if err != nil {
		return err
	}
	defer env.Close()

	if r.Refresh {
		if err := env.Cache.RefreshRevisions(ctx); err != nil && !onlyDegraded(err) {
			return fmt.Errorf("refresh revisions: %w", err)
		}
	}

	snap := env.Cache.Snapshot()
	count := 0
	for _, group := range snap.RevisionGroups {
		if len(group.Items) == 0 {
			continue
		}
		fmt.Fprintln(out, group.Date)
		for _, item := range group.Items {
			fmt.Fprintf(out, "  %-12s %-8s %s (rev %d)\n", item.ID, item.Difficulty, item.Title, item.RevisionNum)
			count++
		}
	}
	if count == 0 {
		fmt.Fprintln(out, "nothing to review")
	}
	return nil
}

// AttemptCmd records a revision outcome.
type AttemptCmd struct {
	ID         string        `arg:"" help:"Revision ID."`
	Outcome    string        `arg:"" enum:"solved,solved_with_hints,failed,skipped" help:"One of solved, solved_with_hints, failed, skipped."`
	Time       time.Duration `help:"Time spent on the problem." default:"0s"`
	Confidence int           `help:"Self-rated confidence from 1 to 5 (0 omits it)." default:"0"`
}

// Validate checks flag ranges before anything is opened.
func (a *AttemptCmd) Validate() error {
	if !traverse.ValidOutcome(a.Outcome) {
		return fmt.Errorf("unknown outcome %q", a.Outcome)
	}
	if a.Confidence < 0 || a.Confidence > 5 {
		return fmt.Errorf("confidence must be between 0 and 5, got %d", a.Confidence)
	}
	if a.Time < 0 {
		return fmt.Errorf("time must not be negative, got %v", a.Time)
	}
	return nil
}

// Run executes the attempt command.
func (a *AttemptCmd) Run(ctx context.Context, g *Globals, out io.Writer) error {
	env, err := app.Open(g.options())
	if err != nil {
		return err
	}
	defer env.Close()

	attempt := traverse.RevisionAttempt{
		RevisionID:  a.ID,
		Outcome:     a.Outcome,
		TimeSpentMS: a.Time.Milliseconds(),
		Confidence:  a.Confidence,
	}
	if err := env.RecordAttempt(ctx, attempt); err != nil && !onlyDegraded(err) {
		return fmt.Errorf("record attempt: %w", err)
	}
	due := 0
	if s := env.Cache.Snapshot().RevisionStats; s != nil {
		due = s.DueToday + s.Overdue
	}
	fmt.Fprintf(out, "recorded %s for %s (%d still due)\n", a.Outcome, a.ID, due)
	return nil
}

// WidgetCmd prints the widget snapshot.
type WidgetCmd struct {
	JSON bool `help:"Print the snapshot as JSON."`
}

// Run executes the widget command.
func (w *WidgetCmd) Run(g *Globals, out io.Writer) error {
	env, err := app.Open(g.options())
	if err != nil {
		return err
	}
	defer env.Close()

	snap, ok, err := widget.Read(env.Shared)
	if err != nil {
		env.Log.Warn("widget snapshot unreadable, deriving from cache")
	}
	if !ok {
		snap = widget.FromCache(env.Cache.Snapshot(), time.Now())
	}

	if w.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	_, err = fmt.Fprintln(out, snap.Line())
	return err
}

// ClearCmd wipes the cache.
type ClearCmd struct{}

// Run executes the clear command.
func (c *ClearCmd) Run(g *Globals, out io.Writer) error {
	env, err := app.Open(g.options())
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.Cache.Clear(); err != nil && !onlyDegraded(err) {
		return fmt.Errorf("clear cache: %w", err)
	}
	_, err = fmt.Fprintln(out, "cache cleared")
	return err
}

// LogsCmd prints the tail of the log file.
type LogsCmd struct {
	Lines int    `help:"Number of lines to read." short:"n" default:"50"`
	Level string `help:"Minimum level to show." enum:"debug,info,warn,error" default:"info"`
}

// Run executes the logs command.
func (l *LogsCmd) Run(g *Globals, out io.Writer) error {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	entries, err := logtail.Tail(cfg.LogFile, l.Lines, l.Level)
	if err != nil {
		return fmt.Errorf("read logs: %w", err)
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintf(out, "no log entries in %s\n", cfg.LogFile)
		return err
	}
	for _, e := range entries {
		fmt.Fprintln(out, e.Format())
	}
	return nil
}

func newParser(cli *CLI, ctx context.Context, out io.Writer, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("traverse"),
		kong.Description("Keep your problem-solving streak and review queue in the terminal."),
		kong.UsageOnError(),
		kong.Vars{"version": version + " " + commit + " " + date},
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.BindTo(out, (*io.Writer)(nil)),
		kong.Bind(&cli.Globals),
	}, options...)
	return kong.New(cli, options...)
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var cli CLI
	parser, err := newParser(&cli, ctx, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "traverse: %v\n", err)
		return 1
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%v", err)
		return 2
	}
	if err := kctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "traverse: %v\n", err)
		return 1
	}
	return 0
}
