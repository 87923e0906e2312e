package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	fmerrors "github.com/jmurray2011/fuzmoi/internal/errors"
	"github.com/jmurray2011/fuzmoi/internal/local"
	"github.com/jmurray2011/fuzmoi/internal/output"
	"github.com/jmurray2011/fuzmoi/internal/source"
	"github.com/jmurray2011/fuzmoi/pkg/fuzzy"
	"github.com/jmurray2011/fuzmoi/pkg/lru"

	"github.com/spf13/cobra"
)

var (
	shellSources     []string
	shellWatch       bool
	shellMetricsAddr string
)

// shellPrompt is printed before each command.
const shellPrompt = "fuzmoi> "

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive search over a mutable candidate list",
	Long: `Load candidates and read commands from stdin. Results of each query are
cached; add and remove patch every cached result list in place.

Commands:
  search QUERY    Search (any line that is not a command is a search)
  add TEXT        Add a candidate
  remove TEXT     Remove the first candidate equal to TEXT
  reset           Clear the query cache
  list            Print all candidates
  cache           Print the cached queries
  history         Print recent queries, newest first
  stats           Print cache and index statistics
  help            Print this list
  quit, exit      Leave the shell

Prefix a command with ':' to force it to be read as a command.

Examples:
  fuzmoi shell -s ./words.txt
  fuzmoi shell -s ./words.txt --watch
  fuzmoi shell -s @lambdas --metrics-addr :9090`,
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)

	shellCmd.Flags().StringArrayVarP(&shellSources, "source", "s", nil, "Candidate source URI (repeatable; default: default_source)")
	shellCmd.Flags().BoolVarP(&shellWatch, "watch", "w", false, "Apply changes to local source files as they happen")
	shellCmd.Flags().StringVar(&shellMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
}

func runShell(cmd *cobra.Command, args []string) error {
	app := GetApp(cmd)
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	formatter, err := app.Formatter()
	if err != nil {
		return err
	}

	uris, err := app.ResolveSources(shellSources)
	if err != nil {
		return err
	}

	app.Render.Status("Loading candidates...")
	candidates, err := app.LoadCandidates(ctx, uris, cmd.InOrStdin())
	if err != nil {
		return err
	}

	idx, err := app.NewIndex(candidates)
	if err != nil {
		return err
	}

	sh := NewShell(app, idx, formatter, getMaxHistoryEntries())
	sh.sources = uris
	sh.persist = true
	if entries, err := loadHistory(); err == nil {
		// Oldest first so the newest ends up most recent
		for i := len(entries) - 1; i >= 0; i-- {
			sh.history.Add(entries[i].Query)
		}
	}

	if shellWatch {
		if err := sh.watch(ctx, uris); err != nil {
			return err
		}
	}

	if shellMetricsAddr != "" {
		srv := serveMetrics(app, shellMetricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	app.Render.Status("%d candidates loaded. Type 'help' for commands.", idx.Len())
	return sh.Run(ctx, cmd.InOrStdin())
}

func serveMetrics(app *App, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", app.Metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Render.Warning("metrics server: %v", err)
		}
	}()
	app.Render.Status("Serving metrics on http://%s/metrics", addr)
	return srv
}

// Shell runs line-oriented commands against an index.
type Shell struct {
	app       *App
	index     *fuzzy.Index
	formatter *output.Formatter
	history   *lru.Cache
	sources   []string

	// persist records searches in the history file
	persist bool
}

type shellCommand struct {
	usage string
	run   func(s *Shell, arg string) error
}

var shellCommands map[string]shellCommand

func init() {
	shellCommands = map[string]shellCommand{
		"search":  {"search QUERY", (*Shell).search},
		"add":     {"add TEXT", (*Shell).add},
		"remove":  {"remove TEXT", (*Shell).remove},
		"reset":   {"reset", (*Shell).reset},
		"list":    {"list", (*Shell).list},
		"cache":   {"cache", (*Shell).cache},
		"history": {"history", (*Shell).showHistory},
		"stats":   {"stats", (*Shell).stats},
		"help":    {"help", (*Shell).help},
	}
}

func shellCommandNames() []string {
	names := []string{"quit", "exit"}
	for name := range shellCommands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NewShell creates a shell over idx that remembers up to historySize queries.
func NewShell(app *App, idx *fuzzy.Index, formatter *output.Formatter, historySize int) *Shell {
	return &Shell{
		app:       app,
		index:     idx,
		formatter: formatter,
		history:   lru.New(historySize),
	}
}

// Run reads commands from in until EOF, quit or ctx is done. Command
// errors are printed and do not stop the shell.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), local.MaxScanTokenSize)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		s.app.Render.Prompt(shellPrompt)
		if !scanner.Scan() {
			s.app.Render.Newline()
			return scanner.Err()
		}

		quit, err := s.Execute(scanner.Text())
		if err != nil {
			s.app.Render.Error("%v", err)
		}
		if quit {
			return nil
		}
	}
}

// Execute runs one command line. It reports whether the shell should exit.
func (s *Shell) Execute(line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}

	forced := strings.HasPrefix(line, ":")
	if forced {
		line = strings.TrimSpace(line[1:])
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "quit", "exit":
		return true, nil
	}

	if c, ok := shellCommands[name]; ok {
		return false, c.run(s, arg)
	}
	if forced {
		return false, fmerrors.UnknownCommandError(name, shellCommandNames())
	}
	return false, s.search(line)
}

func (s *Shell) search(query string) error {
	matches, err := s.index.SearchMatches(query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	s.history.Add(query)

	if s.persist {
		if err := AddToHistory(HistoryEntry{
			Query:       query,
			Sources:     s.sources,
			Ranker:      s.app.Config.Ranker,
			ResultCount: len(matches),
		}); err != nil {
			s.app.Debugf("Failed to save history: %v", err)
		}
	}

	return s.formatter.FormatResults(query, matches)
}

func (s *Shell) add(arg string) error {
	if arg == "" {
		return fmt.Errorf("usage: %s", shellCommands["add"].usage)
	}
	s.index.Add(arg)
	s.app.Render.Success("Added %q", arg)
	return nil
}

func (s *Shell) remove(arg string) error {
	if arg == "" {
		return fmt.Errorf("usage: %s", shellCommands["remove"].usage)
	}
	candidates := s.index.Candidates()
	if !slices.Contains(candidates, arg) {
		return fmerrors.CandidateNotFoundError(arg, fmerrors.Similar(arg, candidates, 3))
	}
	s.index.Remove(arg)
	s.app.Render.Success("Removed %q", arg)
	return nil
}

func (s *Shell) reset(string) error {
	n := s.index.CacheLen()
	s.index.Reset()
	s.app.Render.Success("Cache cleared (%d queries)", n)
	return nil
}

func (s *Shell) list(string) error {
	candidates := s.index.Candidates()
	if len(candidates) == 0 {
		s.app.Render.Info("No candidates.")
		return nil
	}
	width := len(strconv.Itoa(len(candidates)))
	for i, c := range candidates {
		s.app.Render.Info("%*d  %s", width, i+1, c)
	}
	return nil
}

func (s *Shell) cache(string) error {
	queries := s.index.CachedQueries()
	if len(queries) == 0 {
		s.app.Render.Info("Cache is empty.")
		return nil
	}
	for _, q := range queries {
		s.app.Render.Info("%q", q)
	}
	return nil
}

func (s *Shell) showHistory(string) error {
	keys := s.history.Keys()
	if len(keys) == 0 {
		s.app.Render.Info("No queries yet.")
		return nil
	}
	for i, q := range keys {
		s.app.Render.Info("[%d] %s", i+1, q)
	}
	return nil
}

func (s *Shell) stats(string) error {
	st := s.index.Stats()
	snap := s.app.Metrics.Snapshot()

	s.app.Render.Section("Index")
	s.app.Render.KeyValue("Candidates", strconv.Itoa(st.Candidates))
	s.app.Render.KeyValue("Cached queries", strconv.Itoa(st.CachedQueries))
	s.app.Render.KeyValue("Cache hits", strconv.FormatInt(st.Hits, 10))
	s.app.Render.KeyValue("Cache misses", strconv.FormatInt(st.Misses, 10))
	s.app.Render.KeyValue("Splices (add/remove)", fmt.Sprintf("%d/%d", st.Inserted, st.Removed))
	s.app.Render.KeyValue("Resets", strconv.FormatInt(st.Resets, 10))

	s.app.Render.Section("Metrics")
	s.app.Render.KeyValue("Hit ratio", fmt.Sprintf("%.0f%%", snap.HitRatio()*100))
	s.app.Render.KeyValue("Mean search time", snap.MeanLatency.String())
	s.app.Render.KeyValue("Removes of absent candidates", strconv.FormatInt(snap.RemovesMissing, 10))
	return nil
}

func (s *Shell) help(string) error {
	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, name := range shellCommandNames() {
		if c, ok := shellCommands[name]; ok {
			fmt.Fprintf(&b, "  %s\n", c.usage)
		}
	}
	b.WriteString("  quit, exit\n")
	b.WriteString("Any other line is a search.")
	s.app.Render.Box(b.String())
	return nil
}

// watch starts a watcher for every local source and applies each change
// to the index. Other source types are skipped.
func (s *Shell) watch(ctx context.Context, uris []string) error {
	opts := source.OpenOptions{Profile: s.app.GetProfile(), Region: s.app.GetRegion()}

	watched := 0
	for _, uri := range uris {
		if uri == "-" {
			continue
		}
		src, err := source.OpenWithOptions(uri, opts)
		if err != nil {
			return err
		}
		ls, ok := src.(*local.Source)
		if !ok {
			s.app.Debugf("Not watching %s (%s source)", uri, src.Type())
			_ = src.Close()
			continue
		}

		watched++
		go func(uri string) {
			err := ls.Watch(ctx, func(d local.Diff) {
				s.applyDiff(d)
				s.app.Render.Status("%s changed: +%d -%d", uri, len(d.Added), len(d.Removed))
			})
			if err != nil {
				s.app.Render.Warning("watch %s: %v", uri, err)
			}
		}(uri)
	}

	if watched == 0 {
		s.app.Render.Warning("--watch has no effect: no local sources")
	}
	return nil
}

// applyDiff applies removals before additions.
func (s *Shell) applyDiff(d local.Diff) {
	for _, c := range d.Removed {
		s.index.Remove(c)
	}
	for _, c := range d.Added {
		s.index.Add(c)
	}
}
