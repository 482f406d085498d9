// Command hkexdocs is the command line front end to the announcement cache.
//
//	hkexdocs [-config path] <command> [flags]
//
// Every command prints a JSON result on stdout. The exit code is 1 when the
// result reports success false (for resolve, a cache miss) and 2 on a
// usage error.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bobmcallan/hkexdocs/internal/app"
	"github.com/bobmcallan/hkexdocs/internal/common"
	"github.com/bobmcallan/hkexdocs/internal/interfaces"
	"github.com/bobmcallan/hkexdocs/internal/models"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// command runs against an initialized app and returns a result to print
// plus whether it succeeded
type command func(ctx context.Context, a *app.App, args []string, stdin io.Reader) (interface{}, bool, error)

var commands = map[string]command{
	"resolve":   runResolve,
	"fetch":     runFetch,
	"extract":   runExtract,
	"structure": runStructure,
	"sweep":     runSweep,
	"prefetch":  runPrefetch,
	"read":      runRead,
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("hkexdocs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to hkexdocs.toml (default: HKEX_CONFIG, then next to the binary)")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	rest := fs.Args()
	if len(rest) == 0 {
		usage(stderr)
		return exitUsage
	}

	name := rest[0]
	if name == "version" {
		fmt.Fprintln(stdout, common.GetFullVersion())
		return exitOK
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		usage(stderr)
		return exitUsage
	}

	a, err := app.NewApp(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize app: %v\n", err)
		return exitFailure
	}
	defer a.Close()

	result, success, err := cmd(ctx, a, rest[1:], stdin)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "%s: %v\n", name, err)
		}
		return exitUsage
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(stderr, "failed to write result: %v\n", err)
		return exitFailure
	}
	if !success {
		return exitFailure
	}
	return exitOK
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Usage: hkexdocs [-config path] <command> [flags]

Commands:
  resolve    -stock CODE -release TIME -title TITLE
  fetch      -url URL -stock CODE -release TIME -title TITLE [-news-id ID]
  extract    -path PDF [-tables=false] [-max-chars N] [-max-rows N] [-force]
  structure  -path PDF
  sweep      [-days N]
  prefetch   -file ITEMS.json (use - for stdin)
  read       -path FILE [-max-bytes N]
  version

TIME is "dd/mm/yyyy HH:MM" or "YYYY-MM-DD".
`)
}

// newFlagSet returns a subcommand flag set that reports errors instead of exiting
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func required(values map[string]string) error {
	for name, v := range values {
		if v == "" {
			return fmt.Errorf("-%s is required", name)
		}
	}
	return nil
}

func runResolve(ctx context.Context, a *app.App, args []string, _ io.Reader) (interface{}, bool, error) {
	fs := newFlagSet("resolve")
	stock := fs.String("stock", "", "stock code")
	release := fs.String("release", "", "release time")
	title := fs.String("title", "", "announcement title")
	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}
	if err := required(map[string]string{"stock": *stock, "release": *release}); err != nil {
		return nil, false, err
	}

	res := a.Documents.CachedPath(*stock, *release, *title)
	return res, res.Cached, nil
}

func runFetch(ctx context.Context, a *app.App, args []string, _ io.Reader) (interface{}, bool, error) {
	fs := newFlagSet("fetch")
	url := fs.String("url", "", "PDF link, absolute or root-relative")
	stock := fs.String("stock", "", "stock code")
	release := fs.String("release", "", "release time")
	title := fs.String("title", "", "announcement title")
	newsID := fs.String("news-id", "", "news id echoed in the result")
	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}
	if err := required(map[string]string{"url": *url, "stock": *stock, "release": *release}); err != nil {
		return nil, false, err
	}

	res := a.Documents.Download(ctx, *url, *stock, *release, *title, *newsID)
	return res, res.Success, nil
}

func runExtract(ctx context.Context, a *app.App, args []string, _ io.Reader) (interface{}, bool, error) {
	fs := newFlagSet("extract")
	path := fs.String("path", "", "cached PDF path")
	tables := fs.Bool("tables", true, "extract tables")
	maxChars := fs.Int("max-chars", 0, "inline text limit in characters")
	maxRows := fs.Int("max-rows", 0, "inline table row limit")
	force := fs.Bool("force", false, "overwrite saved text and tables files")
	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}
	if err := required(map[string]string{"path": *path}); err != nil {
		return nil, false, err
	}

	pkg := a.Documents.ExtractContent(ctx, *path, interfaces.InlineOptions{
		IncludeTables: *tables,
		Force:         *force,
		MaxTextChars:  *maxChars,
		MaxTableRows:  *maxRows,
	})
	return pkg, pkg.Success, nil
}

func runStructure(ctx context.Context, a *app.App, args []string, _ io.Reader) (interface{}, bool, error) {
	fs := newFlagSet("structure")
	path := fs.String("path", "", "cached PDF path")
	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}
	if err := required(map[string]string{"path": *path}); err != nil {
		return nil, false, err
	}

	res := a.Documents.AnalyzeStructure(ctx, *path)
	return res, res.Success, nil
}

func runSweep(ctx context.Context, a *app.App, args []string, _ io.Reader) (interface{}, bool, error) {
	fs := newFlagSet("sweep")
	days := fs.Int("days", 0, "age threshold in days (default: configured retention)")
	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}

	res := a.Documents.Cleanup(ctx, *days)
	return res, res.Success, nil
}

// prefetchEntry mirrors the MCP prefetch item shape
type prefetchEntry struct {
	PDFURL      string `json:"pdf_url"`
	StockCode   string `json:"stock_code"`
	ReleaseTime string `json:"release_time"`
	Title       string `json:"title"`
	NewsID      string `json:"news_id"`
}

func runPrefetch(ctx context.Context, a *app.App, args []string, stdin io.Reader) (interface{}, bool, error) {
	fs := newFlagSet("prefetch")
	file := fs.String("file", "", "JSON array of items, - for stdin")
	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}
	if err := required(map[string]string{"file": *file}); err != nil {
		return nil, false, err
	}

	var r io.Reader = stdin
	if *file != "-" {
		f, err := os.Open(*file)
		if err != nil {
			return nil, false, fmt.Errorf("failed to open items file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var entries []prefetchEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, false, fmt.Errorf("failed to parse items: %w", err)
	}

	items := make([]models.PrefetchItem, len(entries))
	for i, e := range entries {
		items[i] = models.PrefetchItem{
			Key:    models.CacheKey{StockCode: e.StockCode, Date: e.ReleaseTime, Title: e.Title},
			URL:    e.PDFURL,
			NewsID: e.NewsID,
		}
	}

	results := a.Prefetch(ctx, items)
	success := true
	for _, r := range results {
		success = success && r.Success
	}
	return results, success, nil
}

func runRead(ctx context.Context, a *app.App, args []string, _ io.Reader) (interface{}, bool, error) {
	fs := newFlagSet("read")
	path := fs.String("path", "", "file inside the cache")
	maxBytes := fs.Int64("max-bytes", 0, "maximum bytes to return")
	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}
	if err := required(map[string]string{"path": *path}); err != nil {
		return nil, false, err
	}

	res := a.Documents.ReadCachedFile(*path, *maxBytes)
	return res, res.Success, nil
}
