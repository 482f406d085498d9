package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/hkexdocs/internal/app"
	"github.com/bobmcallan/hkexdocs/internal/common"
)

func main() {
	configPath := flag.String("config", "", "path to hkexdocs.toml (default: HKEX_CONFIG, then next to the binary)")
	flag.Parse()

	a, err := app.NewApp(*configPath)
	if err != nil {
		common.NewLogger("error").Error().Err(err).Msg("Failed to initialize app")
		os.Exit(1)
	}

	common.PrintBanner(a.Config, a.Logger, "mcp-stdio")
	a.StartJanitor()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = serve(ctx, a, os.Stdin, os.Stdout)

	common.PrintShutdownBanner(a.Logger)
	a.Close()

	if err != nil {
		a.Logger.Error().Err(err).Msg("MCP server stopped with error")
		os.Exit(1)
	}
}

// serve speaks MCP over in/out until ctx is cancelled or in is closed.
// Stdout belongs to the protocol; everything else goes to stderr.
func serve(ctx context.Context, a *app.App, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(a.MCPServer)
	err := stdio.Listen(ctx, in, out)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
