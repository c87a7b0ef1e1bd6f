// Command weft-localnet runs a small in-process fleet behind a single
// gRPC endpoint: the quickest way to a working network on one machine.
// Chunk puts replicate to every node and transfers settle against the
// fleet's quorum, so clients see the same behavior a deployed network
// gives them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"google.golang.org/grpc"

	"github.com/weftlabs/weft/fleet"
	"github.com/weftlabs/weft/keys"
	"github.com/weftlabs/weft/ledger"
	"github.com/weftlabs/weft/rpc"
)

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "weft-localnet: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	listen := flag.String("listen", "127.0.0.1:9190", "Listen address")
	nodes := flag.Int("nodes", 3, "Fleet size")
	dataDir := flag.String("data-dir", "", "Data directory (empty keeps everything in memory)")
	logDir := flag.String("log-dir", "", "Directory for per-node log files (empty logs to stderr only)")
	seedHex := flag.String("seed-hex", "", "32-byte hex root seed for node keys (required)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	var genesis stringList
	flag.Var(&genesis, "genesis", "Genesis credit as account=amount (repeatable)")
	flag.Parse()
	if len(flag.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", flag.Args())
	}
	if *seedHex == "" {
		return errors.New("a root seed is required (-seed-hex)")
	}

	logger, err := newLogger(*logLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	seed, err := keys.ParseSeedHex(*seedHex)
	if err != nil {
		return err
	}
	cfg := fleet.Config{
		Nodes:   *nodes,
		Seed:    seed,
		DataDir: *dataDir,
		Logger:  logger,
	}
	if *logDir != "" {
		nodeLogger, closeLogs, err := perNodeLoggers(*logDir)
		if err != nil {
			return err
		}
		defer closeLogs()
		cfg.NodeLogger = nodeLogger
	}
	fl, err := fleet.New(cfg)
	if err != nil {
		return err
	}

	for _, g := range genesis {
		owner, amount, err := parseGenesis(g)
		if err != nil {
			return err
		}
		hist, err := fl.History(ctx, owner)
		if err != nil {
			return err
		}
		if len(hist.Credits) > 0 {
			continue
		}
		if err := fl.Genesis(owner, amount); err != nil {
			return fmt.Errorf("genesis %s: %w", owner, err)
		}
		logger.Info("genesis recorded", "owner", owner, "amount", amount)
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		return err
	}
	defer lis.Close()

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(rpc.LoggingInterceptor(logger)))
	rpc.RegisterNodeServer(srv, &rpc.Server{Backend: fl})

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(lis) }()
	logger.Info("weft-localnet listening", "addr", lis.Addr().String(), "nodes", fl.Size())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	srv.GracefulStop()
	return nil
}

// perNodeLoggers gives every node a debug-level log file under dir,
// the path failure reports collect.
func perNodeLoggers(dir string) (func(name string) *slog.Logger, func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	var mu sync.Mutex
	var files []*os.File
	nodeLogger := func(name string) *slog.Logger {
		f, err := os.OpenFile(filepath.Join(dir, name+".log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil
		}
		mu.Lock()
		files = append(files, f)
		mu.Unlock()
		return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	closeAll := func() {
		mu.Lock()
		defer mu.Unlock()
		for _, f := range files {
			f.Close()
		}
	}
	return nodeLogger, closeAll, nil
}

func parseGenesis(s string) (string, ledger.Amount, error) {
	owner, amountStr, ok := strings.Cut(s, "=")
	if !ok || owner == "" {
		return "", 0, fmt.Errorf("genesis %q: want account=amount", s)
	}
	amount, err := strconv.ParseUint(amountStr, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("genesis %q: %w", s, err)
	}
	return owner, ledger.Amount(amount), nil
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "", "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}
	return slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:   lvl,
		NoColor: !isatty.IsTerminal(os.Stderr.Fd()),
	})), nil
}
