// Command weft-noded runs one storage node: a gRPC endpoint backed by
// a journaled replica with chunks on the local filesystem.
//
// Configuration comes from a YAML file plus flag overrides. The node
// key is derived from seed_hex and the node name, so a name/seed pair
// always comes back up with the same identity.
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
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"gopkg.in/yaml.v3"

	"github.com/weftlabs/weft/keys"
	"github.com/weftlabs/weft/ledger"
	"github.com/weftlabs/weft/node"
	"github.com/weftlabs/weft/rpc"
)

type config struct {
	Name        string          `yaml:"name"`
	Listen      string          `yaml:"listen"`
	DataDir     string          `yaml:"data_dir"`
	LogLevel    string          `yaml:"log_level"`
	SeedHex     string          `yaml:"seed_hex"`
	Peers       []string        `yaml:"peers"`
	Quorum      int             `yaml:"quorum"`
	MaxMsgBytes int             `yaml:"max_msg_bytes"`
	Rate        rateConfig      `yaml:"rate"`
	Genesis     []genesisConfig `yaml:"genesis"`
}

type rateConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type genesisConfig struct {
	Owner  string `yaml:"owner"`
	Amount uint64 `yaml:"amount"`
}

func loadConfig(path string) (config, error) {
	cfg := config{
		Listen:   "127.0.0.1:9190",
		DataDir:  "./weft-data",
		LogLevel: "info",
	}
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "weft-noded: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	configPath := flag.String("config", "", "Path to YAML config file")
	name := flag.String("name", "", "Node name (overrides config)")
	listen := flag.String("listen", "", "Listen address (overrides config)")
	dataDir := flag.String("data-dir", "", "Data directory (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	seedHex := flag.String("seed-hex", "", "32-byte hex root seed (overrides config)")
	flag.Parse()
	if len(flag.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", flag.Args())
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *name != "" {
		cfg.Name = *name
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *seedHex != "" {
		cfg.SeedHex = *seedHex
	}
	if cfg.Name == "" {
		return errors.New("a node name is required (-name or config)")
	}
	if cfg.SeedHex == "" {
		return errors.New("a root seed is required (-seed-hex or config)")
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	seed, err := keys.ParseSeedHex(cfg.SeedHex)
	if err != nil {
		return err
	}
	key, err := keys.DeriveNodeKey(seed, cfg.Name)
	if err != nil {
		return err
	}

	peers := cfg.Peers
	quorum := cfg.Quorum
	if len(peers) == 0 {
		peers = []string{key.ID()}
		quorum = 1
	}

	n, err := node.New(node.Config{
		Name:    cfg.Name,
		Key:     key,
		Peers:   peers,
		Quorum:  quorum,
		DataDir: cfg.DataDir,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	for _, g := range cfg.Genesis {
		hist, err := n.History(ctx, g.Owner)
		if err != nil {
			return err
		}
		if len(hist.Credits) > 0 {
			continue
		}
		if err := n.Genesis(g.Owner, ledger.Amount(g.Amount)); err != nil {
			return fmt.Errorf("genesis %s: %w", g.Owner, err)
		}
		logger.Info("genesis recorded", "owner", g.Owner, "amount", g.Amount)
	}

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return err
	}
	defer lis.Close()

	interceptors := []grpc.UnaryServerInterceptor{rpc.LoggingInterceptor(logger)}
	if cfg.Rate.RPS > 0 {
		burst := cfg.Rate.Burst
		if burst < 1 {
			burst = 1
		}
		limiter := rate.NewLimiter(rate.Limit(cfg.Rate.RPS), burst)
		interceptors = append([]grpc.UnaryServerInterceptor{rpc.RateLimitInterceptor(limiter)}, interceptors...)
	}
	opts := []grpc.ServerOption{grpc.ChainUnaryInterceptor(interceptors...)}
	if cfg.MaxMsgBytes > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(cfg.MaxMsgBytes), grpc.MaxSendMsgSize(cfg.MaxMsgBytes))
	}

	srv := grpc.NewServer(opts...)
	rpc.RegisterNodeServer(srv, &rpc.Server{Backend: n})

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(lis) }()
	logger.Info("weft-noded listening", "addr", lis.Addr().String(), "node", key.ID())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	srv.GracefulStop()
	return nil
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
