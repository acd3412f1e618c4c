// Command agent wires configuration, secrets, and every C1-C9 package
// together into one running process. It is intentionally thin, matching
// the teacher's own cmd/main.go: construct dependencies, start the loop in
// a goroutine, drain a report channel. No business logic lives here.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blackhole-labs/solcycle/internal/agent"
	"github.com/blackhole-labs/solcycle/internal/agentlog"
	"github.com/blackhole-labs/solcycle/internal/config"
	"github.com/blackhole-labs/solcycle/internal/cycle"
	"github.com/blackhole-labs/solcycle/internal/db"
	"github.com/blackhole-labs/solcycle/internal/jitoclient"
	"github.com/blackhole-labs/solcycle/internal/solanarpc"
	"github.com/blackhole-labs/solcycle/internal/walletstore"
	"github.com/blackhole-labs/solcycle/internal/wsmonitor"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to config.yml")
	metricsAddr := flag.String("metrics-addr", ":9090", "address to serve /metrics on")
	flag.Parse()

	_ = godotenv.Load()

	log := agentlog.Default()

	conf, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}
	cycleCfg, err := conf.ToCycleConfig()
	if err != nil {
		panic(err)
	}

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
			log.Alert("metrics server stopped: %v", err)
		}
	}()

	rpcOpts := []solanarpc.Option{solanarpc.WithLogSink(log)}
	if conf.RateLimit.CallsPerWindow > 0 && conf.RateLimit.WindowMs > 0 {
		rpcOpts = append(rpcOpts, solanarpc.WithRateLimit(conf.RateLimit.CallsPerWindow, msToDuration(conf.RateLimit.WindowMs)))
	}
	if url := conf.Jito.BlockEngineURL; url != "" {
		jc := jitoclient.New(url, "")
		tipAccount := jitoDefaultTipAccount()
		rpcOpts = append(rpcOpts, solanarpc.WithJito(jc, tipAccount))
	}
	rpcClient := solanarpc.NewClient(conf.RPCHTTPURL(), rpcOpts...)

	wallets, err := walletstore.New(conf.WalletsDir(), rpcClient, log)
	if err != nil {
		panic(fmt.Errorf("wallet store: %w", err))
	}

	wsMonitor := wsmonitor.New(conf.RPCWSURL(), log)

	metadata := cycle.NewMetadataFetcher(conf.RPCHTTPURL(), nil)

	orch := cycle.New(cycle.Deps{
		RPC:      rpcClient,
		Wallets:  wallets,
		WS:       wsMonitor,
		Metadata: metadata,
		Log:      log,
	}, cycleCfg)

	sink := reportSink(log)

	manual := func(ctx context.Context) (string, error) {
		fmt.Print("enter contract address to clone> ")
		var line string
		if _, err := fmt.Scanln(&line); err != nil {
			return "", fmt.Errorf("read contract address: %w", err)
		}
		return line, nil
	}
	// No discovery provider is wired in: the core only defines the
	// get_ca_auto() contract, it does not own a concrete source.
	auto := func(ctx context.Context) (string, bool, error) { return "", false, nil }

	loop := agent.New(orch, cycleCfg, manual, auto, log, sink)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
		log.Alert("agent loop exited: %v", err)
	}
}

// reportSink wires cycle.Report events to the MySQL recorder when
// MYSQL_DSN is set, logging a non-fatal alert on every record failure;
// recording is a no-op sink otherwise.
func reportSink(log *agentlog.Sink) cycle.ReportSink {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		return func(cycle.Report) {}
	}
	recorder, err := db.NewMySQLCycleRecorder(dsn)
	if err != nil {
		log.Alert("cycle recorder disabled, connect failed: %v", err)
		return func(cycle.Report) {}
	}
	return func(r cycle.Report) {
		if err := recorder.RecordReport(r); err != nil {
			log.Alert("record cycle report: %v", err)
		}
	}
}

func msToDuration(ms int) time.Duration { return time.Duration(ms) * time.Millisecond }

// jitoDefaultTipAccount returns one of Jito's well-known mainnet tip
// accounts. Querying getTipAccounts at startup would add a network
// round-trip before the RPC client even exists; the Block Engine's
// published list rarely changes.
func jitoDefaultTipAccount() solana.PublicKey {
	return solana.MustPublicKeyFromBase58("96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5")
}
