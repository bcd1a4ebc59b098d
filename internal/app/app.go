// Package app wires configuration, logging, metrics, and the hub together
// into a runnable server process.
package app

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	server "github.com/INIT-SGGW/HackArena2.0-MonoTanks"
	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/config"
	netiohttp "github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/netio/http"
	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/netio/ws"
	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/observability"
	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/telemetry"
	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/telemetry/metrics"
	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/world"
	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/logging"
	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/logging/sinks"
)

// Flags holds the parsed CLI surface (§6, plus the supplemented --config).
type Flags struct {
	Host                string
	Port                int
	Players             int
	BroadcastIntervalMS int
	Ticks               int
	Seed                uint64
	JoinCode            string
	Sandbox             bool
	SaveReplay          bool
	ReplayFilepath      string
	OverwriteReplayFile bool
	EagerBroadcast      bool
	ConfigPath          string
}

// ParseFlags parses args into Flags using the standard library flag
// package (see DESIGN.md for why this stays on stdlib).
func ParseFlags(args []string) (Flags, error) {
	fs := flag.NewFlagSet("monotanks-server", flag.ContinueOnError)
	f := Flags{}
	fs.StringVar(&f.Host, "host", "", "listen host (ip, *, or localhost)")
	fs.IntVar(&f.Port, "port", 0, "listen port (1..65535)")
	fs.IntVar(&f.Players, "players", 0, "number of players (2..4)")
	fs.IntVar(&f.BroadcastIntervalMS, "broadcast-interval", 0, "broadcast interval in ms")
	fs.IntVar(&f.Ticks, "ticks", 0, "max ticks before end-of-game")
	seed := fs.Uint64("seed", 0, "PRNG seed")
	fs.StringVar(&f.JoinCode, "join-code", "", "required join code")
	fs.BoolVar(&f.Sandbox, "sandbox", false, "sandbox mode (no competitive results file)")
	fs.BoolVar(&f.SaveReplay, "save-replay", false, "write a replay file")
	fs.StringVar(&f.ReplayFilepath, "replay-filepath", "", "replay file path")
	fs.BoolVar(&f.OverwriteReplayFile, "overwrite-replay-file", false, "overwrite an existing replay file")
	fs.BoolVar(&f.EagerBroadcast, "eager-broadcast", false, "broadcast early once all bots have replied")
	fs.StringVar(&f.ConfigPath, "config", "", "optional YAML config file")

	if err := fs.Parse(args); err != nil {
		return f, err
	}
	f.Seed = *seed
	return f, nil
}

func (f Flags) applyTo(s *config.Settings) {
	if f.Host != "" {
		s.Host = f.Host
	}
	if f.Port != 0 {
		s.Port = f.Port
	}
	if f.Players != 0 {
		s.Players = f.Players
	}
	if f.BroadcastIntervalMS != 0 {
		s.BroadcastInterval = time.Duration(f.BroadcastIntervalMS) * time.Millisecond
	}
	if f.Ticks != 0 {
		s.MaxTicks = f.Ticks
	}
	if f.Seed != 0 {
		s.Seed = f.Seed
	}
	if f.JoinCode != "" {
		s.JoinCode = f.JoinCode
	}
	if f.Sandbox {
		s.Sandbox = true
	}
	if f.SaveReplay {
		s.SaveReplay = true
	}
	if f.ReplayFilepath != "" {
		s.ReplayFilepath = f.ReplayFilepath
	}
	if f.OverwriteReplayFile {
		s.OverwriteReplayFile = true
	}
	if f.EagerBroadcast {
		s.EagerBroadcast = true
	}
}

// Run parses flags, loads configuration, and drives the hub until ctx is
// cancelled or SIGINT/SIGTERM arrives (graceful shutdown, SUPPLEMENTED
// FEATURES).
func Run(ctx context.Context) error {
	flags, err := ParseFlags(os.Args[1:])
	if err != nil {
		return err
	}

	settings, err := config.Load(flags.ConfigPath)
	if err != nil {
		return err
	}
	flags.applyTo(&settings)
	if err := settings.Validate(); err != nil {
		return err
	}

	stdLogger := log.Default()
	telemetryLogger := telemetry.WrapLogger(stdLogger)
	zl := zerolog.New(os.Stdout).With().Timestamp().Logger()

	router, err := logging.NewRouter(logging.ClockFunc(time.Now), logging.Config{
		BufferSize:      1024,
		MinimumSeverity: logging.SeverityDebug,
		EnabledSinks:    []string{"console", "zerolog"},
	}, []logging.NamedSink{
		{Name: "console", Sink: sinks.NewConsoleSink(os.Stdout, logging.ConsoleConfig{})},
		{Name: "zerolog", Sink: sinks.NewZerologSink(zl)},
	})
	if err != nil {
		return fmt.Errorf("app: build logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(context.Background()); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	met := metrics.New(prometheus.DefaultRegisterer)

	worldCfg := world.DefaultConfig()
	worldCfg.Dim = defaultDimForPlayers(settings.Players)
	worldCfg.Seed = settings.Seed

	hubCfg := server.HubConfig{
		MaxPlayers:        settings.Players,
		MaxTicks:          settings.MaxTicks,
		JoinCode:          settings.JoinCode,
		Sandbox:           settings.Sandbox,
		EagerBroadcast:    settings.EagerBroadcast,
		BroadcastInterval: settings.BroadcastInterval,
		WorldConfig:       worldCfg,
		Competitive:       !settings.Sandbox,
		Metrics:           telemetry.WrapMetrics(router.Metrics()),
	}
	if settings.SaveReplay {
		hubCfg.ReplayPath = settings.ReplayFilepath
		hubCfg.ReplayOverwrite = settings.OverwriteReplayFile
	}

	hub := server.NewHub(hubCfg, telemetryLogger, met, router)

	wsHub := &ws.Hub{
		JoinCode:     hubCfg.JoinCode,
		MaxPlayers:   hubCfg.MaxPlayers,
		Manager:      hub.Manager(),
		OnJoin:       hub.Join,
		OnSpectator:  hub.Spectate,
		OnFrame:      hub.HandleFrame,
		OnDisconnect: hub.Disconnect,
		MatchRunning: hub.MatchRunning,
	}
	handler := ws.NewHandler(wsHub, zl)
	mux := netiohttp.NewRouter(handler, func() netiohttp.HealthStatus {
		tick, conns := hub.Status()
		stats := router.Stats()
		return netiohttp.HealthStatus{
			Tick:        tick,
			Connections: conns,
			LogEvents:   stats.EventsTotal,
			LogDropped:  stats.DroppedTotal,
		}
	}, observability.Config{EnablePprofTrace: settings.EnablePprofTrace})

	addr := fmt.Sprintf("%s:%d", hostOrAny(settings.Host), settings.Port)
	httpServer := &http.Server{Addr: addr, Handler: mux}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	hubDone := make(chan struct{})
	go func() {
		hub.Run(runCtx)
		close(hubDone)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			httpServer.Shutdown(shutdownCtx)
		case <-runCtx.Done():
		}
	}()

	telemetryLogger.Printf("server listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("app: http server: %w", err)
	}
	// Wait for the hub to notify connections and finalize the replay journal.
	<-hubDone
	return nil
}

func hostOrAny(host string) string {
	if host == "*" {
		return ""
	}
	return host
}

func defaultDimForPlayers(players int) int {
	if players > 2 {
		return 28
	}
	return 24
}
