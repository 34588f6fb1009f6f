// Command server runs the Minecraft Java Edition server runtime: it
// loads server.toml, opens every configured world's region-file store
// behind a chunk map, and accepts connections through the framed
// Handshake/Status/Login/Play protocol driver. Flag/log wiring mirrors
// go-mclib-client/example_client.go's own main, server-side.
package main

import (
	"context"
	"crypto/md5"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/go-mclib/server/internal/config"
	"github.com/go-mclib/server/internal/console"
	"github.com/go-mclib/server/internal/protocol/login"
	"github.com/go-mclib/server/internal/registry"
	"github.com/go-mclib/server/internal/server"
	"github.com/go-mclib/server/internal/world/chunkmap"
	"github.com/go-mclib/server/internal/world/gen"
	"github.com/go-mclib/server/internal/world/store"
)

const tickRate = 50 * time.Millisecond // 20 Hz, spec §5's tick cadence

func main() {
	var configPath string
	var dashboard bool
	flag.StringVar(&configPath, "config", "server.toml", "Path to server.toml")
	flag.BoolVar(&dashboard, "dashboard", true, "Run the operator dashboard TUI")
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("server: %v", err)
	}

	reg, err := loadRegistry(cfg.DataPackPath)
	if err != nil {
		log.Fatalf("server: %v", err)
	}
	logger.Printf("registry: %d blocks, %d items, %d biomes", reg.BlockCount(), reg.ItemCount(), reg.BiomeCount())

	worlds, err := openWorlds(cfg, logger)
	if err != nil {
		log.Fatalf("server: %v", err)
	}
	defer closeWorlds(worlds, logger)

	var sessionServer login.SessionServer
	if cfg.OnlineMode {
		sessionServer = login.NewHTTPSessionServer()
	} else {
		sessionServer = offlineSessionServer{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tickTracker := &tpsTracker{}
	go runTickLoop(ctx, worlds, tickTracker, logger)

	// Play-stage game logic (movement, inventories, combat) is out of
	// this package's scope (spec Non-goals); onPlay is left nil so the
	// protocol driver consumes the client's keep-alive replies and drops
	// every other Play packet.
	var listener *server.Listener
	status := func() string { return statusJSON(cfg, listener) }

	listener, err = server.Listen(cfg.ListenAddress, sessionServer, cfg.CompressionThreshold, status, nil, logger)
	if err != nil {
		log.Fatalf("server: listen %s: %v", cfg.ListenAddress, err)
	}
	logger.Printf("listening on %s", listener.Addr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Println("shutting down...")
		cancel()
		listener.Close()
	}()

	serveErr := make(chan error, 1)
	go func() { serveErr <- listener.Serve(ctx) }()

	if dashboard {
		sink := dashboardSink{listener: listener, worlds: worlds, tracker: tickTracker}
		p := tea.NewProgram(console.NewModel(sink, time.Second), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			logger.Printf("dashboard exited: %v", err)
		}
		cancel()
		listener.Close()
	}

	<-serveErr
}

func loadConfig(path string) (*config.Server, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return config.Load(data)
}

func loadRegistry(dataPackPath string) (*registry.Registry, error) {
	if dataPackPath == "" {
		return registry.NewBuilder().Freeze(), nil
	}
	data, err := os.ReadFile(dataPackPath)
	if err != nil {
		return nil, fmt.Errorf("read data pack %s: %w", dataPackPath, err)
	}
	return registry.LoadDataPack(data)
}

// worldInstance bundles the per-world collaborators: the chunk map
// producers read/write through, and the durable store it delegates to.
type worldInstance struct {
	chunk *chunkmap.Map
	store *store.Store
}

func openWorlds(cfg *config.Server, logger *log.Logger) (map[string]*worldInstance, error) {
	worlds := make(map[string]*worldInstance)
	for _, group := range cfg.WorldGroups {
		for _, w := range group.Worlds {
			regionDir := filepath.Join(w.Path, "region")
			if err := os.MkdirAll(regionDir, 0o755); err != nil {
				return nil, fmt.Errorf("world %q: create region dir: %w", w.Name, err)
			}
			st := store.New(regionDir, logger)

			generator, err := buildGenerator(w.GeneratorSettings, logger)
			if err != nil {
				return nil, fmt.Errorf("world %q: %w", w.Name, err)
			}

			worlds[w.Name] = &worldInstance{
				chunk: chunkmap.New(st, generator, logger),
				store: st,
			}
		}
	}
	return worlds, nil
}

func buildGenerator(gs config.GeneratorSettings, logger *log.Logger) (gen.Generator, error) {
	switch gs.Kind {
	case config.GeneratorFlat:
		if gs.Flat == nil {
			return nil, fmt.Errorf("generator kind flat missing [generator.flat]")
		}
		return gen.NewFlatGenerator(*gs.Flat), nil
	case config.GeneratorNoise, config.GeneratorDebug:
		// Noise/Debug terrain is explicitly out of scope (spec §1
		// Non-goals: "world generation beyond a flat-generator
		// skeleton"); chunks for these worlds load from disk only.
		logger.Printf("generator kind %q has no terrain generator; chunks missing from disk stay air", gs.Kind)
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown generator kind %q", gs.Kind)
	}
}

func closeWorlds(worlds map[string]*worldInstance, logger *log.Logger) {
	for name, w := range worlds {
		if err := w.chunk.SaveAll(); err != nil {
			logger.Printf("world %q: save on shutdown failed: %v", name, err)
		}
		if err := w.store.CloseAll(); err != nil {
			logger.Printf("world %q: close region store failed: %v", name, err)
		}
	}
}

// tpsTracker measures the achieved tick rate over rolling one-second
// windows, for the dashboard's Ticks/sec figure.
type tpsTracker struct {
	current atomic.Uint64 // math.Float64bits
}

func (t *tpsTracker) set(v float64) { t.current.Store(math.Float64bits(v)) }
func (t *tpsTracker) get() float64  { return math.Float64frombits(t.current.Load()) }

func runTickLoop(ctx context.Context, worlds map[string]*worldInstance, tracker *tpsTracker, logger *log.Logger) {
	ticker := time.NewTicker(tickRate)
	defer ticker.Stop()

	windowStart := time.Now()
	ticks := 0
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for name, w := range worlds {
				if err := w.chunk.TickProcessQueue(); err != nil {
					logger.Printf("world %q: tick_process_queue: %v", name, err)
				}
			}
			ticks++
			if elapsed := now.Sub(windowStart); elapsed >= time.Second {
				tracker.set(float64(ticks) / elapsed.Seconds())
				ticks = 0
				windowStart = now
			}
		}
	}
}

func statusJSON(cfg *config.Server, listener *server.Listener) string {
	online := 0
	if listener != nil {
		online = listener.ConnectionCount()
	}
	return fmt.Sprintf(
		`{"version":{"name":"1.19.3","protocol":761},"players":{"max":%d,"online":%d},"description":{"text":"A Go Minecraft server"}}`,
		cfg.MaxPlayers, online,
	)
}

// offlineSessionServer skips the Mojang HTTPS round trip and derives a
// deterministic UUID from the player name, the same scheme vanilla
// uses for offline-mode servers.
type offlineSessionServer struct{}

func (offlineSessionServer) HasJoined(ctx context.Context, name, serverIDHash string) (*login.Profile, error) {
	sum := md5.Sum([]byte("OfflinePlayer:" + name))
	sum[6] = sum[6]&0x0f | 0x30 // version 3
	sum[8] = sum[8]&0x3f | 0x80 // IETF variant
	return &login.Profile{ID: uuid.UUID(sum), Name: name}, nil
}

// dashboardSink adapts the listener and world set to console.Sink.
type dashboardSink struct {
	listener *server.Listener
	worlds   map[string]*worldInstance
	tracker  *tpsTracker
}

func (s dashboardSink) Stats() console.Stats {
	loaded := 0
	openRegions := 0
	for _, w := range s.worlds {
		loaded += w.chunk.Len()
		openRegions += w.store.OpenCount()
	}
	return console.Stats{
		TicksPerSecond:   s.tracker.get(),
		LoadedChunks:     loaded,
		ConnectedPlayers: s.listener.ConnectionCount(),
		OpenRegionFiles:  openRegions,
	}
}
