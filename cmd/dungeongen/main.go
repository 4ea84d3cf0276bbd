// Package main provides the dungeon generator CLI: it generates a dungeon
// from a preset and overrides, writes the snapshot, and optionally saves it
// to the scenario library or prints its starting map.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/config"
	"github.com/cory-johannsen/dungeon/internal/game/automap"
	"github.com/cory-johannsen/dungeon/internal/game/generator"
	"github.com/cory-johannsen/dungeon/internal/game/npc"
	"github.com/cory-johannsen/dungeon/internal/game/session"
	"github.com/cory-johannsen/dungeon/internal/game/theme"
	"github.com/cory-johannsen/dungeon/internal/observability"
	"github.com/cory-johannsen/dungeon/internal/storage/postgres"
	"github.com/cory-johannsen/dungeon/internal/storage/scenario"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

type options struct {
	configPath  string
	preset      string
	rooms       int
	layout      string
	seed        string
	theme       string
	name        string
	themesFile  string
	bestiaryDir string
	out         string
	save        bool
	showMap     bool
	list        bool
	load        string
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("dungeongen", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "path to configuration file (empty uses defaults and DUNGEON_ env)")
	fs.StringVar(&o.preset, "preset", "", "generation preset: easy, standard, or hard (default from config)")
	fs.IntVar(&o.rooms, "rooms", 0, "override the preset room count")
	fs.StringVar(&o.layout, "layout", "", "override the preset layout: linear, branching, or network")
	fs.StringVar(&o.seed, "seed", "", "integer seed for reproducible output; empty is unseeded")
	fs.StringVar(&o.theme, "theme", "", "override the preset theme")
	fs.StringVar(&o.name, "name", "", "fixed dungeon name instead of a themed one")
	fs.StringVar(&o.themesFile, "themes", "", "YAML theme catalog replacing the embedded one")
	fs.StringVar(&o.bestiaryDir, "bestiary", "", "directory of monster YAML templates replacing the embedded bestiary")
	fs.StringVar(&o.out, "out", "", `snapshot output path; "-" is stdout, empty writes into generator.output_dir`)
	fs.BoolVar(&o.save, "save", false, "save the dungeon to the scenario library")
	fs.BoolVar(&o.showMap, "map", false, "print the map as seen from the entrance")
	fs.BoolVar(&o.list, "list", false, "list saved scenarios and exit")
	fs.StringVar(&o.load, "load", "", "load a saved scenario by id and print its map")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	start := time.Now()

	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	shutdown, err := observability.SetupTracing(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("tracing shutdown", zap.Error(err))
		}
	}()

	var store scenario.Store
	if opts.save || opts.list || opts.load != "" {
		st, closeStore, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()
		store = st
	}

	switch {
	case opts.list:
		return listScenarios(ctx, store, stdout)
	case opts.load != "":
		return showScenario(ctx, store, opts.load, stdout)
	}

	genCfg, err := buildConfig(cfg.Generator, opts)
	if err != nil {
		return err
	}

	var genOpts []generator.Option
	if opts.themesFile != "" {
		data, err := os.ReadFile(opts.themesFile)
		if err != nil {
			return fmt.Errorf("reading theme catalog: %w", err)
		}
		catalog, err := theme.LoadCatalogFromBytes(data)
		if err != nil {
			return err
		}
		genOpts = append(genOpts, generator.WithThemes(catalog))
	}
	if opts.bestiaryDir != "" {
		b, err := npc.LoadBestiary(opts.bestiaryDir)
		if err != nil {
			return err
		}
		genOpts = append(genOpts, generator.WithBestiary(b))
	}

	res, err := generator.New(logger, genOpts...).Run(ctx, genCfg)
	if err != nil {
		return err
	}
	d := res.Dungeon

	sc := scenario.New(d, "", "", string(genCfg.Difficulty))
	if err := writeSnapshot(opts.out, cfg.Generator.OutputDir, sc, stdout, logger); err != nil {
		return err
	}

	if opts.save {
		if err := store.Save(ctx, sc); err != nil {
			return err
		}
		logger.Info("scenario saved", zap.String("id", sc.ID), zap.String("name", sc.Name))
	}

	if opts.showMap {
		if err := printMap(sc, stdout); err != nil {
			return err
		}
	}

	logger.Info("done", zap.Duration("elapsed", time.Since(start)))
	return nil
}

func buildConfig(defaults config.GeneratorConfig, opts options) (generator.Config, error) {
	name := opts.preset
	if name == "" {
		name = defaults.Preset
	}
	cfg, err := generator.Preset(name)
	if err != nil {
		return generator.Config{}, err
	}
	if defaults.Theme != "" {
		cfg.Theme = defaults.Theme
		cfg.MonsterPool = nil
	}
	if opts.theme != "" {
		cfg.Theme = opts.theme
		cfg.MonsterPool = nil
	}
	if opts.rooms > 0 {
		cfg.Rooms = opts.rooms
	}
	if opts.layout != "" {
		cfg.Layout = generator.Layout(opts.layout)
	}
	if opts.name != "" {
		cfg.Name = opts.name
	}
	if opts.seed != "" {
		seed, err := strconv.ParseInt(opts.seed, 10, 64)
		if err != nil {
			return generator.Config{}, fmt.Errorf("parsing seed %q: %w", opts.seed, err)
		}
		cfg.Seed = &seed
	}
	return cfg, nil
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (scenario.Store, func(), error) {
	switch cfg.Storage.Backend {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		if err := pool.Health(ctx, postgres.DefaultHealthTimeout); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("database connected", zap.String("host", cfg.Database.Host))
		return pool.Scenarios(), pool.Close, nil
	default:
		fs, err := scenario.NewFileStore(cfg.Storage.Dir, logger)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	}
}

func writeSnapshot(out, dir string, sc scenario.Scenario, stdout io.Writer, logger *zap.Logger) error {
	data, err := json.MarshalIndent(sc.Dungeon, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding dungeon: %w", err)
	}
	if out == "-" {
		_, err := fmt.Fprintln(stdout, string(data))
		return err
	}
	if out == "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
		out = filepath.Join(dir, scenario.FileName(sc))
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("writing dungeon: %w", err)
	}
	logger.Info("dungeon written", zap.String("path", out), zap.Int("rooms", sc.Rooms))
	return nil
}

func listScenarios(ctx context.Context, store scenario.Store, stdout io.Writer) error {
	list, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		_, err := fmt.Fprintln(stdout, "No saved scenarios.")
		return err
	}
	for _, s := range list {
		if _, err := fmt.Fprintf(stdout, "%s  %-24s %-8s %3d rooms  %s\n",
			s.ID, s.Name, s.Difficulty, s.Rooms, s.Created.Format(time.DateOnly)); err != nil {
			return err
		}
	}
	return nil
}

func showScenario(ctx context.Context, store scenario.Store, id string, stdout io.Writer) error {
	sc, err := store.Load(ctx, id)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(stdout, "%s (%s, %d rooms)\n", sc.Name, sc.Difficulty, sc.Rooms); err != nil {
		return err
	}
	return printMap(sc, stdout)
}

func printMap(sc scenario.Scenario, stdout io.Writer) error {
	d, err := sc.Build()
	if err != nil {
		return err
	}
	s := session.New(d)
	if _, err := s.Begin(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "%s\n\n%s\n", automap.Render(d, s.Tracker(), s.Current().ID), automap.Legend)
	return err
}
