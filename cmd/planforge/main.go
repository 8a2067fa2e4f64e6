package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ChamsBouzaiene/planforge/internal/config"
	"github.com/ChamsBouzaiene/planforge/internal/events"
	"github.com/ChamsBouzaiene/planforge/internal/llm"
	"github.com/ChamsBouzaiene/planforge/internal/pipeline"
	"github.com/ChamsBouzaiene/planforge/internal/planner"
	"github.com/ChamsBouzaiene/planforge/internal/project"
	"github.com/ChamsBouzaiene/planforge/internal/prompts"
	"github.com/ChamsBouzaiene/planforge/internal/state"
	"github.com/ChamsBouzaiene/planforge/internal/watch"
)

func main() {
	// Load .env if present; explicit environment wins over the file.
	_ = godotenv.Load()

	fs := flag.NewFlagSet("planforge", flag.ExitOnError)
	projectFile := fs.String("project", "", "path to the project definition JSON file")
	dbPath := fs.String("db", "", "path to the state database (default: user config dir)")
	pattern := fs.String("pattern", "", "force an architecture pattern: layered, feature_based, simple")
	threshold := fs.Float64("threshold", 0, "refinement score threshold (default 0.8)")
	maxRounds := fs.Int("max-rounds", 0, "maximum refinement rounds (default 3)")
	noRefine := fs.Bool("no-refine", false, "evaluate once, skip the refinement loop")
	resume := fs.Bool("resume", false, "resume an interrupted run from saved state")
	pauseReason := fs.String("pause", "", "pause the running pipeline with the given reason and exit")
	clear := fs.Bool("clear", false, "discard saved state for the project and exit")
	watchMode := fs.Bool("watch", false, "rerun the pipeline whenever the project file changes")
	userID := fs.String("user", "", "acting user identity forwarded to the LLM provider")
	fs.Parse(os.Args[1:])

	if *projectFile == "" {
		log.Fatal("usage: planforge -project <file.json> [flags]")
	}

	cfg := loadPreferences()
	cfg.ApplyToEnv()

	proj, err := project.Load(*projectFile)
	if err != nil {
		log.Fatalf("Failed to load project: %v", err)
	}
	if proj.ID == "" {
		proj.ID = proj.Name
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := state.NewStore(ctx, resolveDBPath(*dbPath, cfg))
	if err != nil {
		log.Fatalf("Failed to open state store: %v", err)
	}
	defer store.Close()

	p := &pipeline.Pipeline{
		Store:          store,
		UserID:         *userID,
		ScoreThreshold: *threshold,
		MaxRounds:      *maxRounds,
		SkipRefinement: *noRefine,
	}

	if *pattern != "" {
		pref, err := planner.ParsePattern(*pattern)
		if err != nil {
			log.Fatalf("Invalid pattern: %v", err)
		}
		p.Preference = pref
	}

	// Maintenance operations exit before any LLM wiring.
	if *pauseReason != "" {
		if err := p.Pause(ctx, proj.ID, *pauseReason); err != nil {
			log.Fatalf("Pause failed: %v", err)
		}
		log.Printf("Paused pipeline for project %s", proj.ID)
		return
	}
	if *clear {
		n, err := p.Clear(ctx, proj.ID)
		if err != nil {
			log.Fatalf("Clear failed: %v", err)
		}
		log.Printf("Cleared %d saved state row(s) for project %s", n, proj.ID)
		return
	}

	client, model, err := llm.NewClientFromEnv()
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}
	log.Printf("Using model: %s", model)
	p.LLM = client
	p.Prompts = prompts.NewRegistry()

	run := func() bool {
		return printEvents(startRun(ctx, p, proj, *resume))
	}

	if !*watchMode {
		if !run() {
			os.Exit(1)
		}
		return
	}

	// Watch mode: rerun on every settled change to the project file.
	fw, err := watch.NewFileWatcher(*projectFile)
	if err != nil {
		log.Fatalf("Failed to create watcher: %v", err)
	}
	runs := make(chan struct{}, 1)
	fw.OnChange(func() {
		select {
		case runs <- struct{}{}:
		default:
		}
	})
	if err := fw.Start(); err != nil {
		log.Fatalf("Failed to start watcher: %v", err)
	}
	defer fw.Stop()

	run()
	log.Printf("Watching %s for changes...", *projectFile)
	for {
		select {
		case <-ctx.Done():
			return
		case <-runs:
			reloaded, err := project.Load(*projectFile)
			if err != nil {
				log.Printf("Skipping run, project file invalid: %v", err)
				continue
			}
			if reloaded.ID == "" {
				reloaded.ID = reloaded.Name
			}
			proj = reloaded
			run()
			log.Printf("Watching %s for changes...", *projectFile)
		}
	}
}

// startRun launches exactly one pipeline execution for the project. Run and
// Resume each spawn a worker that checkpoints under the same state key, so
// starting both would have the abandoned one overwrite the saved snapshot.
func startRun(ctx context.Context, p *pipeline.Pipeline, proj *project.Project, resume bool) <-chan events.Event {
	if resume {
		return p.Resume(ctx, proj)
	}
	return p.Run(ctx, proj)
}

func loadPreferences() *config.Config {
	mgr, err := config.NewManager()
	if err != nil {
		return &config.Config{}
	}
	cfg, err := mgr.Load()
	if err != nil {
		log.Printf("Ignoring unreadable config file: %v", err)
		return &config.Config{}
	}
	return cfg
}

func resolveDBPath(flagValue string, cfg *config.Config) string {
	if flagValue != "" {
		return flagValue
	}
	if cfg.DBPath != "" {
		return cfg.DBPath
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "planforge.db"
	}
	path := fmt.Sprintf("%s/planforge", dir)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "planforge.db"
	}
	return path + "/planforge.db"
}
