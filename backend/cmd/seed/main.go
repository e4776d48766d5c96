package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"go.uber.org/zap"

	"themtwo/backend/internal/board"
	"themtwo/backend/internal/client"
	"themtwo/backend/internal/relation"
	"themtwo/backend/pkg/config"
	"themtwo/backend/pkg/logger"
)

// samplePeople and sampleConnections make a small cast with every connection type
var samplePeople = []string{"ada", "grace", "alan", "linus", "margaret", "ken"}

var sampleConnections = []struct {
	a, b int
	typ  relation.Type
}{
	{0, 1, relation.Kissed},
	{0, 2, relation.Talked},
	{1, 3, relation.Dated},
	{2, 4, relation.Fucked},
	{3, 5, relation.Talked},
	{4, 5, relation.Kissed},
}

func main() {
	reset := flag.Bool("reset", false, "Delete every person (and so every connection) first")
	skipConfirm := flag.Bool("y", false, "Skip confirmation prompt")
	baseURL := flag.String("url", "", "API base URL (defaults to API_BASE_URL)")
	flag.Parse()

	// Initialize logger
	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting board seed...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if *baseURL == "" {
		*baseURL = cfg.APIBaseURL
	}

	if *reset && !*skipConfirm {
		log.Warn("WARNING: This will DELETE ALL PEOPLE AND CONNECTIONS on the board!")
		fmt.Print("Are you sure you want to continue? (yes/no): ")
		var response string
		fmt.Scanln(&response)
		if response != "yes" && response != "y" {
			log.Info("Aborted.")
			os.Exit(0)
		}
	}

	c, err := client.New(*baseURL, log.Named("client"))
	if err != nil {
		log.Fatal("Failed to create client", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	opts := options{
		Spawn:        board.Area{X: cfg.SpawnX, Y: cfg.SpawnY, Width: cfg.SpawnWidth, Height: cfg.SpawnHeight},
		WriteTimeout: cfg.WriteTimeout,
		Reset:        *reset,
	}
	if err := seed(ctx, c, opts, log); err != nil {
		log.Fatal("Seed failed", zap.Error(err))
	}
	log.Info("Seed complete", zap.String("url", *baseURL))
}

type options struct {
	Spawn        board.Area
	WriteTimeout time.Duration // per write; zero means only ctx bounds it
	Reset        bool
}

// within runs one write under the per-write deadline
func (o options) within(ctx context.Context, write func(ctx context.Context) error) error {
	if o.WriteTimeout <= 0 {
		return write(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, o.WriteTimeout)
	defer cancel()
	return write(ctx)
}

// seed optionally wipes the board and then creates the sample cast
func seed(ctx context.Context, c *client.Client, opts options, log *zap.Logger) error {
	spawn := opts.Spawn
	if opts.Reset {
		people, err := c.ListPeople(ctx)
		if err != nil {
			return fmt.Errorf("failed to list people: %w", err)
		}
		for _, p := range people {
			err := opts.within(ctx, func(ctx context.Context) error {
				return c.DeletePerson(ctx, p.ID)
			})
			if err != nil {
				return fmt.Errorf("failed to delete %s: %w", p.ID, err)
			}
		}
		log.Info("Board cleared", zap.Int("people_deleted", len(people)))
	}

	ids := make([]string, len(samplePeople))
	for i, name := range samplePeople {
		x := spawn.X + rand.Float64()*spawn.Width
		y := spawn.Y + rand.Float64()*spawn.Height
		var id string
		err := opts.within(ctx, func(ctx context.Context) error {
			var err error
			id, err = c.CreatePerson(ctx, name, x, y)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", name, err)
		}
		ids[i] = id
	}
	log.Info("People created", zap.Int("count", len(ids)))

	for _, sc := range sampleConnections {
		err := opts.within(ctx, func(ctx context.Context) error {
			_, err := c.CreateConnection(ctx, ids[sc.a], ids[sc.b], sc.typ)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to connect %s and %s: %w", samplePeople[sc.a], samplePeople[sc.b], err)
		}
	}
	log.Info("Connections created", zap.Int("count", len(sampleConnections)))
	return nil
}
