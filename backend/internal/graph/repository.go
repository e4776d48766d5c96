package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"themtwo/backend/internal/state"
	apperrors "themtwo/backend/pkg/errors"
	"themtwo/backend/pkg/logger"
)

// Repository handles all Neo4j database operations.
//
// People are (:Person) nodes carrying position_x/position_y. Connections are
// [:CONNECTED] relationships; person_a and person_b keep insertion order
// because Neo4j stores every relationship with a direction.
type Repository struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
	newID    func() string
}

// NewRepository creates a new graph repository. An empty database uses the
// server default.
func NewRepository(driver neo4j.DriverWithContext, database string) *Repository {
	return &Repository{
		driver:   driver,
		database: database,
		logger:   logger.Named("graph"),
		newID:    uuid.NewString,
	}
}

// Close closes the Neo4j driver connection
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

func (r *Repository) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: r.database})
}

// EnsureSchema creates the constraints and indexes the queries rely on.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	statements := []string{
		`CREATE CONSTRAINT person_id IF NOT EXISTS FOR (p:Person) REQUIRE p.id IS UNIQUE`,
		`CREATE INDEX connection_id IF NOT EXISTS FOR ()-[c:CONNECTED]-() ON (c.id)`,
	}
	for _, stmt := range statements {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			return apperrors.NewGraphQueryFailed("ensure schema", err)
		}
	}

	r.logger.Info("Graph schema ensured")
	return nil
}

// Snapshot reads people and connections concurrently.
func (r *Repository) Snapshot(ctx context.Context) (*state.Snapshot, error) {
	snap := &state.Snapshot{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		people, err := r.ListPeople(gctx)
		snap.People = people
		return err
	})
	g.Go(func() error {
		connections, err := r.ListConnections(gctx)
		snap.Connections = connections
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// a write between the two reads can leave a dangling edge; drop it here
	known := make(map[string]bool, len(snap.People))
	for _, p := range snap.People {
		known[p.ID] = true
	}
	kept := snap.Connections[:0]
	for _, c := range snap.Connections {
		if known[c.PersonA] && known[c.PersonB] {
			kept = append(kept, c)
		}
	}
	snap.Connections = kept

	return snap, nil
}

func (r *Repository) readList(ctx context.Context, operation, query string, params map[string]interface{}, each func(*neo4j.Record)) error {
	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return apperrors.NewGraphQueryFailed(operation, err)
	}
	for result.Next(ctx) {
		each(result.Record())
	}
	if err := result.Err(); err != nil {
		return apperrors.NewGraphQueryFailed(operation, err)
	}
	return nil
}

// writeSingle runs query in a write transaction and returns its only record,
// or nil when it matched nothing.
func (r *Repository) writeSingle(ctx context.Context, operation, query string, params map[string]interface{}) (*neo4j.Record, error) {
	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	out, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			return nil, result.Err()
		}
		return result.Record(), nil
	})
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed(operation, err)
	}
	record, _ := out.(*neo4j.Record)
	return record, nil
}

func (r *Repository) String() string {
	return fmt.Sprintf("neo4j(%s)", r.database)
}
