package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/soaringjerry/Studia/internal/api"
	"github.com/soaringjerry/Studia/internal/config"
	dbstore "github.com/soaringjerry/Studia/internal/db"
	"github.com/soaringjerry/Studia/internal/services"
)

// runMigrate applies the SQL migrations to the configured database and, with
// -snapshot, imports a JSON catalogue of quizzes and flashcards.
func runMigrate(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	snapshotPath := fs.String("snapshot", cfg.SnapshotPath, "JSON snapshot to import after migrating")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var driver string
	switch cfg.Store {
	case config.StoreSQLite:
		driver = "sqlite3"
	case config.StorePostgres:
		driver = "postgres"
	default:
		return fmt.Errorf("STUDIA_STORE=%s has no schema to migrate", cfg.Store)
	}

	sqlDB, err := sql.Open(driver, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("open %s: %w", driver, err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("warning: failed to close database: %v", cerr)
		}
	}()
	if err := dbstore.RunMigrations(sqlDB, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Printf("migrations applied (%s)", cfg.Store)

	if *snapshotPath == "" {
		return nil
	}
	src, err := api.NewMemoryStoreFromPath(*snapshotPath)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	snap := api.MemoryStoreSnapshot(src)
	if snap == nil {
		return errors.New("snapshot store is not a memory store")
	}

	gdb, err := dbstore.Open(cfg.Store, cfg.DBURL)
	if err != nil {
		return err
	}
	dst, err := dbstore.NewStore(gdb)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	quizzes, cards, err := copySnapshotToStore(context.Background(), snap, dst)
	if err != nil {
		return fmt.Errorf("copy data: %w", err)
	}
	log.Printf("snapshot %s imported: quizzes=%d flashcards=%d", *snapshotPath, quizzes, cards)
	return nil
}

// copySnapshotToStore inserts what dst does not have yet. Existing quizzes
// and flashcards are left untouched.
func copySnapshotToStore(ctx context.Context, snap *api.Snapshot, dst api.Store) (int, int, error) {
	quizzes, cards := 0, 0
	for _, q := range snap.Quizzes {
		if q == nil {
			continue
		}
		if err := dst.InsertQuiz(ctx, q); err != nil {
			if services.IsCode(err, services.ErrorConflict) {
				log.Printf("skip quiz %s: already present", q.ID)
				continue
			}
			return quizzes, cards, fmt.Errorf("quiz %s: %w", q.ID, err)
		}
		quizzes++
	}
	for _, c := range snap.Flashcards {
		if c == nil {
			continue
		}
		existing, err := dst.LoadFlashcard(ctx, c.ID)
		if err != nil {
			return quizzes, cards, fmt.Errorf("flashcard %s: %w", c.ID, err)
		}
		if existing != nil {
			continue
		}
		if err := dst.InsertFlashcard(ctx, c); err != nil {
			return quizzes, cards, fmt.Errorf("flashcard %s: %w", c.ID, err)
		}
		cards++
	}
	return quizzes, cards, nil
}
