package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"subpay-indexer.backend/internal/config"
	"subpay-indexer.backend/internal/infrastructure/repositories"
)

// clear-freeze is the operator recovery path spec.md §7 requires for a
// chain latched Frozen by a receipt timeout: it unsets the chain's
// initiator-available flag so the Payment Initiator resumes on its
// next tick. Grounded in the teacher's small single-purpose cmd/ tools.
func main() {
	chainID := flag.String("chain", "", "chain ID to unfreeze")
	flag.Parse()

	if *chainID == "" {
		log.Fatal("usage: clear-freeze -chain <chainID>")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.Database.URL(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{PrepareStmt: false})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	cursors := repositories.NewCursorRepository(repositories.NewMutexDB(db))

	ctx := context.Background()
	frozen, reason, err := cursors.IsFrozen(ctx, *chainID)
	if err != nil {
		log.Fatalf("failed to read freeze status: %v", err)
	}
	if !frozen {
		fmt.Printf("chain %s is not frozen\n", *chainID)
		return
	}

	if err := cursors.Unfreeze(ctx, *chainID); err != nil {
		log.Fatalf("failed to clear freeze: %v", err)
	}
	fmt.Printf("chain %s unfrozen (was: %s)\n", *chainID, reason)
}
