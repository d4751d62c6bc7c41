package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"watchfolio-be/internal/entity"
	"watchfolio-be/internal/repository/specification"
	"watchfolio-be/internal/repository/unitofwork"
	"watchfolio-be/pkg/assistant/identity"
	"watchfolio-be/pkg/database"
	"watchfolio-be/pkg/store"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.AssistantSessionRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Check Assistant Session Repository", func(t *testing.T) {
		count, err := uow.AssistantSessionRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Assistant session count: %d", count)
	})

	t.Run("Upsert is insert then overwrite", func(t *testing.T) {
		ctx := context.Background()
		repo := uow.AssistantSessionRepository()
		userId := uuid.New()
		sessionId := identity.NewID()

		session := &entity.AssistantSession{
			Id:     sessionId,
			UserId: userId,
			Mode:   store.ModeInformation,
			Title:  "integration upsert",
			Messages: []store.Turn{
				{Role: store.TurnRoleUser, Content: "hello"},
			},
		}
		err := repo.Upsert(ctx, session)
		assert.NoError(t, err)

		// Second write with the same identity must overwrite, not duplicate.
		session.Messages = append(session.Messages, store.Turn{
			Role: store.TurnRoleAssistant, Content: "hi there",
		})
		err = repo.Upsert(ctx, session)
		assert.NoError(t, err)

		found, err := repo.FindOne(ctx,
			specification.ByID{ID: sessionId},
			specification.OwnedBy{UserId: userId},
		)
		assert.NoError(t, err)
		if assert.NotNil(t, found) {
			assert.Len(t, found.Messages, 2)
			assert.Equal(t, store.ModeInformation, found.Mode)
		}

		count, err := repo.Count(ctx, specification.OwnedBy{UserId: userId})
		assert.NoError(t, err)
		assert.Equal(t, int64(1), count)

		// Cleanup
		err = repo.DeleteAllByUserIdUnscoped(ctx, userId)
		assert.NoError(t, err)
	})
}
