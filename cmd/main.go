package main

import (
	"database/sql"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/generationsbank/guardian-bank/internal/command"
	"github.com/generationsbank/guardian-bank/internal/config"
	"github.com/generationsbank/guardian-bank/internal/events"
	"github.com/generationsbank/guardian-bank/internal/handler"
	"github.com/generationsbank/guardian-bank/internal/notify"
	"github.com/generationsbank/guardian-bank/internal/query"
	"github.com/generationsbank/guardian-bank/internal/redisstore"
	"github.com/generationsbank/guardian-bank/internal/repository"
	"github.com/generationsbank/guardian-bank/internal/token"
	"github.com/generationsbank/guardian-bank/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on existing environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// PostgreSQL: source of truth for users, accounts, transactions.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	// Redis: account projection cache + ledger event stream.
	redisClient, err := redisstore.Dial(cfg.RedisAddr, "", 0)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	userRepo := repository.NewUserRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	accountViews := repository.NewAccountReadRepository(db, redisClient)

	publisher := events.NewPublisher(redisClient, nil)
	tokens := token.NewService(cfg.TokenSecret, cfg.TokenTTL)
	notifier := &notify.LogNotifier{}

	commandSvc := command.NewGuardianCommandService(
		userRepo, accountRepo, transactionRepo,
		tokens, notifier, utils.BcryptHasher{},
		accountViews, publisher, nil,
	)
	querySvc := query.NewGuardianQueryService(userRepo, accountRepo, transactionRepo, accountViews)

	guardianHandler := handler.NewGuardianHandler(commandSvc, querySvc)

	router := gin.Default()
	guardianHandler.Register(router.Group("/v1"))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	log.Printf("Guardian bank service starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
