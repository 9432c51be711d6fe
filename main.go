package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"findplayer/config"
	"findplayer/database"
	"findplayer/handlers"
	"findplayer/middleware"
	"findplayer/services"
	"findplayer/utils"
	"findplayer/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal("failed to load config:", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	curve, err := services.CurveByName(cfg.LevelCurve)
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("failed to connect to redis:", err)
		}
	} else {
		log.Println("⚠️  REDIS_ADDR not set, leaderboard reads from PostgreSQL")
	}

	leaderboard := services.NewLeaderboard(redisClient, db, curve)
	if err := leaderboard.Rebuild(ctx); err != nil {
		log.Printf("⚠️  leaderboard rebuild failed: %v", err)
	}

	ledger := services.NewExperienceLedger(db, curve, clock)
	ledger.Leaderboard = leaderboard

	quota := services.NewQuotaGuard(db, clock, map[services.QuotaAction]services.QuotaPolicy{
		services.QuotaSubmission: {
			Free: cfg.SubmissionQuotaFree, Premium: cfg.SubmissionQuotaPremium, Window: cfg.SubmissionQuotaWindow,
		},
		services.QuotaChallengeCreation: {
			Free: cfg.ChallengeQuotaFree, Premium: cfg.ChallengeQuotaPremium, Window: cfg.ChallengeQuotaWindow,
		},
	})
	streaks := services.NewStreakTracker(db)
	notifications := services.NewNotificationService(db, clock)

	submissions := services.NewSubmissionService(db, clock, quota, streaks, notifications)
	if cfg.R2Enabled() {
		store, err := utils.NewR2Store(ctx, utils.R2Config{
			AccountID:       cfg.CloudflareAccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
			Bucket:          cfg.R2Bucket,
			CDNBaseURL:      cfg.CDNBaseURL,
		})
		if err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		submissions.Videos = store
	}

	sched, err := streaks.StartStreakSweep(clock, cfg.StreakSweepAt)
	if err != nil {
		log.Fatal("failed to start streak sweep:", err)
	}
	defer func() { _ = sched.Shutdown() }()

	if cfg.ProfileSyncURL != "" {
		syncWorker := workers.NewProfileSyncWorker(db, cfg.ProfileSyncURL, "/api/v1/public/profiles", cfg.ProfileSyncToken, cfg.ProfileSyncInterval)
		syncWorker.Start(ctx)
	} else {
		log.Println("⚠️  PROFILE_SYNC_URL not set, profile sync worker disabled")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(middleware.GatewayAuthMiddleware(cfg.GatewayToken))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOriginList(), ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Role",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	handlers.SetupRoutes(app, handlers.Services{
		Challenges:    services.NewChallengeService(db, clock, quota, ledger, cfg.ChallengePostXP),
		Submissions:   submissions,
		Reviews:       services.NewReviewService(db, clock, ledger, streaks, notifications, cfg.ReviewXP),
		Quota:         quota,
		Ledger:        ledger,
		Leaderboard:   leaderboard,
		Notifications: notifications,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", cfg.Port)
	log.Printf("✅ Level curve: %s (%d levels)", curve.Name, curve.MaxLevel())

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
