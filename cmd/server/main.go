package main

import (
	"context"
	"log"

	"approvalflow/internal/api/handler"
	"approvalflow/internal/config"
	"approvalflow/internal/core/postgres/repository"
	"approvalflow/internal/domain"
	redisinfra "approvalflow/internal/infrastructure/redis"
	"approvalflow/internal/notifier"
	"approvalflow/internal/reminder"
	"approvalflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// 2. Database
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := db.AutoMigrate(&domain.WorkflowInstance{}, &domain.StageState{}); err != nil {
		log.Fatal("Failed to migrate schema:", err)
	}

	// 3. Redis + event bus
	redisClient, err := redisinfra.NewClient(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("Failed to connect to redis:", err)
	}
	bus := redisinfra.NewEventBus(redisClient)

	// 4. Repository and service
	repo := repository.NewInstanceRepository(db)
	workflowSvc := service.NewWorkflowService(repo, bus)

	// 5. Notification dispatcher
	dispatcher := notifier.NewDispatcher(bus, notifier.NewLogSink())
	go func() {
		if err := dispatcher.Start(ctx); err != nil {
			log.Printf("Dispatcher stopped: %v", err)
		}
	}()

	// 6. Overdue stage reminders
	rem := reminder.New(repo, bus, cfg.StageOverdueAfter)
	if err := rem.Start(cfg.ReminderSchedule); err != nil {
		log.Fatal("Failed to start reminder:", err)
	}
	defer rem.Stop()

	// 7. HTTP routes
	workflowHandler := handler.NewWorkflowHandler(workflowSvc)
	router := gin.Default()
	workflowHandler.RegisterRoutes(router.Group("/api/v1"))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8. Start server
	log.Println("Server starting on", cfg.HTTPAddr)
	if err := router.Run(cfg.HTTPAddr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
