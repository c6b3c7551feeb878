package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	database "github.com/sebuszqo/FamilyFinance/db"
	"github.com/sebuszqo/FamilyFinance/internal/api"
	"github.com/sebuszqo/FamilyFinance/internal/assistant"
	"github.com/sebuszqo/FamilyFinance/internal/auth"
	"github.com/sebuszqo/FamilyFinance/internal/billing"
	"github.com/sebuszqo/FamilyFinance/internal/budget"
	"github.com/sebuszqo/FamilyFinance/internal/config"
	"github.com/sebuszqo/FamilyFinance/internal/education"
	emailService "github.com/sebuszqo/FamilyFinance/internal/email"
	"github.com/sebuszqo/FamilyFinance/internal/finance/application"
	"github.com/sebuszqo/FamilyFinance/internal/finance/infrastructure"
	"github.com/sebuszqo/FamilyFinance/internal/finance/interfaces"
	"github.com/sebuszqo/FamilyFinance/internal/goal"
	"github.com/sebuszqo/FamilyFinance/internal/insights"
	investments "github.com/sebuszqo/FamilyFinance/internal/investment"
	"github.com/sebuszqo/FamilyFinance/internal/investment/marketdata"
	"github.com/sebuszqo/FamilyFinance/internal/logging"
	"github.com/sebuszqo/FamilyFinance/internal/workspace"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Missing configuration, update to start server")
	}
	logging.Setup(cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbService, err := database.NewDBService(ctx, cfg.DBConnectionString)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not initialize database")
	}
	defer dbService.Close()

	if err := database.Migrate(ctx, dbService.DB); err != nil {
		log.Fatal().Err(err).Msg("Could not apply migrations")
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not create JWT manager")
	}
	authMiddleware := auth.NewMiddleware(jwtManager)

	mailer := emailService.NewEmailService(cfg)
	defer mailer.Close()

	workspaceService := workspace.NewService(workspace.NewRepository(dbService.DB), mailer, cfg.AppBaseURL)

	transactionRepo := infrastructure.NewTransactionRepository(dbService.DB)
	transactionService := application.NewTransactionService(transactionRepo)
	projectionService := application.NewProjectionService(transactionRepo)
	categoryService := application.NewCategoryService(infrastructure.NewCategoryRepository(dbService.DB))
	materializer := application.NewMaterializer(transactionRepo)

	budgetService := budget.NewService(budget.NewRepository(dbService.DB))
	goalService := goal.NewService(goal.NewRepository(dbService.DB))

	marketDataService := marketdata.NewFMPClient(cfg.MarketDataAPIKey)
	investmentService := investments.NewInvestmentService(investments.NewInvestmentRepository(dbService.DB), marketDataService, transactionRepo)

	insightsService := insights.NewService(insights.NewRepository(dbService.Pool), budgetService, goalService, investmentService, projectionService)

	educationService := education.NewService(education.NewRepository(dbService.DB))
	syncCatalog(ctx, educationService, cfg.CatalogPath)

	billingService := billing.NewService(
		billing.NewStore(dbService.DB),
		billing.NewRazorpayClient(cfg.PaymentsAPIKey, cfg.PaymentsAPISecret, cfg.PaymentsBaseURL),
	)

	var completer assistant.Completer
	if client, err := assistant.NewOpenAIClient(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel); err != nil {
		log.Warn().Err(err).Msg("Assistant disabled")
	} else {
		completer = client
	}
	assistantService := assistant.NewService(completer, insightsService, budgetService)

	server := &Server{
		authMiddleware:      authMiddleware.JWTAccessTokenMiddleware(),
		workspaceMiddleware: workspace.NewMiddleware(workspaceService, api.RespondError),
		health:              func(r *http.Request) map[string]string { return dbService.Health(r.Context()) },
		workspaceHandler:    workspace.NewHandler(workspaceService, api.RespondJSON, api.RespondError),
		transactionHandler:  interfaces.NewTransactionHandler(transactionService, projectionService, api.RespondJSON, api.RespondError),
		categoryHandler:     interfaces.NewCategoryHandler(categoryService, api.RespondJSON, api.RespondError),
		cronHandler:         interfaces.NewCronHandler(materializer, cfg.CronSecret, api.RespondJSON, api.RespondError),
		budgetHandler:       budget.NewHandler(budgetService, api.RespondJSON, api.RespondError),
		goalHandler:         goal.NewHandler(goalService, api.RespondJSON, api.RespondError),
		investmentsHandler:  investments.NewInvestmentHandler(investmentService, api.RespondJSON, api.RespondError),
		insightsHandler:     insights.NewHandler(insightsService, api.RespondJSON, api.RespondError),
		educationHandler:    education.NewHandler(educationService, api.RespondJSON, api.RespondError),
		billingHandler:      billing.NewHandler(billingService, cfg.PaymentsWebhookSecret, api.RespondJSON, api.RespondError),
		assistantHandler:    assistant.NewHandler(assistantService, assistant.NewDefaultRateLimiter(), api.RespondJSON, api.RespondError),
	}
	server.RegisterRoutes()

	scheduler, err := StartScheduler(cfg, materializer, investmentService)
	if err != nil {
		log.Fatal().Err(err).Msg("Scheduler didn't start, stopping the app ...")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	<-scheduler.Stop().Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

func syncCatalog(ctx context.Context, service education.Service, path string) {
	catalog, err := education.LoadCatalog(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Learning catalog not loaded")
		return
	}
	if err := service.SyncCatalog(ctx, catalog); err != nil {
		log.Error().Err(err).Msg("Error syncing learning catalog")
	}
}

// StartScheduler registers the materializer and, when a market data key is
// set, the price refresh. Job failures are logged and retried on the next tick.
func StartScheduler(cfg *config.Config, materializer *application.Materializer, investmentService investments.Service) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(cfg.MaterializeSchedule, func() {
		result, err := materializer.MaterializeDue(context.Background(), time.Now())
		if err != nil {
			log.Error().Err(err).Msg("Error materializing due transactions")
			return
		}
		log.Info().Int("recurring_posted", result.RecurringPosted).Int64("incoming_posted", result.IncomingPosted).Msg("Due transactions materialized")
	})
	if err != nil {
		return nil, err
	}

	if cfg.MarketDataAPIKey != "" {
		_, err = c.AddFunc(cfg.PriceSchedule, func() {
			updated, err := investmentService.RefreshPrices(context.Background())
			if err != nil {
				log.Error().Err(err).Msg("Error refreshing investment prices")
				return
			}
			log.Info().Int("updated", updated).Msg("Investment prices refreshed")
		})
		if err != nil {
			return nil, err
		}
	}

	c.Start()
	return c, nil
}
