package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/hierarchy-api/internal/application/directory"
	"github.com/jhoicas/hierarchy-api/internal/application/usecase"
	"github.com/jhoicas/hierarchy-api/internal/domain/hierarchy"
	"github.com/jhoicas/hierarchy-api/internal/domain/repository"
	"github.com/jhoicas/hierarchy-api/internal/infrastructure/memory"
	"github.com/jhoicas/hierarchy-api/internal/infrastructure/postgres"
	"github.com/jhoicas/hierarchy-api/internal/infrastructure/remote"
	httpRouter "github.com/jhoicas/hierarchy-api/internal/interfaces/http"
	"github.com/jhoicas/hierarchy-api/pkg/config"
	"github.com/jhoicas/hierarchy-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("backend", cfg.Directory.Backend).
		Msg("iniciando aplicación")

	// Una cadena inválida es un defecto de despliegue: no se arranca.
	chain := hierarchy.DefaultChain()
	if cfg.Directory.RoleChain != "" {
		defs, err := hierarchy.ParseRoleChain(cfg.Directory.RoleChain)
		if err != nil {
			log.Fatal().Err(err).Msg("ROLE_CHAIN")
		}
		if chain, err = hierarchy.NewChain(defs); err != nil {
			log.Fatal().Err(err).Msg("ROLE_CHAIN")
		}
	}

	ctx := context.Background()
	var repo repository.UserDirectory
	switch cfg.Directory.Backend {
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(ctx, pool, log); err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
		}
		repo = postgres.NewUserRepository(pool)
	case config.BackendRemote:
		repo = remote.NewUserDirectory(cfg.Directory.RemoteBaseURL, cfg.Directory.RemoteToken, cfg.Directory.RemoteTimeout, chain)
	default:
		log.Warn().Msg("directorio en memoria: los datos se pierden al reiniciar")
		repo = memory.NewUserDirectory()
	}

	store := directory.NewStore(repo, log)
	loadCtx, cancelLoad := context.WithTimeout(ctx, 30*time.Second)
	if _, err := store.Load(loadCtx); err != nil {
		cancelLoad()
		log.Fatal().Err(err).Msg("carga inicial del directorio")
	}
	cancelLoad()

	resolver := directory.NewResolver(chain, store)
	lifecycleUC := usecase.NewUserLifecycleUseCase(repo, store, resolver, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.MetricsMiddleware())

	// Swagger UI: http://localhost:<port>/docs
	if cfg.HTTP.SwaggerFile != "" {
		if _, err := os.Stat(cfg.HTTP.SwaggerFile); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: "/",
				FilePath: cfg.HTTP.SwaggerFile,
				Path:     "docs",
				Title:    "Hierarchy API",
			}))
		} else {
			log.Warn().Str("file", cfg.HTTP.SwaggerFile).Msg("swagger no disponible")
		}
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		snap := store.Snapshot()
		return c.JSON(fiber.Map{
			"status":    "ok",
			"service":   cfg.App.Name,
			"users":     snap.Len(),
			"loaded_at": store.LoadedAt(),
		})
	})
	app.Get("/metrics", httpRouter.MetricsHandler())

	httpRouter.Router(app, httpRouter.RouterDeps{
		LifecycleUC: lifecycleUC,
		JWTSecret:   cfg.JWT.Secret,
		JWTIssuer:   cfg.JWT.Issuer,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
