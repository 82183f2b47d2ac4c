package main

import (
	"context"
	"log"

	"goyo-backend/ai"
	"goyo-backend/config"
	"goyo-backend/handlers"
	"goyo-backend/llm"
	"goyo-backend/logger"
	"goyo-backend/repository"
	"goyo-backend/search"
	"goyo-backend/service"
	"goyo-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zlog.Sync()

	db, err := initPostgres(cfg)
	if err != nil {
		zlog.Fatal("failed to initialize postgres", zap.Error(err))
	}
	defer db.Close()
	zlog.Info("postgres connection established")

	artifactStore, err := storage.NewStorage(cfg)
	if err != nil {
		zlog.Fatal("failed to initialize artifact storage", zap.Error(err))
	}

	// Model artifacts are optional; the service degrades per subsystem.
	models := ai.LoadModels(context.Background(), artifactStore, cfg, zlog)

	groq := llm.NewClient(cfg, zlog)
	if !groq.Available() {
		zlog.Warn("GROQ_API_KEY not set, text generation will use fallbacks")
	}

	sentenciaRepo := repository.NewSentenciaRepository(db)
	expedienteRepo := repository.NewExpedienteRepository(db)
	prediccionRepo := repository.NewPrediccionRepository(db)
	escritoRepo := repository.NewEscritoRepository(db)
	importJobRepo := repository.NewImportJobRepository(db)

	searchCache := cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	corpusIndex := search.NewMemoryIndex()

	sentenciaService := service.NewSentenciaService(
		service.WithSentenciaStore(sentenciaRepo),
		service.WithEmbedder(models),
		service.WithCorpusIndex(corpusIndex),
		service.WithSearchCache(searchCache),
		service.WithSearchCacheSize(cfg.CacheSize),
		service.WithSearchParams(cfg.SearchThreshold, cfg.SearchLimit),
		service.WithSentenciaLogger(zlog),
	)
	if err := sentenciaService.ReloadIndex(context.Background()); err != nil {
		zlog.Warn("failed to load corpus index at startup", zap.Error(err))
	}

	expedienteService := service.NewExpedienteService(
		service.WithExpedienteStore(expedienteRepo),
		service.WithExpedienteEmbedder(models),
		service.WithExpedienteLogger(zlog),
	)

	analysisService := service.NewAnalysisService(
		service.AnalysisWithSearcher(sentenciaService),
		service.AnalysisWithExpedienteStore(expedienteRepo),
		service.AnalysisWithPrediccionStore(prediccionRepo),
		service.AnalysisWithEmbedder(models),
		service.AnalysisWithGenerator(groq),
		service.AnalysisWithLogger(zlog),
	)

	generationService := service.NewGenerationService(
		service.GenerationWithGenerator(groq),
		service.GenerationWithLogger(zlog),
	)

	escritoService := service.NewEscritoService(
		service.EscritoWithStore(escritoRepo),
		service.EscritoWithExpedienteStore(expedienteRepo),
		service.EscritoWithEmbedder(models),
		service.EscritoWithGenerator(groq),
		service.EscritoWithArchive(artifactStore),
		service.EscritoWithLogger(zlog),
	)

	importService := service.NewImportService(
		service.ImportWithSentenciaStore(sentenciaRepo),
		service.ImportWithJobStore(importJobRepo),
		service.ImportWithEmbedder(models),
		service.ImportWithIndexReloader(sentenciaService),
		service.ImportWithBatchSize(cfg.ImportBatchSize),
		service.ImportWithCorpusFile(cfg.CorpusFile),
		service.ImportWithLogger(zlog),
	)

	statusHandler := handlers.NewStatusHandler(sentenciaService, models, groq, zlog, version)
	aiHandler := handlers.NewAIHandler(analysisService, sentenciaService, generationService, escritoService, zlog)
	sentenciaHandler := handlers.NewSentenciaHandler(sentenciaService, importService, zlog)
	expedienteHandler := handlers.NewExpedienteHandler(expedienteService, analysisService, zlog)
	escritoHandler := handlers.NewEscritoHandler(escritoService, zlog)
	jobHandler := handlers.NewJobHandler(importService)

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	api := r.Group("/api/v1")
	{
		api.GET("/status", statusHandler.GetStatus)

		// AI endpoints
		api.POST("/ai/prediccion-sentencia", aiHandler.PrediccionSentencia)
		api.POST("/ai/buscar-jurisprudencia", aiHandler.BuscarJurisprudencia)
		api.POST("/ai/analisis-predictivo", aiHandler.AnalisisPredictivo)
		api.POST("/ai/generar-texto", aiHandler.GenerarTexto)
		api.POST("/ai/generar-laudo", aiHandler.GenerarLaudo)
		api.POST("/ai/traducir", aiHandler.Traducir)
		api.POST("/ai/resumen", aiHandler.Resumen)
		api.POST("/ai/argumentador", aiHandler.Argumentador)
		api.POST("/ai/generar-escrito", aiHandler.GenerarEscrito)

		// Jurisprudence corpus
		api.GET("/sentencias", sentenciaHandler.ListSentencias)
		api.POST("/sentencias", sentenciaHandler.CreateSentencia)
		api.GET("/sentencias/tribunales", sentenciaHandler.GetTribunales)
		api.GET("/sentencias/materias", sentenciaHandler.GetMaterias)
		api.GET("/sentencias/stats", sentenciaHandler.GetStats)
		api.POST("/sentencias/bulk-import", sentenciaHandler.BulkImport)
		api.POST("/sentencias/update-embeddings", sentenciaHandler.UpdateEmbeddings)
		api.GET("/sentencias/:id", sentenciaHandler.GetSentencia)
		api.PUT("/sentencias/:id", sentenciaHandler.UpdateSentencia)
		api.DELETE("/sentencias/:id", sentenciaHandler.DeleteSentencia)

		// Case files
		api.POST("/expedientes", expedienteHandler.CreateExpediente)
		api.GET("/expedientes", expedienteHandler.ListExpedientes)
		api.GET("/expedientes/:id", expedienteHandler.GetExpediente)
		api.PUT("/expedientes/:id", expedienteHandler.UpdateExpediente)
		api.DELETE("/expedientes/:id", expedienteHandler.DeleteExpediente)
		api.POST("/expedientes/:id/documentos", expedienteHandler.AddDocumento)
		api.GET("/expedientes/:id/documentos", expedienteHandler.ListDocumentos)
		api.PUT("/documentos/:id", expedienteHandler.UpdateDocumento)
		api.GET("/expedientes/:id/predicciones", expedienteHandler.ListPredicciones)

		// Document templates
		api.POST("/escritos", escritoHandler.CreateTemplate)
		api.GET("/escritos", escritoHandler.ListTemplates)
		api.GET("/escritos/:id", escritoHandler.GetTemplate)

		// Background jobs
		api.GET("/jobs/:id", jobHandler.GetJob)
	}

	addr := cfg.Host + ":" + cfg.Port
	zlog.Info("server starting", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func initPostgres(cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(context.Background()); err != nil {
		return nil, err
	}
	return pool, nil
}
