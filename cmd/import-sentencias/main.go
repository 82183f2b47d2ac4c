package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"goyo-backend/ai"
	"goyo-backend/config"
	"goyo-backend/logger"
	"goyo-backend/models"
	"goyo-backend/repository"
	"goyo-backend/service"
	"goyo-backend/storage"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	var path string
	flag.StringVar(&path, "file", "", "corpus JSON file (defaults to CORPUS_FILE)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if path == "" {
		path = cfg.CorpusFile
	}

	zlog, err := logger.New(cfg.LogLevel, "console")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	ctx := context.Background()

	// Verify schema exists
	var tableExists bool
	err = pool.QueryRow(ctx, "SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = 'sentencias')").Scan(&tableExists)
	if err != nil {
		log.Fatalf("Failed to check table existence: %v", err)
	}
	if !tableExists {
		log.Fatal("sentencias table does not exist. Please run: go run cmd/create-schema/main.go")
	}

	artifactStore, err := storage.NewStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize artifact storage: %v", err)
	}
	embedder := ai.LoadModels(ctx, artifactStore, cfg, zlog)
	if !embedder.VectorizerReady() {
		log.Println("⚠️  Vectorizer artifact not loaded; rulings will be imported without embeddings")
	}

	records, err := readCorpus(path)
	if err != nil {
		log.Fatalf("Failed to read corpus: %v", err)
	}
	log.Printf("📄 Read %d records from %s", len(records), path)

	repo := repository.NewSentenciaRepository(pool)

	total := len(records)
	var imported, skipped int64
	for start := 0; start < total; start += cfg.ImportBatchSize {
		end := start + cfg.ImportBatchSize
		if end > total {
			end = total
		}

		batch := make([]*models.Sentencia, 0, end-start)
		for _, rec := range records[start:end] {
			if rec.Expediente == "" || rec.FullText == "" {
				skipped++
				continue
			}
			sentencia := &models.Sentencia{
				Tribunal:   rec.Tribunal,
				Fecha:      rec.Fecha.Time(),
				Materia:    rec.Materia,
				Partes:     rec.Partes,
				Expediente: rec.Expediente,
				FullText:   rec.FullText,
				URL:        rec.URL,
				Resultado:  rec.Resultado,
			}
			if embedder.VectorizerReady() {
				if embedding, err := embedder.Vectorize(rec.FullText); err == nil {
					sentencia.Embedding = embedding
					version := embedder.Version()
					sentencia.VectorizerVersion = &version
				}
			}
			batch = append(batch, sentencia)
		}

		n, err := repo.BulkInsert(ctx, batch)
		if err != nil {
			log.Fatalf("Batch starting at record %d failed: %v (earlier batches are committed)", start, err)
		}
		imported += n
		log.Printf("✓ Imported %d/%d", end, total)
	}

	fmt.Printf("\n✅ Import complete: %d inserted, %d duplicates, %d invalid records skipped\n",
		imported, int64(total)-imported-skipped, skipped)
}

func readCorpus(path string) ([]service.CorpusRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []service.CorpusRecord
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}
