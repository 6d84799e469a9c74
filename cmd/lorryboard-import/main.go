// lorryboard-import loads delivery and lorry JSON dumps into the record
// store, either directly or by publishing each delivery onto the ingest
// queue for the worker to consume.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"lorryboard/internal/amqp"
	"lorryboard/internal/backend"
	"lorryboard/internal/config"
	"lorryboard/internal/core"
	applog "lorryboard/internal/log"
	"lorryboard/internal/services"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	var (
		deliveriesPath = flag.String("deliveries", "", "path to a deliveries JSON dump")
		lorriesPath    = flag.String("lorries", "", "path to a lorries JSON dump")
		publish        = flag.Bool("publish", false, "publish deliveries to the ingest queue instead of writing the store directly")
	)
	flag.Parse()

	if *deliveriesPath == "" && *lorriesPath == "" {
		fmt.Fprintln(os.Stderr, "usage: lorryboard-import [-publish] -deliveries file.json -lorries file.json")
		os.Exit(2)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := run(ctx, cfg, *deliveriesPath, *lorriesPath, *publish, logger); err != nil {
		logger.Error("Import failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, deliveriesPath, lorriesPath string, publish bool, logger *applog.Logger) error {
	store, err := backend.New(backend.Config{
		Type:          backend.Type(cfg.DataBackend),
		SQLiteDBPath:  cfg.SQLiteDBPath,
		DataDirectory: cfg.DataDir,
	})
	if err != nil {
		return fmt.Errorf("initialize backend: %w", err)
	}
	defer store.Close()

	ingest := services.NewIngestService(store, store)

	// Lorries are reference data and always go straight to the store.
	if lorriesPath != "" {
		var lorries []core.Lorry
		if err := readJSON(lorriesPath, &lorries); err != nil {
			return fmt.Errorf("read lorries dump: %w", err)
		}
		for _, l := range lorries {
			if err := ingest.RecordLorry(ctx, l); err != nil {
				logger.Warn("Skipping lorry", "lorry_id", l.LorryID, "error", err)
				continue
			}
		}
		logger.Info("Imported lorries", "count", len(lorries), "path", lorriesPath)
	}

	if deliveriesPath == "" {
		return nil
	}
	var txs []core.Transaction
	if err := readJSON(deliveriesPath, &txs); err != nil {
		return fmt.Errorf("read deliveries dump: %w", err)
	}

	if publish {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("initialize AMQP client: %w", err)
		}
		defer client.Close()

		published := 0
		for _, tx := range txs {
			if err := client.PublishDeliveryRecorded(ctx, amqp.NewDeliveryRecordedMessage(tx)); err != nil {
				logger.Warn("Skipping delivery", "transaction_id", tx.TransactionID, "error", err)
				continue
			}
			published++
		}
		logger.Info("Published deliveries", "count", published, "total", len(txs), "path", deliveriesPath)
		return nil
	}

	stored := 0
	for _, tx := range txs {
		if err := ingest.RecordDelivery(ctx, tx); err != nil {
			logger.Warn("Skipping delivery", "transaction_id", tx.TransactionID, "error", err)
			continue
		}
		stored++
	}
	logger.Info("Imported deliveries", "count", stored, "total", len(txs), "path", deliveriesPath)
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
