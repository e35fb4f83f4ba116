package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/psds-microservice/work-buddy/internal/application"
	"github.com/psds-microservice/work-buddy/internal/kafka"
	"github.com/psds-microservice/work-buddy/internal/searchindex"
	"github.com/psds-microservice/work-buddy/internal/service"
	"github.com/spf13/cobra"
)

var reindexSearchCmd = &cobra.Command{
	Use:   "reindex-search",
	Short: "Push every request to search. Prefers Kafka; falls back to HTTP if SEARCH_SERVICE_URL is set.",
	RunE:  runReindexSearch,
}

func init() {
	rootCmd.AddCommand(reindexSearchCmd)
}

func runReindexSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	st, err := application.AttachStore(cfg)
	if err != nil {
		return fmt.Errorf("reindex-search: %w", err)
	}
	requests, err := st.List(ctx)
	if err != nil {
		return fmt.Errorf("list requests: %w", err)
	}
	logger.Info().Int("requests", len(requests)).Msg("reindex-search: loaded")

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicTicket, logger)
	defer producer.Close()
	if producer.Enabled() {
		for i, r := range requests {
			producer.ProduceRequestEvent(ctx, kafka.EventRequestReindexed, service.RequestEventPayload(r))
			if (i+1)%50 == 0 || i == len(requests)-1 {
				logger.Info().Msgf("reindex-search: sent %d/%d events to Kafka", i+1, len(requests))
			}
		}
		return nil
	}
	if cfg.SearchServiceURL != "" {
		client := searchindex.NewClient(cfg.SearchServiceURL, logger)
		failed := 0
		for i, r := range requests {
			if err := client.IndexRequest(ctx, r); err != nil {
				failed++
				logger.Warn().Err(err).Str("request_id", r.ID).Msg("reindex-search: index")
			}
			if (i+1)%50 == 0 || i == len(requests)-1 {
				logger.Info().Msgf("reindex-search: indexed %d/%d", i+1, len(requests))
			}
		}
		if failed > 0 {
			return fmt.Errorf("reindex-search: %d of %d requests failed", failed, len(requests))
		}
		return nil
	}
	logger.Warn().Msg("reindex-search: neither KAFKA_BROKERS nor SEARCH_SERVICE_URL set, nothing sent")
	return nil
}
