package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/windcover/internal/db"
	"github.com/sells-group/windcover/internal/ingest"
	"github.com/sells-group/windcover/internal/windsource"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Consume wind samples from Kafka into Postgres",
	Long:  "Joins the configured consumer group and copies u/v samples into wind.samples, where the postgres wind source reads them.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("ingest"); err != nil {
			return err
		}

		pool, err := db.Connect(ctx, cfg.Store.DatabaseURL, cfg.Store.MaxConns)
		if err != nil {
			return eris.Wrap(err, "connect postgres")
		}
		defer pool.Close()

		if err := windsource.EnsureSchema(ctx, pool); err != nil {
			return err
		}

		consumer, err := ingest.NewConsumer(cfg.Kafka, ingest.NewPostgresWriter(pool))
		if err != nil {
			return err
		}
		defer func() {
			if err := consumer.Close(); err != nil {
				zap.L().Warn("close consumer", zap.Error(err))
			}
		}()

		zap.L().Info("ingest started",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
			zap.String("group", cfg.Kafka.GroupID),
		)
		return consumer.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
