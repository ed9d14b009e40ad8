package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"

	"EMAScan/internal/repository"
	pkgkafka "EMAScan/pkg/kafka"
)

var (
	watchBrokers []string
	watchFrom    string
)

// watchCmd tails dashboard snapshots published to Kafka
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow dashboard snapshots published to Kafka",
	Long: `Consume the snapshot topic and print one line per pipeline run.

Examples:
  emascan watch
  emascan watch --brokers kafka-1:9092 --from earliest`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringSliceVar(&watchBrokers, "brokers", nil, "Kafka brokers (default: sinks.kafka.brokers)")
	watchCmd.Flags().StringVar(&watchFrom, "from", "latest", "Start offset for a new group (latest|earliest)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	brokers := watchBrokers
	if len(brokers) == 0 {
		brokers = cfg.Sinks.Kafka.Brokers
	}
	consumer, err := pkgkafka.NewConsumer(cfg.Sinks.Kafka.Topic,
		pkgkafka.WithConsumerBrokers(brokers),
		pkgkafka.WithConsumerGroupID(cfg.Sinks.Kafka.GroupID),
		pkgkafka.WithConsumerStartOffset(watchFrom),
	)
	if err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}
	defer consumer.Close()

	ctx, cancel := signalContext()
	defer cancel()

	w := cmd.OutOrStdout()
	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s on %s\n", cfg.Sinks.Kafka.Topic, strings.Join(brokers, ","))
	return consumer.Run(ctx, func(ctx context.Context, msg kafka.Message) error {
		s, err := repository.DecodeSnapshot(msg)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipping message: %v\n", err)
			return nil
		}
		fmt.Fprintf(w, "%s  %-8s %s  scanned=%d above=%d below=%d  long=[%s] now=[%s] avoid=[%s]\n",
			s.GeneratedAt.Format("2006-01-02 15:04:05"), s.Source, s.RunID,
			s.Summary.TotalScanned, s.Summary.Above(), s.Summary.Below(),
			strings.Join(s.LongTerm, " "), strings.Join(s.TradeNow, " "), strings.Join(s.Avoid, " "))
		return nil
	})
}
