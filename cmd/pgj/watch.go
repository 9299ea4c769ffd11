package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/pgjson/internal/events"
)

var watchCmd = &cobra.Command{
	Use:               "watch [topic]",
	Short:             "Stream document events from the event bus",
	GroupID:           "documents",
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: noClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL, _ := cmd.Flags().GetString("nats-url")
		if natsURL == "" {
			return errors.New("no event bus configured (set PGJ_NATS_URL or --nats-url)")
		}
		topic := events.TopicAll
		if len(args) == 1 {
			topic = args[0]
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		sub, err := events.NewNATSSubscriber(natsURL,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				log.Printf("nats: disconnected: %v", err)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				log.Printf("nats: reconnected")
			}),
		)
		if err != nil {
			return err
		}
		defer sub.Close()

		return watchEvents(ctx, sub, topic, cmd)
	},
}

// watchEvents prints every event on topic until ctx is done.
func watchEvents(ctx context.Context, sub events.Subscriber, topic string, cmd *cobra.Command) error {
	err := events.Stream(ctx, sub, topic, func(payload []byte) error {
		if jsonOutput {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), string(payload))
			return err
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), describeEvent(payload))
		return err
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func init() {
	watchCmd.Flags().String("nats-url", os.Getenv("PGJ_NATS_URL"), "NATS server URL")
}
