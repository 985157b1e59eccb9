package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/case-story-service/internal/config"
	"github.com/couchcryptid/case-story-service/internal/domain"
)

// Writer publishes stories to a Kafka topic, one message per region.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured story topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaStoryTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishStories serializes and publishes the stories in a single
// WriteMessages call. Messages are keyed by region so every version of a
// region's story lands on the same partition.
func (w *Writer) PublishStories(ctx context.Context, stories []domain.Story) error {
	if len(stories) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(stories))
	for i := range stories {
		msg, err := serializeToMessage(stories[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write story messages: %w", err)
	}
	w.logger.Debug("stories written", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Story into a Kafka message.
func serializeToMessage(story domain.Story) (kafkago.Message, error) {
	data, err := json.Marshal(story)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize story: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(story.Region),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "segments", Value: []byte(strconv.Itoa(len(story.Segments)))},
			{Key: "degraded", Value: []byte(strconv.FormatBool(story.Degraded))},
			{Key: "generated_at", Value: []byte(story.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
