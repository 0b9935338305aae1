package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog/log"

	"tadoba-control-go/internal/models"
)

// KafkaSink mirrors outbound events onto a single Kafka topic, keyed by
// camera so per-camera ordering survives partitioning.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForLocal

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	log.Info().Strs("brokers", brokers).Str("topic", topic).Msg("Kafka producer ready")
	return NewKafkaSinkWithProducer(producer, topic), nil
}

func NewKafkaSinkWithProducer(producer sarama.SyncProducer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (k *KafkaSink) Mirror(env models.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event"), Value: []byte(env.Event)},
		},
	}
	if key := cameraKey(env.Data); key != "" {
		msg.Key = sarama.StringEncoder(key)
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		return err
	}
	log.Debug().Str("topic", k.topic).Int32("partition", partition).Int64("offset", offset).Str("event", env.Event).Msg("Event mirrored to Kafka")
	return nil
}

func (k *KafkaSink) Name() string { return "kafka" }

func (k *KafkaSink) Shutdown(ctx context.Context) error {
	return k.producer.Close()
}

func cameraKey(data any) string {
	switch v := data.(type) {
	case models.Detection:
		return fmt.Sprint(v.CameraID)
	case *models.Detection:
		return fmt.Sprint(v.CameraID)
	case models.FrameProcessedEvent:
		return fmt.Sprint(v.CameraID)
	case models.AlertEvent:
		return fmt.Sprint(v.CameraID)
	}
	return ""
}
