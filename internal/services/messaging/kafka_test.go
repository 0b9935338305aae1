package messaging

import (
	"context"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tadoba-control-go/internal/models"
)

func TestKafkaSinkKeysByCamera(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		assert.Equal(t, "events", msg.Topic)
		key, err := msg.Key.Encode()
		require.NoError(t, err)
		assert.Equal(t, "7", string(key))
		return nil
	})

	sink := NewKafkaSinkWithProducer(producer, "events")
	err := sink.Mirror(models.Envelope{
		Event: models.EventDetectionCreated,
		Data:  models.Detection{ID: 1, CameraID: 7, Class: "person"},
	})
	require.NoError(t, err)
	require.NoError(t, sink.Shutdown(context.Background()))
}

func TestSubjectMapping(t *testing.T) {
	assert.Equal(t, "surveillance.detection.created", Subject("surveillance", models.EventDetectionCreated))
	assert.Equal(t, "alert.created", Subject("", models.EventAlertCreated))
}
