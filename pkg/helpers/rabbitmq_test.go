package helpers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONPublishing(t *testing.T) {
	msg, err := NewJSONPublishing("identity", map[string]string{"to": "a@x.com"})
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "identity", msg.AppId)
	_, err = uuid.Parse(msg.MessageId)
	assert.NoError(t, err)

	var body map[string]string
	require.NoError(t, json.Unmarshal(msg.Body, &body))
	assert.Equal(t, "a@x.com", body["to"])
}

func TestNewJSONPublishingRejectsUnencodable(t *testing.T) {
	_, err := NewJSONPublishing("identity", make(chan int))
	assert.Error(t, err)
}

func TestClosedPublisher(t *testing.T) {
	p := &RabbitPublisher{Queue: "emails"}
	p.Close()
	assert.ErrorIs(t, p.PublishJSON(context.Background(), map[string]string{}), ErrPublisherClosed)

	var nilPub *RabbitPublisher
	nilPub.Close()
}
