package amqp

import (
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"

	"freelanceflow/internal/events"
)

const (
	contentTypeJSON = "application/json"

	// attemptsHeader counts failed handling attempts of a message.
	attemptsHeader      = "x-attempts"
	maxDeliveryAttempts = 5
)

// toPublishing wraps an event as a persistent JSON message. The event id is
// the message id so consumers can drop redeliveries.
func toPublishing(e events.Event) (amqp091.Publishing, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp091.Publishing{
		ContentType:  contentTypeJSON,
		DeliveryMode: amqp091.Persistent,
		MessageId:    e.ID,
		Type:         string(e.Type),
		Timestamp:    e.OccurredAt,
		Body:         body,
	}, nil
}

func fromDelivery(d amqp091.Delivery) (events.Event, error) {
	return events.Decode(d.Body)
}

func failedAttempts(d amqp091.Delivery) int {
	switch n := d.Headers[attemptsHeader].(type) {
	case int32:
		return int(n)
	case int64:
		return int(n)
	case int:
		return n
	}
	return 0
}

// retryPublishing copies a delivery whose handler failed, with its attempt
// count raised by one. It returns false once the message has used up
// maxDeliveryAttempts.
func retryPublishing(d amqp091.Delivery) (amqp091.Publishing, bool) {
	attempts := failedAttempts(d) + 1
	if attempts >= maxDeliveryAttempts {
		return amqp091.Publishing{}, false
	}
	headers := amqp091.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[attemptsHeader] = int32(attempts)
	return amqp091.Publishing{
		Headers:      headers,
		ContentType:  d.ContentType,
		DeliveryMode: amqp091.Persistent,
		MessageId:    d.MessageId,
		Type:         d.Type,
		Timestamp:    d.Timestamp,
		Body:         d.Body,
	}, true
}
