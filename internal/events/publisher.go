// Package events publishes reservation lifecycle events to Kafka for
// downstream consumers (analytics, audit). Publishing is best-effort and
// never fails the operation that produced the event.
package events

import (
	"context"
	"encoding/json"
	"time"

	"lockerd/pkg/kafka"
	"lockerd/pkg/logger"
	"lockerd/pkg/model"
)

const (
	TypeReservationConfirmed = "reservation.confirmed"
	TypeReservationCancelled = "reservation.cancelled"
	TypeReservationExpired   = "reservation.expired"
	TypeReservationReminder  = "reservation.reminder"
)

type Publisher interface {
	ReservationEvent(ctx context.Context, eventType string, reservation *model.Reservation)
	Close() error
}

type ReservationEvent struct {
	Type          string    `json:"type"`
	ReservationID string    `json:"reservation_id"`
	LockerID      string    `json:"locker_id"`
	UserID        string    `json:"user_id"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type kafkaPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

// NewPublisher returns a Kafka-backed publisher, or a no-op one when no
// brokers are configured.
func NewPublisher(brokers []string, topic string, log *logger.Logger) (Publisher, error) {
	if len(brokers) == 0 {
		log.Info("No Kafka brokers configured, reservation events disabled")
		return noopPublisher{}, nil
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: brokers,
		Topic:   topic,
	})
	if err != nil {
		return nil, err
	}

	log.Info("Reservation event publisher initialized", "topic", topic, "brokers", brokers)
	return &kafkaPublisher{producer: producer, log: log}, nil
}

func (p *kafkaPublisher) ReservationEvent(ctx context.Context, eventType string, reservation *model.Reservation) {
	event := ReservationEvent{
		Type:          eventType,
		ReservationID: reservation.ID,
		LockerID:      reservation.LockerID,
		UserID:        reservation.UserID,
		StartDate:     reservation.StartDate,
		EndDate:       reservation.EndDate,
		OccurredAt:    time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Error("Failed to marshal reservation event", "type", eventType, "error", err)
		return
	}

	// Keyed by locker so events for one locker stay ordered.
	err = p.producer.Publish(ctx, kafka.Message{
		Key:       reservation.LockerID,
		Value:     payload,
		Timestamp: event.OccurredAt,
	})
	if err != nil {
		p.log.Error("Failed to publish reservation event",
			"type", eventType,
			"reservation_id", reservation.ID,
			"error", err,
		)
	}
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

// NewNoopPublisher returns a publisher that discards every event.
func NewNoopPublisher() Publisher { return noopPublisher{} }

type noopPublisher struct{}

func (noopPublisher) ReservationEvent(context.Context, string, *model.Reservation) {}

func (noopPublisher) Close() error { return nil }
