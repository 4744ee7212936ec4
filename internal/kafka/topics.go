package kafka

import (
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TopicBookingCreated   = "tablely.booking.created"
	TopicBookingConfirmed = "tablely.booking.confirmed"
	TopicBookingExpired   = "tablely.booking.expired"
	TopicBookingCancelled = "tablely.booking.cancelled"
	TopicWaitlistJoined   = "tablely.waitlist.joined"
)

// RequiredTopics lists every topic the service publishes to.
func RequiredTopics() []string {
	return []string{
		TopicBookingCreated,
		TopicBookingConfirmed,
		TopicBookingExpired,
		TopicBookingCancelled,
		TopicWaitlistJoined,
	}
}

// EnsureTopicsExist creates the given topics if the broker doesn't have them
// yet. Failures on individual topics are logged and skipped.
func EnsureTopicsExist(brokers []string, topics []string) error {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	for _, topic := range topics {
		err = controllerConn.CreateTopics(kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
		if err != nil {
			if err.Error() == "kafka server: topic already exists" {
				continue
			}
			log.Printf("Error creating topic %s: %v", topic, err)
		}
	}

	// Give the broker a moment to settle newly created topics.
	time.Sleep(1 * time.Second)
	return nil
}
