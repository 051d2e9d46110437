package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"sweepDeskApp/internal/app/dto"
)

// KafkaConfig holds Kafka connection configuration
type KafkaConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
	BatchSize     int
	BatchTimeout  int
}

// EventProducer publishes session refresh events.
type EventProducer interface {
	PublishEvent(ctx context.Context, event *dto.SessionEvent) error
	Close() error
}

// EventConsumer delivers session refresh events. Offsets are committed
// explicitly: the processor calls Commit after it has applied an event, and
// a background batch committer flushes whatever accumulates so a quiet
// consumer does not hold offsets forever.
type EventConsumer interface {
	Subscribe(ctx context.Context) (<-chan *dto.SessionEvent, error)
	Commit(ctx context.Context, event *dto.SessionEvent) error
	Close() error
}

// KafkaProducer implements EventProducer using Kafka
type KafkaProducer struct {
	writer *kafka.Writer
}

// NewKafkaProducer creates a new Kafka producer
func NewKafkaProducer(config KafkaConfig) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.Hash{}, // Hash on session id keeps one session's triggers ordered
		RequiredAcks: kafka.RequireAll,
	}

	return &KafkaProducer{writer: writer}
}

// PublishEvent sends one session refresh event, keyed by session id.
func (p *KafkaProducer) PublishEvent(ctx context.Context, event *dto.SessionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.SessionID),
		Value: data,
		Time:  time.Now(),
	})
}

// Close closes the producer
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// KafkaConsumer implements EventConsumer with manual offset management.
// Fetched messages are parked in pendingMsgs keyed by event id until the
// processor acks them through Commit.
type KafkaConsumer struct {
	reader        *kafka.Reader
	topic         string
	pendingMsgs   map[string]kafka.Message
	pendingMsgsMu sync.RWMutex
	batchSize     int           // pending count that triggers a full flush on Commit
	batchTimeout  time.Duration // interval of the background flush
}

// NewKafkaConsumer creates a new Kafka consumer
func NewKafkaConsumer(config KafkaConfig) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.ConsumerGroup,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: 0, // explicit commits only
		StartOffset:    kafka.FirstOffset,
	})

	return &KafkaConsumer{
		reader:       reader,
		topic:        config.Topic,
		pendingMsgs:  make(map[string]kafka.Message),
		batchSize:    config.BatchSize,
		batchTimeout: time.Duration(config.BatchTimeout) * time.Millisecond,
	}
}

// Subscribe starts consuming and returns the event channel. The channel is
// closed when the context is cancelled or the reader fails.
func (c *KafkaConsumer) Subscribe(ctx context.Context) (<-chan *dto.SessionEvent, error) {
	eventCh := make(chan *dto.SessionEvent, 1000) // buffer absorbs bursts

	go c.startBatchCommitter(ctx)

	go func() {
		defer close(eventCh)

		for {
			select {
			case <-ctx.Done():
				return
			default:
				msg, err := c.reader.FetchMessage(ctx)
				if err != nil {
					if ctx.Err() == nil {
						log.Printf("Error fetching message: %v", err)
					}
					return
				}

				var event dto.SessionEvent
				if err := json.Unmarshal(msg.Value, &event); err != nil {
					log.Printf("Error unmarshalling session event: %v", err)
					// Commit malformed messages so the group is not stuck on them
					_ = c.reader.CommitMessages(ctx, msg)
					continue
				}

				// Events without an id still need one for ack tracking
				if event.ID == "" {
					event.ID = fmt.Sprintf("%s-%d-%d", event.SessionID, msg.Partition, msg.Offset)
				}

				// Park before delivering: an ack must always find its message
				c.pendingMsgsMu.Lock()
				c.pendingMsgs[event.ID] = msg
				pendingCount := len(c.pendingMsgs)
				c.pendingMsgsMu.Unlock()

				if pendingCount > c.batchSize*10 {
					log.Printf("Warning: %d uncommitted messages pending, batchSize is %d", pendingCount, c.batchSize)
				}

				select {
				case <-ctx.Done():
					return
				case eventCh <- &event:
				}
			}
		}
	}()

	return eventCh, nil
}

// startBatchCommitter flushes pending offsets on a timer and once more on
// shutdown.
func (c *KafkaConsumer) startBatchCommitter(ctx context.Context) {
	ticker := time.NewTicker(c.batchTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.commitAllPending(context.Background()) // original context is already cancelled
			return
		case <-ticker.C:
			c.commitAllPending(ctx)
		}
	}
}

func (c *KafkaConsumer) commitAllPending(ctx context.Context) {
	c.pendingMsgsMu.Lock()
	defer c.pendingMsgsMu.Unlock()

	if len(c.pendingMsgs) == 0 {
		return
	}

	msgs := make([]kafka.Message, 0, len(c.pendingMsgs))
	for _, msg := range c.pendingMsgs {
		msgs = append(msgs, msg)
	}

	if err := c.reader.CommitMessages(ctx, msgs...); err != nil {
		log.Printf("Error committing batch of %d messages: %v", len(msgs), err)
		return
	}

	c.pendingMsgs = make(map[string]kafka.Message)
}

// Commit acknowledges a processed event. Once the pending set reaches
// batchSize the whole set is flushed instead of one offset at a time.
func (c *KafkaConsumer) Commit(ctx context.Context, event *dto.SessionEvent) error {
	if event == nil || event.ID == "" {
		return fmt.Errorf("cannot commit nil event or event with empty ID")
	}

	c.pendingMsgsMu.Lock()
	msg, exists := c.pendingMsgs[event.ID]
	if !exists {
		c.pendingMsgsMu.Unlock()
		return fmt.Errorf("message for event %s not found in pending messages", event.ID)
	}

	if len(c.pendingMsgs) < c.batchSize {
		delete(c.pendingMsgs, event.ID)
		c.pendingMsgsMu.Unlock()

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("failed to commit message for event %s: %w", event.ID, err)
		}
		return nil
	}

	c.pendingMsgsMu.Unlock()
	c.commitAllPending(ctx)
	return nil
}

// Close flushes pending offsets and closes the reader.
func (c *KafkaConsumer) Close() error {
	c.commitAllPending(context.Background())
	return c.reader.Close()
}

var (
	_ EventProducer = (*KafkaProducer)(nil)
	_ EventConsumer = (*KafkaConsumer)(nil)
)
