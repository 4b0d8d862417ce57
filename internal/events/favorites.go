// Package events broadcasts favorites snapshots to Kafka so other devices
// or services can mirror the list.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/i474232898/weather-app/internal/favorites"
)

// MessageKey keys every favorites message so the topic can be compacted.
const MessageKey = "favoriteCities"

// Writer is the part of kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter returns a writer for brokers. The topic is set per
// message by the publisher.
func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// FavoritesMessage is the value of a published message.
type FavoritesMessage struct {
	Favorites   []favorites.City `json:"favorites"`
	Count       int              `json:"count"`
	PublishedAt time.Time        `json:"publishedAt"`
}

// FavoritesPublisher forwards favorites lists to Kafka from its own
// goroutine. The store delivers synchronously, so lists are queued with
// a depth of one: a list still waiting when a newer one arrives is
// replaced, and only the latest state is ever sent.
type FavoritesPublisher struct {
	writer Writer
	topic  string

	queue chan []favorites.City
	done  chan struct{}
	wg    sync.WaitGroup

	mu          sync.Mutex
	unsubscribe func()
	closed      bool
}

// NewFavoritesPublisher starts the send loop.
func NewFavoritesPublisher(w Writer, topic string) *FavoritesPublisher {
	p := &FavoritesPublisher{
		writer: w,
		topic:  topic,
		queue:  make(chan []favorites.City, 1),
		done:   make(chan struct{}),
	}
	p.wg.Add(1)
	go p.loop()
	return p
}

// Attach subscribes the publisher to s. The current list is sent at once.
func (p *FavoritesPublisher) Attach(s *favorites.Store) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if p.unsubscribe != nil {
		p.unsubscribe()
	}
	p.unsubscribe = s.Subscribe(p.enqueue)
}

// Close detaches from the store, flushes the queued list and closes the
// writer.
func (p *FavoritesPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	if p.unsubscribe != nil {
		p.unsubscribe()
	}
	close(p.done)
	p.mu.Unlock()

	p.wg.Wait()
	return p.writer.Close()
}

func (p *FavoritesPublisher) enqueue(cities []favorites.City) {
	for {
		select {
		case p.queue <- cities:
			return
		default:
		}
		select {
		case <-p.queue:
		default:
		}
	}
}

func (p *FavoritesPublisher) loop() {
	defer p.wg.Done()
	for {
		select {
		case cities := <-p.queue:
			p.deliver(cities)
		case <-p.done:
			select {
			case cities := <-p.queue:
				p.deliver(cities)
			default:
			}
			return
		}
	}
}

func (p *FavoritesPublisher) deliver(cities []favorites.City) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.send(ctx, cities); err != nil {
		log.Printf("ERROR: publishing favorites to %s: %v", p.topic, err)
	}
}

func (p *FavoritesPublisher) send(ctx context.Context, cities []favorites.City) error {
	value, err := json.Marshal(FavoritesMessage{
		Favorites:   cities,
		Count:       len(cities),
		PublishedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode favorites: %w", err)
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(MessageKey),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write favorites: %w", err)
	}
	log.Printf("INFO: published %d favorites to topic=%s", len(cities), p.topic)
	return nil
}
