package notification

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/zap"
)

const topicBookingEvents = "booking.events"

// Sink receives every published event.
type Sink interface {
	Deliver(ev Event)
}

// Dispatcher publishes events on an in-process watermill channel and fans
// them out to sinks on a separate goroutine, so callers never block on
// delivery.
type Dispatcher struct {
	pubsub *gochannel.GoChannel
	log    *zap.Logger
	wg     sync.WaitGroup
}

func NewDispatcher(log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 256},
			newWatermillLogger(log),
		),
		log: log,
	}
}

func (d *Dispatcher) Notify(_ context.Context, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		d.log.Warn("notification encode failed", zap.String("type", ev.Type), zap.Error(err))
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := d.pubsub.Publish(topicBookingEvents, msg); err != nil {
		d.log.Warn("notification publish failed",
			zap.String("type", ev.Type),
			zap.String("booking_id", ev.BookingID),
			zap.Error(err))
	}
}

// Start subscribes before returning, then delivers in the background until
// ctx is done or the dispatcher is closed.
func (d *Dispatcher) Start(ctx context.Context, sinks ...Sink) error {
	messages, err := d.pubsub.Subscribe(ctx, topicBookingEvents)
	if err != nil {
		return err
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for msg := range messages {
			var ev Event
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				d.log.Warn("notification decode failed", zap.String("message_uuid", msg.UUID), zap.Error(err))
				msg.Ack()
				continue
			}
			for _, s := range sinks {
				s.Deliver(ev)
			}
			msg.Ack()
		}
	}()
	return nil
}

func (d *Dispatcher) Close() error {
	err := d.pubsub.Close()
	d.wg.Wait()
	return err
}

// watermillLogger routes watermill's internal logging through zap.
type watermillLogger struct {
	log *zap.Logger
}

func newWatermillLogger(log *zap.Logger) watermill.LoggerAdapter {
	return watermillLogger{log: log.Named("watermill")}
}

func (l watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.log.Error(msg, append(zapFields(fields), zap.Error(err))...)
}

func (l watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.log.Info(msg, zapFields(fields)...)
}

func (l watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.log.Debug(msg, zapFields(fields)...)
}

func (l watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.log.Debug(msg, zapFields(fields)...)
}

func (l watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return watermillLogger{log: l.log.With(zapFields(fields)...)}
}

func zapFields(fields watermill.LogFields) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}
