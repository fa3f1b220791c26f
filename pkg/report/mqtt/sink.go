package mqtt

import (
	"context"
	"errors"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/freqmeter/pkg/report/msgs"
)

// DefaultPublishTimeout bounds how long a report waits for a publish.
const DefaultPublishTimeout = 100 * time.Millisecond

// ErrNotConnected indicates the broker is not connected.
var ErrNotConnected = errors.New("MQTT not connected")

// Sink publishes readings and the retained meta of a meter.
type Sink struct {
	Queue          *Queue
	Meta           msgs.Meta
	PublishTimeout time.Duration

	metaJSON []byte
}

// NewSink creates a Sink connecting to the broker. The broker clears the
// retained meta when the meter disappears.
func NewSink(brokerURL string, meta msgs.Meta) (*Sink, error) {
	opts, prefix, err := ParseBrokerURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(Topic(prefix, meta.ID, KindMeta), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("freqmeter:" + meta.ID)
	}
	return NewSinkWith(NewQueue(opts, prefix), meta)
}

// NewSinkWith creates a Sink over an existing Queue.
func NewSinkWith(q *Queue, meta msgs.Meta) (*Sink, error) {
	metaJSON, err := meta.Encode()
	if err != nil {
		return nil, err
	}
	s := &Sink{
		Queue:          q,
		Meta:           meta,
		PublishTimeout: DefaultPublishTimeout,
		metaJSON:       metaJSON,
	}
	q.OnConnect = s.publishMeta
	return s, nil
}

// Name implements Named.
func (s *Sink) Name() string {
	return "mqtt"
}

// Report implements report.Sink.
func (s *Sink) Report(ctx context.Context, r *msgs.Reading) error {
	if !s.Queue.Client.IsConnected() {
		return ErrNotConnected
	}
	data, err := r.Encode()
	if err != nil {
		return err
	}
	token := s.Queue.publish(s.Meta.ID, KindReading, data, 0, false)
	if token.WaitTimeout(s.PublishTimeout) {
		return token.Error()
	}
	return nil
}

// Run implements Runnable.
func (s *Sink) Run(ctx context.Context) error {
	token := s.Queue.Connect()
	go func() {
		if token.Wait(); token.Error() != nil {
			glog.Errorf("MQTT connect error: %v", token.Error())
		}
	}()
	<-ctx.Done()
	s.Queue.publish(s.Meta.ID, KindMeta, nil, 1, true).WaitTimeout(s.PublishTimeout)
	s.Queue.Close()
	return ctx.Err()
}

func (s *Sink) publishMeta() {
	s.Queue.publish(s.Meta.ID, KindMeta, s.metaJSON, 1, true)
}

// ReadingHandler receives decoded readings.
type ReadingHandler func(id string, r *msgs.Reading)

// MetaHandler receives meter meta. meta is nil when the meter is gone.
type MetaHandler func(id string, meta *msgs.Meta)

// SubscribeReadings subscribes the readings of meter id, or of all meters
// when id is empty.
func SubscribeReadings(q *Queue, id string, handler ReadingHandler) paho.Token {
	if id == "" {
		id = AnyMeter
	}
	return q.subscribe(id, KindReading, func(id string, payload []byte) {
		r, err := msgs.DecodeReading(payload)
		if err != nil {
			glog.Warningf("%s: bad reading: %v", id, err)
			return
		}
		handler(id, r)
	})
}

// SubscribeMeta subscribes the meta of all meters.
func SubscribeMeta(q *Queue, handler MetaHandler) paho.Token {
	return q.subscribe(AnyMeter, KindMeta, func(id string, payload []byte) {
		if len(payload) == 0 {
			handler(id, nil)
			return
		}
		meta, err := msgs.DecodeMeta(payload)
		if err != nil {
			glog.Warningf("%s: bad meta: %v", id, err)
			return
		}
		handler(id, meta)
	})
}
