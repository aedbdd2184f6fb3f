package mqttingest

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/UjwalStha7/plant-monitor-backend/services/api/ingest"
	"github.com/UjwalStha7/plant-monitor-backend/services/api/metrics"
)

// Options configures the MQTT ingestion bridge.
type Options struct {
	BrokerURL string
	Topic     string
	ClientID  string
}

// Connect establishes the MQTT client connection, retrying with exponential
// backoff so the service survives a broker that is still coming up. The
// client disconnects when ctx is cancelled.
func Connect(ctx context.Context, opts Options) (mqtt.Client, error) {
	clientOpts := mqtt.NewClientOptions()
	clientOpts.AddBroker(opts.BrokerURL)
	clientOpts.SetClientID(opts.ClientID)
	clientOpts.SetCleanSession(true)
	clientOpts.SetAutoReconnect(true)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(clientOpts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.Printf("mqtt connect failed: %v", token.Error())
			return token.Error()
		}
		return nil
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return nil, err
	}

	log.Printf("connected to MQTT broker at %s", opts.BrokerURL)

	go func() {
		<-ctx.Done()
		client.Disconnect(250)
	}()

	return client, nil
}

// Bridge subscribes to a readings topic and feeds decoded payloads into the
// same ingestion pipeline the HTTP surface uses. Malformed or rejected
// payloads are logged and dropped; the subscription keeps running.
type Bridge struct {
	client mqtt.Client
	topic  string
	svc    *ingest.Service
}

// NewBridge wires a bridge over an established client.
func NewBridge(client mqtt.Client, topic string, svc *ingest.Service) *Bridge {
	return &Bridge{client: client, topic: topic, svc: svc}
}

// Run subscribes and blocks until ctx is cancelled, then unsubscribes.
func (b *Bridge) Run(ctx context.Context) {
	token := b.client.Subscribe(b.topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		b.handle(msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		log.Printf("mqtt subscribe to %s failed: %v", b.topic, token.Error())
		return
	}
	log.Printf("subscribed to MQTT topic %s", b.topic)

	<-ctx.Done()

	unsub := b.client.Unsubscribe(b.topic)
	unsub.Wait()
}

func (b *Bridge) handle(payload []byte) {
	var req ingest.SubmitRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		metrics.MQTTMessages.WithLabelValues("malformed").Inc()
		log.Printf("mqtt payload decode failed: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := b.svc.Submit(ctx, req); err != nil {
		metrics.MQTTMessages.WithLabelValues("rejected").Inc()
		log.Printf("mqtt reading rejected: %v", err)
		return
	}
	metrics.MQTTMessages.WithLabelValues("ingested").Inc()
}
