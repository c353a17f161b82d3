package chargersim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// ErrAckDropped is returned when RandomAck decides to drop an acknowledgment.
var ErrAckDropped = errors.New("ack dropped")

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

func randFloat() float64 {
	rngMu.Lock()
	defer rngMu.Unlock()
	return rng.Float64()
}

// AckStrategy decides how a charger acknowledges a setpoint.
type AckStrategy interface {
	Ack(ctx context.Context, cli paho.Client, topic, commandID string) error
}

// AutoAck acknowledges every command after an optional fixed delay.
type AutoAck struct {
	Delay time.Duration
}

// Ack implements AckStrategy.
func (a AutoAck) Ack(ctx context.Context, cli paho.Client, topic, commandID string) error {
	if !sleep(ctx, a.Delay) {
		return ctx.Err()
	}
	return publishAck(cli, topic, commandID)
}

// RandomAck drops acknowledgments with probability DropRate and delays the
// others.
type RandomAck struct {
	Delay    time.Duration
	DropRate float64
}

// Ack implements AckStrategy.
func (r RandomAck) Ack(ctx context.Context, cli paho.Client, topic, commandID string) error {
	if r.DropRate > 0 && randFloat() < r.DropRate {
		return ErrAckDropped
	}
	if !sleep(ctx, r.Delay) {
		return ctx.Err()
	}
	return publishAck(cli, topic, commandID)
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

func publishAck(cli paho.Client, topic, commandID string) error {
	payload, err := json.Marshal(struct {
		CommandID string `json:"command_id"`
	}{CommandID: commandID})
	if err != nil {
		return err
	}
	token := cli.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("ack publish timeout on %s", topic)
	}
	return token.Error()
}

// AckTopic returns the topic a charger acknowledges on.
func AckTopic(prefix, chargerID string) string {
	return fmt.Sprintf("%s/%s/ack", prefix, chargerID)
}

// SetpointTopic returns the topic a charger receives setpoints on.
func SetpointTopic(prefix, chargerID string) string {
	return fmt.Sprintf("%s/%s/set", prefix, chargerID)
}
