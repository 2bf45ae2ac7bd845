package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/absmach/baseliner/pkg/mqtt"
)

// PubSub is a mock implementation of the mqtt.PubSub interface
type PubSub struct {
	mock.Mock
}

// NewPubSub creates a PubSub mock and registers a cleanup function to
// assert its expectations
func NewPubSub(t interface {
	mock.TestingT
	Cleanup(func())
}) *PubSub {
	m := &PubSub{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// Publish publishes a message to the specified topic
func (m *PubSub) Publish(ctx context.Context, topic string, msg any) error {
	args := m.Called(ctx, topic, msg)
	return args.Error(0)
}

// Subscribe subscribes to messages on the specified topic
func (m *PubSub) Subscribe(ctx context.Context, topic string, handler mqtt.Handler) error {
	args := m.Called(ctx, topic, handler)
	return args.Error(0)
}

// Unsubscribe removes the subscription for the specified topic
func (m *PubSub) Unsubscribe(ctx context.Context, topic string) error {
	args := m.Called(ctx, topic)
	return args.Error(0)
}

// Disconnect closes the MQTT connection
func (m *PubSub) Disconnect(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
