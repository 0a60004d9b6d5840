package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gitadityakumar/LiveNews/internal/common/config"
	"github.com/gitadityakumar/LiveNews/internal/common/messaging"
	"github.com/gitadityakumar/LiveNews/internal/discovery"
	"github.com/gitadityakumar/LiveNews/pkg/models"
	"github.com/sirupsen/logrus"
)

// Runner is the part of discovery.Controller the worker drives.
type Runner interface {
	Run(ctx context.Context, channelID, pageURL string) (discovery.Session, error)
	Reload(ctx context.Context, channelID string) (discovery.Session, error)
}

// DiscoveryService consumes reload commands and runs one discovery session
// per command.
type DiscoveryService struct {
	rabbitCfg *config.RabbitMQConfig
	log       *logrus.Logger
	message   messaging.Client
	runner    Runner
	events    *EventPublisher

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewDiscoveryService creates a new DiscoveryService
func NewDiscoveryService(rabbitCfg *config.RabbitMQConfig, logger *logrus.Logger, msg messaging.Client, runner Runner, events *EventPublisher) *DiscoveryService {
	return &DiscoveryService{
		rabbitCfg: rabbitCfg,
		log:       logger,
		message:   msg,
		runner:    runner,
		events:    events,
	}
}

// Start declares the queues and begins consuming commands. It returns once
// the consumer is registered.
func (s *DiscoveryService) Start() error {
	s.ctx, s.cancelFunc = context.WithCancel(context.Background())

	if err := s.setupMessaging(); err != nil {
		return fmt.Errorf("failed to set up messaging: %w", err)
	}

	return s.message.Consume(s.ctx, s.rabbitCfg.Queue.Discovery, func(msg []byte, routingKey string) error {
		return s.handleCommand(msg)
	})
}

// Stop cancels every running session and waits for them to return.
func (s *DiscoveryService) Stop() {
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	s.wg.Wait()

	s.log.WithField("component", "service").Info("Discovery service stopped gracefully")
}

func (s *DiscoveryService) setupMessaging() error {
	queues := []struct {
		name        string
		routingKeys []string
	}{
		{name: s.rabbitCfg.Queue.Discovery, routingKeys: []string{config.RoutingCommandDiscovery}},
		{name: s.rabbitCfg.Queue.Log, routingKeys: []string{config.RoutingLogDiscovery}},
	}

	for _, q := range queues {
		if err := s.message.DeclareQueue(q.name); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", q.name, err)
		}

		for _, key := range q.routingKeys {
			if err := s.message.BindQueue(q.name, s.rabbitCfg.Exchange, key); err != nil {
				return fmt.Errorf("failed to bind queue %s to exchange %s with key %s: %w", q.name, s.rabbitCfg.Exchange, key, err)
			}
		}
	}

	return nil
}

// handleCommand never returns an error for bad input: a command that cannot
// be decoded would be redelivered forever.
func (s *DiscoveryService) handleCommand(msg []byte) error {
	entry := s.log.WithField("component", "command_handler")

	var command models.ReloadCommand
	if err := json.Unmarshal(msg, &command); err != nil {
		entry.WithError(err).Warn("Dropping malformed command")
		return nil
	}

	entry = entry.WithFields(logrus.Fields{
		"action":     command.Action,
		"channel_id": command.Data.ChannelID,
	})

	if command.Action != models.ReloadAction {
		entry.Warn("Dropping unknown command")
		return nil
	}

	if s.ctx.Err() != nil {
		entry.Info("Service stopping, ignoring command")
		return nil
	}

	entry.Info("Received command")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.discover(s.ctx, command.Data)
	}()

	return nil
}

func (s *DiscoveryService) discover(ctx context.Context, data models.ReloadData) {
	entry := s.log.WithFields(logrus.Fields{
		"channel_id": data.ChannelID,
		"page_url":   data.PageURL,
		"component":  "discovery",
	})

	var (
		sess discovery.Session
		err  error
	)
	if data.PageURL == "" && data.ChannelID != "" {
		sess, err = s.runner.Reload(ctx, data.ChannelID)
	} else {
		sess, err = s.runner.Run(ctx, data.ChannelID, data.PageURL)
	}

	switch {
	case err == nil:
		entry.WithField("state", sess.State.String()).Debug("Session finished")
	case errors.Is(err, discovery.ErrUnmappedChannel):
		entry.Debug("Channel has no discovery page")
	case errors.Is(err, discovery.ErrSessionActive):
		entry.Info("Discovery already running for channel")
	case errors.Is(err, context.Canceled):
		entry.Info("Discovery cancelled")
	default:
		entry.WithError(err).Error("Discovery session failed")
		if sess.ChannelID == "" {
			sess = discovery.NewSession(data.ChannelID, data.PageURL)
		}
		s.events.Failed(sess, err)
	}
}
