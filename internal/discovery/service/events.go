package service

import (
	"github.com/gitadityakumar/LiveNews/internal/common/config"
	"github.com/gitadityakumar/LiveNews/internal/common/messaging"
	"github.com/gitadityakumar/LiveNews/internal/discovery"
	"github.com/gitadityakumar/LiveNews/pkg/models"
	"github.com/sirupsen/logrus"
)

// EventPublisher turns session progress into DiscoveryEvents on the log
// routing key. It satisfies discovery.Notifier.
type EventPublisher struct {
	message  messaging.Client
	exchange string
	log      *logrus.Logger
}

func NewEventPublisher(msg messaging.Client, exchange string, logger *logrus.Logger) *EventPublisher {
	return &EventPublisher{message: msg, exchange: exchange, log: logger}
}

func (p *EventPublisher) ScanStarted(s discovery.Session) {
	p.publish(event(models.DiscoveryStarted, s))
}

func (p *EventPublisher) StreamUpdated(s discovery.Session) {
	p.publish(event(models.DiscoveryCaptured, s))
}

func (p *EventPublisher) NoStreamDetected(s discovery.Session) {
	p.publish(event(models.DiscoveryTimedOut, s))
}

// Failed reports a session that could not run to a capture or a timeout.
func (p *EventPublisher) Failed(s discovery.Session, err error) {
	ev := event(models.DiscoveryFailed, s)
	if err != nil {
		ev.Error = err.Error()
	}
	p.publish(ev)
}

func (p *EventPublisher) publish(ev models.DiscoveryEvent) {
	if err := p.message.PublishJSON(p.exchange, config.RoutingLogDiscovery, ev); err != nil {
		p.log.WithFields(logrus.Fields{
			"status":     ev.Status,
			"channel_id": ev.ChannelID,
			"component":  "messaging",
		}).WithError(err).Error("Failed to publish discovery event")
	}
}

func event(status string, s discovery.Session) models.DiscoveryEvent {
	return models.DiscoveryEvent{
		Status:    status,
		SessionID: s.ID,
		ChannelID: s.ChannelID,
		PageURL:   s.PageURL,
		URL:       s.URL,
	}
}
