// Package events provides NATS audit event publishing for admin-gateway-service
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
)

const (
	auditStream       = "ADMIN_AUDIT"
	subjectFieldEdit  = "admin.audit.field_edit"
	subjectBulkDelete = "admin.audit.bulk_delete"
)

// AuditEvent records one admin mutation for the audit trail.
type AuditEvent struct {
	EventID   string      `json:"eventId"`
	EventType string      `json:"eventType"`
	TenantID  string      `json:"tenantId"`
	Timestamp time.Time   `json:"timestamp"`
	Resource  string      `json:"resource"`
	RecordID  string      `json:"recordId,omitempty"`
	Field     string      `json:"field,omitempty"`
	Value     interface{} `json:"value,omitempty"`
	RecordIDs []string    `json:"recordIds,omitempty"`
	Outcome   string      `json:"outcome"`
}

// AuditPublisher publishes admin mutations to JetStream. A nil publisher is
// safe to call; audit is best-effort and never blocks the mutation path.
type AuditPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *logrus.Entry
}

// NewAuditPublisher connects to NATS and ensures the audit stream exists.
func NewAuditPublisher(natsURL string, logger *logrus.Logger) (*AuditPublisher, error) {
	if natsURL == "" {
		return nil, fmt.Errorf("NATS URL is required")
	}

	log := logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	nc, err := nats.Connect(natsURL,
		nats.Name("admin-gateway-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.WithError(err).Warn("NATS disconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	p := &AuditPublisher{
		nc:     nc,
		js:     js,
		logger: log.WithField("component", "audit-events"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.ensureStream(ctx); err != nil {
		p.logger.WithError(err).Warn("Failed to ensure audit stream exists")
	}

	return p, nil
}

func (p *AuditPublisher) ensureStream(ctx context.Context) error {
	_, err := p.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      auditStream,
		Subjects:  []string{"admin.audit.>"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    30 * 24 * time.Hour,
		Storage:   jetstream.FileStorage,
	})
	return err
}

// PublishFieldEdit records one completed inline edit.
func (p *AuditPublisher) PublishFieldEdit(ctx context.Context, tenantID, resource, recordID, field string, value interface{}, outcome string) {
	if p == nil {
		return
	}
	p.publish(ctx, subjectFieldEdit, AuditEvent{
		EventType: "admin.field_edit",
		TenantID:  tenantID,
		Timestamp: time.Now().UTC(),
		Resource:  resource,
		RecordID:  recordID,
		Field:     field,
		Value:     value,
		Outcome:   outcome,
	})
}

// PublishBulkDelete records one completed bulk delete.
func (p *AuditPublisher) PublishBulkDelete(ctx context.Context, tenantID, resource string, recordIDs []string, outcome string) {
	if p == nil {
		return
	}
	p.publish(ctx, subjectBulkDelete, AuditEvent{
		EventType: "admin.bulk_delete",
		TenantID:  tenantID,
		Timestamp: time.Now().UTC(),
		Resource:  resource,
		RecordIDs: recordIDs,
		Outcome:   outcome,
	})
}

func (p *AuditPublisher) publish(ctx context.Context, subject string, event AuditEvent) {
	event.EventID = uuid.NewString()
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.WithError(err).Error("Failed to marshal audit event")
		return
	}
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		p.logger.WithFields(logrus.Fields{
			"subject":  subject,
			"resource": event.Resource,
		}).WithError(err).Error("Failed to publish audit event")
		return
	}
	p.logger.WithFields(logrus.Fields{
		"subject":  subject,
		"resource": event.Resource,
		"tenantId": event.TenantID,
	}).Info("Published audit event")
}

// Close drains the NATS connection.
func (p *AuditPublisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	p.nc.Close()
}
