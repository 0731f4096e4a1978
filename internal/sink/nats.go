package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Publisher is the part of *nats.Conn the NATS sink needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes transcripts as JSON. Interim transcripts go to
// "<subject>.interim", final ones to "<subject>.final".
type NATSSink struct {
	pub     Publisher
	subject string
	interim bool
}

func NewNATSSink(pub Publisher, subject string, interim bool) *NATSSink {
	return &NATSSink{pub: pub, subject: subject, interim: interim}
}

// DialNATS connects to the first reachable server in urls.
func DialNATS(urls []string, user, password string, logger logrus.FieldLogger) (*nats.Conn, error) {
	opts := []nats.Option{nats.Name("earshot")}
	if user != "" {
		opts = append(opts, nats.UserInfo(user, password))
	}
	nc, err := nats.Connect(strings.Join(urls, ","), opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"version": nc.ConnectedServerVersion(),
		"address": nc.ConnectedAddr(),
	}).Info("connected to NATS server")
	return nc, nil
}

func (n *NATSSink) Name() string { return "nats" }

func (n *NATSSink) Wants(t Transcript) bool { return t.Final || n.interim }

func (n *NATSSink) Deliver(_ context.Context, t Transcript) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return n.pub.Publish(n.Subject(t), data)
}

// Subject returns the subject t is published on.
func (n *NATSSink) Subject(t Transcript) string {
	if t.Final {
		return n.subject + ".final"
	}
	return n.subject + ".interim"
}
