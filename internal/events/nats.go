// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

//go:build nats

package events

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/reelmatch/internal/config"
)

const (
	natsMaxReconnects = -1
	natsReconnectWait = 2 * time.Second
)

func natsOptions(logger watermill.LoggerAdapter) []natsgo.Option {
	return []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(natsMaxReconnects),
		natsgo.ReconnectWait(natsReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
}

func newNATSTransport(cfg *config.EventsConfig, logger watermill.LoggerAdapter) (*transport, error) {
	t := &transport{}
	url := cfg.NATSURL

	if cfg.EmbeddedServer {
		srv, err := startEmbeddedServer(cfg.StoreDir)
		if err != nil {
			return nil, err
		}
		url = srv.ClientURL()
		t.closers = append(t.closers, func() error {
			srv.Shutdown()
			srv.WaitForShutdown()
			return nil
		})
	}
	if url == "" {
		url = natsgo.DefaultURL
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOptions(logger),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		closeAll(t.closers)
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		QueueGroupPrefix: "reelmatch",
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     30 * time.Second,
		NatsOptions:      natsOptions(logger),
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			DurablePrefix: "reelmatch",
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.DeliverNew(),
				natsgo.AckExplicit(),
			},
		},
	}, logger)
	if err != nil {
		_ = pub.Close()
		closeAll(t.closers)
		return nil, fmt.Errorf("create nats subscriber: %w", err)
	}

	t.publisher, t.subscriber = pub, sub
	// Subscriber and publisher close before the embedded server.
	t.closers = append([]func() error{sub.Close, pub.Close}, t.closers...)
	return t, nil
}

// startEmbeddedServer runs a single-node JetStream server on a random port.
func startEmbeddedServer(storeDir string) (*server.Server, error) {
	ns, err := server.NewServer(&server.Options{
		ServerName: "reelmatch-events",
		Host:       "127.0.0.1",
		Port:       server.RANDOM_PORT,
		JetStream:  true,
		StoreDir:   storeDir,
		NoSigs:     true,
		MaxPayload: 1024 * 1024,
	})
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(30 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server not ready within timeout")
	}
	return ns, nil
}

func closeAll(closers []func() error) {
	for _, c := range closers {
		_ = c()
	}
}

