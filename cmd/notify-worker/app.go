package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fofoo/freightdesk/config"
	"github.com/fofoo/freightdesk/internal/broker/kafka"
	"github.com/fofoo/freightdesk/internal/mailer"
	"github.com/fofoo/freightdesk/internal/services/notify"
	"github.com/fofoo/freightdesk/internal/storage/pgfreight"
)

type kafkaConsumer interface {
	Consume(ctx context.Context, handler func(key, value []byte) error) error
	Close() error
}

type workerFactories struct {
	newStorage  func(cfg *config.Config) (repo notify.NotificationsRepo, closeFn func(), err error)
	newConsumer func(cfg *config.Config) kafkaConsumer
	newSender   func(cfg *config.Config) notify.Sender
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newStorage: func(cfg *config.Config) (notify.NotificationsRepo, func(), error) {
			sslMode := cfg.Database.SSLMode
			if sslMode == "" {
				sslMode = "disable"
			}
			connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
				cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
			st, err := pgfreight.New(connString)
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newConsumer: func(cfg *config.Config) kafkaConsumer {
			topic := cfg.Kafka.NotificationsTopicName
			if topic == "" {
				topic = "notifications.requested"
			}
			group := cfg.FreightDesk.KafkaConsumerGroup
			if group == "" {
				group = "notify-worker"
			}
			brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
			return kafka.NewConsumer(brokers, topic, group)
		},
		newSender: func(cfg *config.Config) notify.Sender {
			return mailer.New(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From, cfg.SMTP.FromName)
		},
	}
}

func RunNotifyWorker(ctx context.Context, cfg *config.Config, f workerFactories) error {
	repo, closeFn, err := f.newStorage(cfg)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	consumer := f.newConsumer(cfg)
	defer func() { _ = consumer.Close() }()

	log := slog.Default()
	worker := notify.NewWorker(repo, f.newSender(cfg), log)

	httpAddr := cfg.FreightDesk.WorkerHTTPAddr
	if httpAddr == "" {
		httpAddr = ":8082"
	}
	go func() {
		if err := runWorkerHTTPServer(ctx, workerHTTPOpts{httpAddr: httpAddr, worker: worker}); err != nil {
			log.Error("worker http server stopped", "err", err)
		}
	}()

	log.Info("notify worker consuming", "group", cfg.FreightDesk.KafkaConsumerGroup)
	err = consumer.Consume(ctx, func(key, value []byte) error {
		return worker.Handle(ctx, key, value)
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
