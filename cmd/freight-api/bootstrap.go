package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fofoo/freightdesk/config"
	"github.com/fofoo/freightdesk/internal/api/freight_api"
	"github.com/fofoo/freightdesk/internal/broker/kafka"
	"github.com/fofoo/freightdesk/internal/cache/rediscache"
	"github.com/fofoo/freightdesk/internal/pdfgen"
	"github.com/fofoo/freightdesk/internal/services/containers"
	"github.com/fofoo/freightdesk/internal/services/invoices"
	"github.com/fofoo/freightdesk/internal/services/marks"
	"github.com/fofoo/freightdesk/internal/services/notify"
	"github.com/fofoo/freightdesk/internal/services/rates"
	"github.com/fofoo/freightdesk/internal/services/trackings"
	"github.com/fofoo/freightdesk/internal/storage/pgfreight"
)

type freightAPIApp struct {
	ctx    context.Context
	cancel context.CancelFunc

	opts freightAPIOpts
	api  *freight_api.API

	closeDB func()
}

func mustBootstrapFreightAPI() *freightAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	httpAddr := cfg.FreightDesk.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	topic := cfg.Kafka.NotificationsTopicName
	if topic == "" {
		topic = "notifications.requested"
	}
	lookupTTL := time.Duration(cfg.FreightDesk.PublicLookupTTLSeconds) * time.Second
	if lookupTTL <= 0 {
		lookupTTL = 5 * time.Minute
	}
	lookupRate := int64(cfg.FreightDesk.PublicLookupRatePerMinute)
	if lookupRate <= 0 {
		lookupRate = 60
	}
	dispatchTimeout := time.Duration(cfg.FreightDesk.DispatchTimeoutSeconds) * time.Second
	if dispatchTimeout <= 0 {
		dispatchTimeout = 5 * time.Second
	}
	companyName := cfg.SMTP.FromName
	if companyName == "" {
		companyName = "FreightDesk"
	}

	sslMode := cfg.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
	st := mustOpenPostgresWithRetry(connString, 60*time.Second)

	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	rc := rediscache.New(redisAddr)
	rl := rediscache.NewRateLimiter(redisAddr)

	brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
	producer := kafka.NewProducer(brokers)

	log := slog.Default()
	dispatcher := notify.NewDispatcher(st, producer, topic, dispatchTimeout, log)
	ratesSvc := rates.New(st)

	api := freight_api.New(freight_api.Deps{
		Trackings:           trackings.New(st, rc, lookupTTL),
		Containers:          containers.New(st),
		Rates:               ratesSvc,
		Invoices:            invoices.New(st, ratesSvc, pdfgen.New(companyName, cfg.FreightDesk.PaymentPhone), dispatcher, log),
		Marks:               marks.New(st),
		Notifications:       dispatcher,
		Owners:              st,
		Limiter:             rl,
		LookupRatePerMinute: lookupRate,
		SwaggerPath:         os.Getenv("swaggerPath"),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &freightAPIApp{
		ctx:     ctx,
		cancel:  cancel,
		opts:    freightAPIOpts{httpAddr: httpAddr},
		api:     api,
		closeDB: st.Close,
	}
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgfreight.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgfreight.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func (a *freightAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.closeDB != nil {
		a.closeDB()
	}
}

func (a *freightAPIApp) Run() error {
	return runFreightAPI(a.ctx, a.opts, a.api)
}
