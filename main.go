package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"fixgateway/internal/brokerage"
	"fixgateway/internal/fix"
	"fixgateway/internal/model"
	"fixgateway/internal/repositories"
	"fixgateway/pkg/kafka/producer"
	"fixgateway/pkg/logs"
	"fixgateway/pkg/metrics"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logs.Log.Debug().Msg("no .env file found, relying on the environment")
	}

	logs.InitLogger(logs.GATEWAY)

	config := configFromEnv()

	orders, err := repositories.NewOrderRepository()
	if err != nil {
		logs.Log.Fatal().Err(err).Msg("failed to create order store")
	}

	var opts []brokerage.Option
	if broker := os.Getenv("KAFKA_BROKER"); broker != "" {
		journal, err := producer.New(strings.Split(broker, ","))
		if err != nil {
			logs.Log.Fatal().Err(err).Msg("failed to connect to kafka")
		}

		topic := os.Getenv("KAFKA_ORDER_EVENTS_TOPIC")
		if topic == "" {
			topic = "ORDER_EVENTS"
		}
		opts = append(opts, brokerage.WithJournal(journal, topic))
	}

	b := brokerage.New(config, orders, opts...)
	b.SetErrorListener(func(err model.FixError) {
		logs.Log.Fatal().Str("error", err.Message).Msg("shutting down on unrecoverable FIX error")
	})

	if err := b.Connect(); err != nil {
		logs.Log.Fatal().Err(err).Msg("failed to connect")
	}

	go func() {
		if err := metrics.ListenAndServeMetrics(envOr("METRICS_ADDR", ":2112")); err != nil {
			logs.Log.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	server := opsServer(b)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logs.Log.Error().Err(err).Msg("ops server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logs.Log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logs.Log.Error().Err(err).Msg("ops server shutdown failed")
	}

	b.Disconnect()
	if err := b.Close(); err != nil {
		logs.Log.Error().Err(err).Msg("close failed")
	}
}

func opsServer(b *brokerage.Brokerage) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		if !b.IsConnected() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "disconnected"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	engine.GET("/sessions", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"connected": b.IsConnected(),
			"sessions":  b.SessionCount(),
		})
	})

	engine.GET("/orders/open", func(c *gin.Context) {
		c.JSON(http.StatusOK, b.GetOpenOrders())
	})

	return &http.Server{
		Addr:    envOr("OPS_ADDR", ":8080"),
		Handler: engine,
	}
}

func configFromEnv() *fix.Config {
	config := fix.NewConfig()
	config.SenderCompID = os.Getenv("FIX_SENDER_COMP_ID")
	config.TargetCompID = os.Getenv("FIX_TARGET_COMP_ID")
	config.MarketDataSenderCompID = os.Getenv("FIX_MD_SENDER_COMP_ID")
	config.MarketDataTargetCompID = os.Getenv("FIX_MD_TARGET_COMP_ID")
	config.Host = os.Getenv("FIX_HOST")
	config.OnBehalfOfCompID = os.Getenv("FIX_ON_BEHALF_OF_COMP_ID")
	config.Account = os.Getenv("FIX_ACCOUNT")
	config.DataDictionaryPath = os.Getenv("FIX_DATA_DICTIONARY")
	config.LogFixMessages = os.Getenv("FIX_LOG_MESSAGES") == "true"

	if port, err := strconv.Atoi(os.Getenv("FIX_PORT")); err == nil {
		config.Port = port
	}
	if heartbeat, err := strconv.Atoi(os.Getenv("FIX_HEARTBEAT_INTERVAL")); err == nil {
		config.HeartbeatInterval = heartbeat
	}
	return config
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
