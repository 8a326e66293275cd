package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel string
	HTTPAddr string

	TelegramApiToken string
	TelegramChatID   string

	BinanceApiKey    string
	BinanceSecretKey string
	BinanceUrl       string
	BinanceStreamUrl string

	Symbol     string
	BaseAsset  string
	QuoteAsset string

	MinProfitPercent float64
	FeeRate          float64
	MaxOrderValue    float64
	MinOrderQuantity float64

	PositionAlertThreshold time.Duration
	PositionCheckInterval  time.Duration

	DB    *DB
	Mongo *Mongo
	Loki  string
}

type DB struct {
	Host     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type Mongo struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

var ErrEnvNotFound = errors.New("err env not found")

func (a *App) loadConfig(confFileName string) error {
	var cfg Config
	var db DB
	var mongo Mongo

	err := godotenv.Load(confFileName)
	if err != nil {
		return err
	}

	if cfg.LogLevel, err = cfg.set("LOG_LEVEL"); err != nil {
		return err
	}

	if cfg.HTTPAddr, err = cfg.set("HTTP_ADDR"); err != nil {
		return err
	}

	if cfg.TelegramApiToken, err = cfg.set("TELEGRAM_API_TOKEN"); err != nil {
		return err
	}

	if cfg.TelegramChatID, err = cfg.set("TELEGRAM_CHAT_ID"); err != nil {
		return err
	}

	if cfg.BinanceApiKey, err = cfg.set("BINANCE_API_KEY"); err != nil {
		return err
	}

	if cfg.BinanceSecretKey, err = cfg.set("BINANCE_SECRET_KEY"); err != nil {
		return err
	}

	if cfg.BinanceUrl, err = cfg.set("BINANCE_URL"); err != nil {
		return err
	}

	if cfg.BinanceStreamUrl, err = cfg.set("BINANCE_STREAM_URL"); err != nil {
		return err
	}

	if cfg.Symbol, err = cfg.set("SYMBOL"); err != nil {
		return err
	}

	if cfg.BaseAsset, err = cfg.set("BASE_ASSET"); err != nil {
		return err
	}

	if cfg.QuoteAsset, err = cfg.set("QUOTE_ASSET"); err != nil {
		return err
	}

	if cfg.MinProfitPercent, err = cfg.setFloat("MIN_PROFIT_PERCENT"); err != nil {
		return err
	}

	if cfg.FeeRate, err = cfg.setFloat("FEE_RATE"); err != nil {
		return err
	}

	if cfg.MaxOrderValue, err = cfg.setFloat("MAX_ORDER_VALUE"); err != nil {
		return err
	}

	if cfg.MinOrderQuantity, err = cfg.setFloat("MIN_ORDER_QUANTITY"); err != nil {
		return err
	}

	if cfg.PositionAlertThreshold, err = cfg.setDuration("POSITION_ALERT_THRESHOLD"); err != nil {
		return err
	}

	if cfg.PositionCheckInterval, err = cfg.setDuration("POSITION_CHECK_INTERVAL"); err != nil {
		return err
	}

	if cfg.Loki, err = cfg.set("LOKI_ADDR"); err != nil {
		return err
	}

	if db.Host, err = cfg.set("PG_HOST"); err != nil {
		return err
	}

	if db.User, err = cfg.set("PG_USER"); err != nil {
		return err
	}

	if db.Password, err = cfg.set("PG_PASSWORD"); err != nil {
		return err
	}

	if db.DBName, err = cfg.set("PG_DBNAME"); err != nil {
		return err
	}

	if db.SSLMode, err = cfg.set("PG_SSL_MODE"); err != nil {
		return err
	}

	if mongo.Host, err = cfg.set("MONGO_HOST"); err != nil {
		return err
	}

	if mongo.Port, err = cfg.set("MONGO_PORT"); err != nil {
		return err
	}

	if mongo.User, err = cfg.set("MONGO_USER"); err != nil {
		return err
	}

	if mongo.Password, err = cfg.set("MONGO_PASSWORD"); err != nil {
		return err
	}

	if mongo.DBName, err = cfg.set("MONGO_DBNAME"); err != nil {
		return err
	}

	cfg.DB = &db
	cfg.Mongo = &mongo

	a.Config = &cfg

	return nil
}

func (d *DB) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.User,
		d.Password,
		d.DBName,
		d.SSLMode)
}

func (m *Mongo) DSN() string {
	return fmt.Sprintf("mongodb://%s:%s", m.Host, m.Port)
}

func (c *Config) set(key string) (string, error) {
	if os.Getenv(key) == "" {
		return "", ErrEnvNotFound
	}

	return os.Getenv(key), nil
}

func (c *Config) setFloat(key string) (float64, error) {
	raw, err := c.set(key)
	if err != nil {
		return 0, err
	}

	return strconv.ParseFloat(raw, 64)
}

func (c *Config) setDuration(key string) (time.Duration, error) {
	raw, err := c.set(key)
	if err != nil {
		return 0, err
	}

	return time.ParseDuration(raw)
}
