package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Log         struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // json or console
		Output string `yaml:"output"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Engine struct {
		Interval       time.Duration `yaml:"interval"`        // ingestion cycle period
		CallTimeout    time.Duration `yaml:"call_timeout"`    // per external call
		VolumeWindow   int           `yaml:"volume_window"`   // detector FIFO size
		RSILookbackDay int           `yaml:"rsi_lookback_days"`
		NewsPageSize   int           `yaml:"news_page_size"`
	} `yaml:"engine"`
	Market struct {
		BaseURL string   `yaml:"base_url"`
		APIKey  string   `yaml:"api_key"`
		Symbols []string `yaml:"symbols"`
	} `yaml:"market"`
	News struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"news"`
	Sentiment struct {
		ServiceURL string        `yaml:"service_url"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"sentiment"`
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Stream struct {
		Enabled        bool          `yaml:"enabled"`
		WebSocketURL   string        `yaml:"websocket_url"`
		APIKey         string        `yaml:"api_key"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"stream"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("MARKET_API_KEY"); v != "" {
		c.Market.APIKey = v
	}
	if v := os.Getenv("NEWS_API_KEY"); v != "" {
		c.News.APIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Market.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Engine.Interval <= 0 {
		c.Engine.Interval = 60 * time.Second
	}
	if c.Engine.CallTimeout <= 0 {
		c.Engine.CallTimeout = 8 * time.Second
	}
	if c.Engine.VolumeWindow <= 0 {
		c.Engine.VolumeWindow = 11
	}
	if c.Engine.RSILookbackDay <= 0 {
		c.Engine.RSILookbackDay = 90
	}
	if c.Engine.NewsPageSize <= 0 {
		c.Engine.NewsPageSize = 10
	}
	if c.Sentiment.Timeout <= 0 {
		c.Sentiment.Timeout = 5 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Market.Symbols) == 0 {
		return fmt.Errorf("market.symbols cannot be empty")
	}
	if c.Market.BaseURL == "" {
		return fmt.Errorf("market.base_url is required")
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	if c.Stream.Enabled {
		if c.Stream.WebSocketURL == "" {
			return fmt.Errorf("stream.websocket_url is required when stream is enabled")
		}
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers are required when stream is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required when stream is enabled")
		}
	}
	return nil
}
