// Package mqtt serves lineup requests over MQTT using Eclipse Paho.
package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	Broker     string `json:"broker" yaml:"broker"`
	ClientID   string `json:"client_id" yaml:"client_id"`
	Username   string `json:"username" yaml:"username"`
	Password   string `json:"password" yaml:"password"`
	AuthMethod string `json:"auth_method" yaml:"auth_method"`
	// RequestTopic is subscribed for incoming requests. The last topic level
	// is used as the request id.
	RequestTopic string `json:"request_topic" yaml:"request_topic"`
	// ResponsePrefix is joined with the request id to form the reply topic.
	ResponsePrefix string          `json:"response_prefix" yaml:"response_prefix"`
	UseTLS         bool            `json:"use_tls" yaml:"use_tls"`
	ClientCert     string          `json:"client_cert" yaml:"client_cert"`
	ClientKey      string          `json:"client_key" yaml:"client_key"`
	CABundle       string          `json:"ca_bundle" yaml:"ca_bundle"`
	QoS            map[string]byte `json:"qos" yaml:"qos"`
	LWTTopic       string          `json:"lwt_topic" yaml:"lwt_topic"`
	LWTPayload     string          `json:"lwt_payload" yaml:"lwt_payload"`
	LWTQoS         byte            `json:"lwt_qos" yaml:"lwt_qos"`
	LWTRetain      bool            `json:"lwt_retain" yaml:"lwt_retain"`
	MaxRetries     int             `json:"max_retries" yaml:"max_retries"`
	BackoffMS      int             `json:"backoff_ms" yaml:"backoff_ms"`
	TLSConfig      *tls.Config     `json:"-" yaml:"-"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "lineup-optimizer"
	}
	if c.RequestTopic == "" {
		c.RequestTopic = "lineup/request/+"
	}
	if c.ResponsePrefix == "" {
		c.ResponsePrefix = "lineup/response"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

// Validate checks mandatory fields when the transport is enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("mqtt.broker is required")
	}
	switch c.AuthMethod {
	case "", "username_password", "certificate", "both":
	default:
		return fmt.Errorf("unknown mqtt.auth_method %s", c.AuthMethod)
	}
	return nil
}

func (c Config) qos(name string) byte {
	if q, ok := c.QoS[name]; ok {
		return q
	}
	return 0
}

// pahoClient is the subset of paho.Client used by the transport.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS || cfg.AuthMethod == "certificate" || cfg.AuthMethod == "both" {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caBytes) {
		return nil, fmt.Errorf("ca bundle %s holds no certificates", c.CABundle)
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}
