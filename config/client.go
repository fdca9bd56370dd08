package config

import "time"

// ClientConfig configures the terminal front end.
type ClientConfig struct {
	APIURL    string
	Timeout   time.Duration
	LogLevel  string
	LogFormat string
}

func LoadClient(envPath ...string) (*ClientConfig, error) {
	if err := loadEnv(envPath...); err != nil {
		return nil, err
	}

	cfg := &ClientConfig{
		APIURL:    getEnv("IMOVEIS_API_URL", "http://localhost:8080/api/imoveis"),
		LogLevel:  getEnv("LOG_LEVEL", "warn"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.Timeout, err = getDuration("CLIENT_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	return cfg, nil
}
