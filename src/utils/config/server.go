package config

import (
	"time"

	"github.com/spf13/viper"
)

// Public REST API serving jobs, messages and user profiles
type Server struct {
	// Address the API listens on
	ListenAddress string

	// Max time a single request may take
	RequestTimeout time.Duration

	// Origins allowed by CORS, "*" allows all
	AllowedOrigins []string

	// Max size of a request body in bytes
	MaxBodySize int64
}

func setServerDefaults() {
	viper.SetDefault("Server.ListenAddress", ":3001")
	viper.SetDefault("Server.RequestTimeout", "30s")
	viper.SetDefault("Server.AllowedOrigins", []string{"*"})
	viper.SetDefault("Server.MaxBodySize", "10485760")
}
