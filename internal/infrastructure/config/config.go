package config

import "time"

// Config holds all configuration for the application
type Config struct {
	Environment string         `mapstructure:"environment"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Logger      LoggerConfig   `mapstructure:"logger"`
	Acquirer    AcquirerConfig `mapstructure:"acquirer"`
	Product     ProductConfig  `mapstructure:"product"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"readTimeout"`       // seconds
	WriteTimeout      time.Duration `mapstructure:"writeTimeout"`      // seconds
	IdleTimeout       time.Duration `mapstructure:"idleTimeout"`       // seconds
	ReadHeaderTimeout time.Duration `mapstructure:"readHeaderTimeout"` // seconds
	ShutdownTimeout   time.Duration `mapstructure:"shutdownTimeout"`   // seconds
}

// DatabaseConfig contains transaction store settings. Driver "memory" selects
// the in-process store; "postgres" selects the persistent one.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslMode"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"` // minutes
	ConnMaxIdleTime time.Duration `mapstructure:"connMaxIdleTime"` // minutes
	QueryTimeout    time.Duration `mapstructure:"queryTimeout"`    // seconds
}

// LoggerConfig contains logger settings
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	CallerInfo bool   `mapstructure:"callerInfo"`
}

// AcquirerConfig contains the acquiring processor settings
type AcquirerConfig struct {
	APIURL          string        `mapstructure:"apiUrl"`
	APIKey          string        `mapstructure:"apiKey"`
	S2SToken        string        `mapstructure:"s2sToken"`
	BrandID         string        `mapstructure:"brandId"`
	SuccessRedirect string        `mapstructure:"successRedirect"`
	FailureRedirect string        `mapstructure:"failureRedirect"`
	RequestTimeout  time.Duration `mapstructure:"requestTimeout"` // seconds
}

// ProductConfig describes the fixed-price product being sold
type ProductConfig struct {
	Name  string `mapstructure:"name"`
	Price int64  `mapstructure:"price"` // minor units
}
