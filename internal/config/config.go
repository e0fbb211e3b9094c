package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config application configuration structure
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Chain    ChainConfig    `yaml:"chain"`
	Pinata   PinataConfig   `yaml:"pinata"`
	Artwork  ArtworkConfig  `yaml:"artwork"`
	Index    IndexConfig    `yaml:"index"`
	NATS     NATSConfig     `yaml:"nats"`
	Admin    AdminConfig    `yaml:"admin"`
	CORS     CORSConfig     `yaml:"cors"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig database configuration
type DatabaseConfig struct {
	DSN    string `yaml:"dsn"`
	Driver string `yaml:"driver"`
}

// ChainConfig blockchain configuration for the name registry contract
type ChainConfig struct {
	ChainID          int64    `yaml:"chainId"`
	Name             string   `yaml:"name"`
	RPCEndpoints     []string `yaml:"rpcEndpoints"`
	RegistryContract string   `yaml:"registryContract"`

	// Relayer signing key (hex, without 0x prefix). When empty the service
	// never submits transactions itself and only returns payment plans.
	RelayerPrivateKey string `yaml:"relayerPrivateKey"`
	GasLimit          uint64 `yaml:"gasLimit"`

	// CostToleranceBps is the slippage buffer applied on top of the
	// oracle-derived public mint cost, in basis points. 500 = 1.05x.
	CostToleranceBps int64 `yaml:"costToleranceBps"`

	// ConfirmTimeout bounds waiting for a mint receipt, in seconds.
	ConfirmTimeout int `yaml:"confirmTimeout"`
}

// PinataConfig pinning service configuration
type PinataConfig struct {
	BaseURL string `yaml:"baseUrl"`
	JWT     string `yaml:"jwt"`
	Timeout int    `yaml:"timeout"` // request timeout (seconds)
}

// ArtworkConfig card rendering and metadata configuration
type ArtworkConfig struct {
	// ImageMode selects the published image form: "png" rasterizes the
	// card and pins it before the metadata, "svg" embeds the vector
	// source as a base64 data URI inside the metadata document.
	ImageMode string `yaml:"imageMode"`

	FontPath         string `yaml:"fontPath"`
	Platform         string `yaml:"platform"`
	Generation       string `yaml:"generation"`
	RegistrationYear string `yaml:"registrationYear"`
	ExternalURL      string `yaml:"externalUrl"`

	// Description overrides the built-in per-deployment description block
	// when non-empty.
	Description string `yaml:"description"`
}

// IndexConfig minted-asset index configuration
type IndexConfig struct {
	Enabled      bool   `yaml:"enabled"`
	SyncInterval int    `yaml:"syncInterval"` // seconds between polls
	IPFSGateway  string `yaml:"ipfsGateway"`
}

// NATSConfig mint event publishing configuration
type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subjectPrefix"`
	Timeout       int    `yaml:"timeout"`
}

// AdminConfig admin API access configuration
type AdminConfig struct {
	JWTSecret    string `yaml:"jwtSecret"`
	PasswordHash string `yaml:"passwordHash"` // bcrypt hash of the admin password
	TOTPSecret   string `yaml:"totpSecret"`   // optional second factor
	TokenTTL     int    `yaml:"tokenTtl"`     // minutes
}

// CORSConfig CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowedOrigins"`
	AllowCredentials bool     `yaml:"allowCredentials"`
	MaxAge           int      `yaml:"maxAge"`
}

var AppConfig *Config

// LoadConfig loads the configuration file, preferring config.local.yaml
// when present, and applies environment variable overrides.
func LoadConfig(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
		if _, err := os.Stat("config.local.yaml"); err == nil {
			configPath = "config.local.yaml"
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	overrideFromEnv(&config)
	applyDefaults(&config)

	AppConfig = &config
	return nil
}

// overrideFromEnv applies environment variable overrides on top of the file.
func overrideFromEnv(config *Config) {
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		config.Database.DSN = dsn
	}

	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if rpc := os.Getenv("CHAIN_RPC_ENDPOINTS"); rpc != "" {
		config.Chain.RPCEndpoints = splitAndTrim(rpc)
	}
	if contract := os.Getenv("REGISTRY_CONTRACT"); contract != "" {
		config.Chain.RegistryContract = contract
	}
	if key := os.Getenv("RELAYER_PRIVATE_KEY"); key != "" {
		config.Chain.RelayerPrivateKey = key
	}
	if chainID := os.Getenv("CHAIN_ID"); chainID != "" {
		if id, err := strconv.ParseInt(chainID, 10, 64); err == nil {
			config.Chain.ChainID = id
		}
	}
	if bps := os.Getenv("COST_TOLERANCE_BPS"); bps != "" {
		if v, err := strconv.ParseInt(bps, 10, 64); err == nil {
			config.Chain.CostToleranceBps = v
		}
	}

	if jwt := os.Getenv("PINATA_JWT"); jwt != "" {
		config.Pinata.JWT = jwt
	}
	if baseURL := os.Getenv("PINATA_BASE_URL"); baseURL != "" {
		config.Pinata.BaseURL = baseURL
	}

	if mode := os.Getenv("ARTWORK_IMAGE_MODE"); mode != "" {
		config.Artwork.ImageMode = mode
	}
	if fontPath := os.Getenv("ARTWORK_FONT_PATH"); fontPath != "" {
		config.Artwork.FontPath = fontPath
	}

	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		config.NATS.URL = natsURL
	}

	if gateway := os.Getenv("IPFS_GATEWAY"); gateway != "" {
		config.Index.IPFSGateway = gateway
	}

	if secret := os.Getenv("ADMIN_JWT_SECRET"); secret != "" {
		config.Admin.JWTSecret = secret
	}
	if hash := os.Getenv("ADMIN_PASSWORD_HASH"); hash != "" {
		config.Admin.PasswordHash = hash
	}

	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		config.CORS.AllowedOrigins = splitAndTrim(corsOrigins)
	}
}

// applyDefaults fills defaults for fields the file may omit.
func applyDefaults(config *Config) {
	if config.Pinata.BaseURL == "" {
		config.Pinata.BaseURL = "https://api.pinata.cloud"
	}
	if config.Pinata.Timeout <= 0 {
		config.Pinata.Timeout = 30
	}
	if config.Chain.CostToleranceBps <= 0 {
		config.Chain.CostToleranceBps = 500
	}
	if config.Chain.GasLimit == 0 {
		config.Chain.GasLimit = 500000
	}
	if config.Chain.ConfirmTimeout <= 0 {
		config.Chain.ConfirmTimeout = 120
	}
	if config.Artwork.ImageMode == "" {
		config.Artwork.ImageMode = "png"
	}
	if config.Artwork.Platform == "" {
		config.Artwork.Platform = "NNM Market"
	}
	if config.Artwork.Generation == "" {
		config.Artwork.Generation = "GEN-0 Genesis"
	}
	if config.Artwork.RegistrationYear == "" {
		config.Artwork.RegistrationYear = "2025"
	}
	if config.Artwork.ExternalURL == "" {
		config.Artwork.ExternalURL = "https://nftnamemarket.com"
	}
	if config.Index.SyncInterval <= 0 {
		config.Index.SyncInterval = 60
	}
	if config.Index.IPFSGateway == "" {
		config.Index.IPFSGateway = "https://gateway.pinata.cloud/ipfs/"
	}
	if config.NATS.SubjectPrefix == "" {
		config.NATS.SubjectPrefix = "nnm.mint"
	}
	if config.NATS.Timeout <= 0 {
		config.NATS.Timeout = 5
	}
	if config.Admin.TokenTTL <= 0 {
		config.Admin.TokenTTL = 60
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
