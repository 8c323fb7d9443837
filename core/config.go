package core

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default identifiers for the two remote generation services. These are the
// published application IDs; deployments override them via environment
// variables or a services.yaml registry.
const (
	DefaultTextToImageService = "f0997a01-d6d3-a5fe-53d8-561300318557"
	DefaultImageTo3DService   = "69543f29-4d41-4afc-7f29-3d51591f11eb"
	DefaultServiceDomain      = "node3.openfabric.network"
)

// Config holds all configuration values for the backend.
type Config struct {
	// Prompt enhancement (local text-generation service)
	EnhancerProvider string        // "ollama" (native API) or "openai" (OpenAI-compatible server)
	EnhancerURL      string        // local endpoint, default http://localhost:11434
	EnhancerModel    string        // model name passed to the service
	EnhancerTimeout  time.Duration // hard bound on a single enhancement call
	OpenAIAPIKey     string        // only used by the openai-compatible provider

	// Remote generation services
	TextToImageService string        // service ID for text-to-image
	ImageTo3DService   string        // service ID for image-to-3D
	ServiceDomain      string        // DNS suffix appended to service IDs
	GenerationAPIKey   string        // bearer credential for the generation network
	GenerationTimeout  time.Duration // hard bound on a single generation call

	// Storage
	OutputsDir     string // content store directory for generated artifacts
	DatabasePath   string // SQLite history database file
	MigrationsPath string // golang-migrate source URL

	// Hosting
	Port                 int
	AllowSelfSignedCerts bool
}

// ServiceRegistry is the optional services.yaml shape. It names the remote
// generation services so deployments can swap them without code changes.
type ServiceRegistry struct {
	Domain   string `yaml:"domain"`
	Services struct {
		TextToImage string `yaml:"text_to_image"`
		ImageTo3D   string `yaml:"image_to_3d"`
	} `yaml:"services"`
}

// LoadConfig loads configuration from environment variables with sensible
// defaults, then applies the optional YAML service registry on top.
// Call godotenv.Load() before this to pick up a .env file.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		EnhancerProvider: GetEnvOrDefault("ENHANCER_PROVIDER", "ollama"),
		EnhancerURL:      GetEnvOrDefault("ENHANCER_URL", "http://localhost:11434"),
		EnhancerModel:    GetEnvOrDefault("ENHANCER_MODEL", "deepseek-r1:1.5b"),
		EnhancerTimeout:  ParseDurationEnv("ENHANCER_TIMEOUT_SECONDS", 30),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),

		TextToImageService: GetEnvOrDefault("TEXT_TO_IMAGE_SERVICE", DefaultTextToImageService),
		ImageTo3DService:   GetEnvOrDefault("IMAGE_TO_3D_SERVICE", DefaultImageTo3DService),
		ServiceDomain:      GetEnvOrDefault("SERVICE_DOMAIN", DefaultServiceDomain),
		GenerationAPIKey:   os.Getenv("OPENFABRIC_API_KEY"),
		GenerationTimeout:  ParseDurationEnv("GENERATION_TIMEOUT_SECONDS", 120),

		OutputsDir:     GetEnvOrDefault("OUTPUTS_DIR", "outputs"),
		DatabasePath:   GetEnvOrDefault("DATABASE_PATH", "data/generations.db"),
		MigrationsPath: GetEnvOrDefault("MIGRATIONS_PATH", "file://db/migrations"),

		Port:                 ParseIntEnv("PORT", 8888),
		AllowSelfSignedCerts: ParseBoolEnv("ALLOW_SELF_SIGNED_CERTS", false),
	}

	if _, err := url.ParseRequestURI(cfg.EnhancerURL); err != nil {
		return nil, ErrInvalidEnhancerURL(cfg.EnhancerURL, err.Error())
	}

	if registryPath := os.Getenv("SERVICES_FILE"); registryPath != "" {
		if err := cfg.applyServiceRegistry(registryPath); err != nil {
			return nil, err
		}
	}

	if cfg.TextToImageService == "" {
		return nil, ErrMissingService("text-to-image", "TEXT_TO_IMAGE_SERVICE")
	}
	if cfg.ImageTo3DService == "" {
		return nil, ErrMissingService("image-to-3D", "IMAGE_TO_3D_SERVICE")
	}

	return cfg, nil
}

// applyServiceRegistry overlays values from a YAML registry file onto cfg.
// Empty registry fields leave the existing values untouched.
func (c *Config) applyServiceRegistry(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return ErrInvalidRegistry(path, err.Error())
	}

	var reg ServiceRegistry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return ErrInvalidRegistry(path, err.Error())
	}

	if reg.Domain != "" {
		c.ServiceDomain = reg.Domain
	}
	if reg.Services.TextToImage != "" {
		c.TextToImageService = reg.Services.TextToImage
	}
	if reg.Services.ImageTo3D != "" {
		c.ImageTo3DService = reg.Services.ImageTo3D
	}
	return nil
}

// ServiceURL returns the base URL for a generation service identifier.
func (c *Config) ServiceURL(serviceID string) string {
	return fmt.Sprintf("https://%s.%s", serviceID, c.ServiceDomain)
}

// GetHTTPClient returns an HTTP client with the given timeout, honoring the
// self-signed certificate setting.
func GetHTTPClient(cfg *Config, timeout time.Duration) *http.Client {
	client := &http.Client{
		Timeout: timeout,
	}

	if cfg != nil && cfg.AllowSelfSignedCerts {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return client
}
