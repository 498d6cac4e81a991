package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		ProjectName    string   `yaml:"projectName"`
		APIPrefix      string   `yaml:"apiPrefix"`
		TrustedProxies []string `yaml:"trustedProxies"`
	} `yaml:"server"`

	Gemini struct {
		ApiKey         string `yaml:"apiKey"`
		Model          string `yaml:"model"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
	} `yaml:"gemini"`

	// Models points at the hosted sentiment and CLIP endpoints.
	Models struct {
		SentimentURL   string `yaml:"sentimentUrl"`
		SimilarityURL  string `yaml:"similarityUrl"`
		HFToken        string `yaml:"hfToken"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
	} `yaml:"models"`

	Database struct {
		URI string `yaml:"uri"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	CORS struct {
		AllowOrigins []string `yaml:"allowOrigins"`
	} `yaml:"cors"`

	Limits struct {
		MaxUploadBytes           int64 `yaml:"maxUploadBytes"`
		ImageFetchTimeoutSeconds int   `yaml:"imageFetchTimeoutSeconds"`
		CoherenceTimeoutSeconds  int   `yaml:"coherenceTimeoutSeconds"`
		VotesPerWindow           int   `yaml:"votesPerWindow"`
		VoteWindowSeconds        int   `yaml:"voteWindowSeconds"`
	} `yaml:"limits"`

	Logging struct {
		Debug bool `yaml:"debug"`
	} `yaml:"logging"`
}

const (
	defaultPort        = 8000
	defaultProjectName = "Misinformation Detector API"
	defaultAPIPrefix   = "/api/v1"
	defaultGeminiModel = "gemini-2.5-flash"
	defaultSentiment   = "https://api-inference.huggingface.co/models/distilbert-base-uncased-finetuned-sst-2-english"
)

// LoadDotEnv loads variables from .env files without overriding the
// ones already present in the process environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// LoadConfig reads the configuration file. A missing file is not an error:
// the service can run from environment variables alone.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		c.Gemini.ApiKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		c.Gemini.Model = v
	}
	if v := os.Getenv("HF_API_TOKEN"); v != "" {
		c.Models.HFToken = v
	}
	if v := os.Getenv("SENTIMENT_URL"); v != "" {
		c.Models.SentimentURL = v
	}
	if v := os.Getenv("SIMILARITY_URL"); v != "" {
		c.Models.SimilarityURL = v
	}
	if v := os.Getenv("MONGODB_URI"); v != "" {
		c.Database.URI = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.ProjectName == "" {
		c.Server.ProjectName = defaultProjectName
	}
	if c.Server.APIPrefix == "" {
		c.Server.APIPrefix = defaultAPIPrefix
	}
	if len(c.Server.TrustedProxies) == 0 {
		c.Server.TrustedProxies = []string{"127.0.0.1"}
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = defaultGeminiModel
	}
	if c.Gemini.TimeoutSeconds == 0 {
		c.Gemini.TimeoutSeconds = 60
	}
	if c.Models.SentimentURL == "" {
		c.Models.SentimentURL = defaultSentiment
	}
	if c.Models.TimeoutSeconds == 0 {
		c.Models.TimeoutSeconds = 30
	}
	if len(c.CORS.AllowOrigins) == 0 {
		c.CORS.AllowOrigins = []string{"*"}
	}
	if c.Limits.MaxUploadBytes == 0 {
		c.Limits.MaxUploadBytes = 10 << 20
	}
	if c.Limits.ImageFetchTimeoutSeconds == 0 {
		c.Limits.ImageFetchTimeoutSeconds = 10
	}
	if c.Limits.CoherenceTimeoutSeconds == 0 {
		c.Limits.CoherenceTimeoutSeconds = 15
	}
	if c.Limits.VotesPerWindow == 0 {
		c.Limits.VotesPerWindow = 10
	}
	if c.Limits.VoteWindowSeconds == 0 {
		c.Limits.VoteWindowSeconds = 600
	}
}

func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.Gemini.TimeoutSeconds) * time.Second
}

func (c *Config) ModelTimeout() time.Duration {
	return time.Duration(c.Models.TimeoutSeconds) * time.Second
}

func (c *Config) ImageFetchTimeout() time.Duration {
	return time.Duration(c.Limits.ImageFetchTimeoutSeconds) * time.Second
}

func (c *Config) CoherenceTimeout() time.Duration {
	return time.Duration(c.Limits.CoherenceTimeoutSeconds) * time.Second
}

func (c *Config) VoteWindow() time.Duration {
	return time.Duration(c.Limits.VoteWindowSeconds) * time.Second
}
