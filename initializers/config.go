package initializers

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Kariqs/smart-inventory/utils"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port               string   `yaml:"port"`
		BaseURL            string   `yaml:"base_url"`
		Environment        string   `yaml:"environment"`
		AllowedOrigins     []string `yaml:"allowed_origins"`
		RequireCancelToken bool     `yaml:"require_cancel_token"`
	} `yaml:"app"`

	Database struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`

	Auth struct {
		JWTSecret string        `yaml:"jwt_secret"`
		TokenTTL  time.Duration `yaml:"token_ttl"`
	} `yaml:"auth"`

	Mail utils.MailConfig `yaml:"mail"`

	Storage struct {
		S3Bucket string `yaml:"s3_bucket"`
	} `yaml:"storage"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Seed struct {
		Enabled       bool   `yaml:"enabled"`
		AdminEmail    string `yaml:"admin_email"`
		AdminPassword string `yaml:"admin_password"`
	} `yaml:"seed"`
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.App.Port = "8080"
	cfg.App.BaseURL = "http://localhost:8080"
	cfg.App.Environment = "development"
	cfg.App.AllowedOrigins = []string{"http://localhost:8080"}
	cfg.Database.Driver = "postgres"
	cfg.Auth.TokenTTL = 24 * time.Hour
	cfg.Mail.Driver = "log"
	cfg.Mail.FromName = "Smart Inventory"
	cfg.Mail.SMTPPort = 587
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	cfg.Seed.Enabled = true
	cfg.Seed.AdminEmail = "admin@smartinventory.com"
	return cfg
}

// LoadConfig layers defaults, the optional YAML file at path, a .env file and
// the process environment, later sources winning.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		file, err := os.Open(path)
		switch {
		case err == nil:
			defer file.Close()
			if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
				return nil, fmt.Errorf("invalid config file %s: %w", path, err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	setString("PORT", &cfg.App.Port)
	setString("BASE_URL", &cfg.App.BaseURL)
	setString("APP_ENV", &cfg.App.Environment)
	setString("DB_DRIVER", &cfg.Database.Driver)
	setString("DB_DSN", &cfg.Database.DSN)
	setString("JWT_SECRET", &cfg.Auth.JWTSecret)
	setString("MAIL_DRIVER", &cfg.Mail.Driver)
	setString("FROM_EMAIL", &cfg.Mail.FromEmail)
	setString("FROM_NAME", &cfg.Mail.FromName)
	setString("FROM_EMAIL_PASSWORD", &cfg.Mail.Password)
	setString("SMTP_HOST", &cfg.Mail.SMTPHost)
	setString("MAIL_API_URL", &cfg.Mail.APIURL)
	setString("MAIL_API_KEY", &cfg.Mail.APIKey)
	setString("S3_BUCKET", &cfg.Storage.S3Bucket)
	setString("LOG_LEVEL", &cfg.Log.Level)
	setString("LOG_FORMAT", &cfg.Log.Format)
	setString("ADMIN_EMAIL", &cfg.Seed.AdminEmail)
	setString("ADMIN_PASSWORD", &cfg.Seed.AdminPassword)

	if cfg.Mail.Username == "" {
		cfg.Mail.Username = cfg.Mail.FromEmail
	}

	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SMTP_PORT %q: %w", v, err)
		}
		cfg.Mail.SMTPPort = port
	}
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TOKEN_TTL %q: %w", v, err)
		}
		cfg.Auth.TokenTTL = ttl
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		if len(origins) > 0 {
			cfg.App.AllowedOrigins = origins
		}
	}

	for key, dst := range map[string]*bool{
		"REQUIRE_CANCEL_TOKEN": &cfg.App.RequireCancelToken,
		"SEED_DATABASE":        &cfg.Seed.Enabled,
	} {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = b
	}

	cfg.App.BaseURL = strings.TrimRight(cfg.App.BaseURL, "/")
	return nil
}

func (c *Config) validate() error {
	if c.Database.DSN == "" {
		return errors.New("DB_DSN is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}
