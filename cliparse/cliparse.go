package cliparse

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const envPrefix = "ballotdesk"

// Image store kinds
const (
	ImageStoreDisk = "disk"
	ImageStoreS3   = "s3"
)

// Ambiguous create policies, see rest.AmbiguousPolicy
const (
	AmbiguousAccept = "accept"
	AmbiguousStrict = "strict"
)

type Config struct {
	// Reference server
	Port               int           `yaml:"port"               envconfig:"PORT"`
	DatabaseURL        string        `yaml:"databaseUrl"        envconfig:"DATABASE_URL"`
	DatabaseType       string        `yaml:"databaseType"       envconfig:"DATABASE_TYPE"`
	TokenSecret        string        `yaml:"tokenSecret"        envconfig:"TOKEN_SECRET"`
	TokenTTL           time.Duration `yaml:"tokenTtl"           envconfig:"TOKEN_TTL"`
	DevTokens          bool          `yaml:"devTokens"          envconfig:"DEV_TOKENS"`
	UploadDir          string        `yaml:"uploadDir"          envconfig:"UPLOAD_DIR"`
	ImageStore         string        `yaml:"imageStore"         envconfig:"IMAGE_STORE"`
	S3Bucket           string        `yaml:"s3Bucket"           envconfig:"S3_BUCKET"`
	S3Region           string        `yaml:"s3Region"           envconfig:"S3_REGION"`
	S3Prefix           string        `yaml:"s3Prefix"           envconfig:"S3_PREFIX"`
	S3Endpoint         string        `yaml:"s3Endpoint"         envconfig:"S3_ENDPOINT"`
	S3AccessKeyID      string        `yaml:"-"                  envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey  string        `yaml:"-"                  envconfig:"S3_SECRET_ACCESS_KEY"`
	MaxImageBytes      int64         `yaml:"maxImageBytes"      envconfig:"MAX_IMAGE_BYTES"`
	EmulateCreateQuirk bool          `yaml:"emulateCreateQuirk" envconfig:"EMULATE_CREATE_QUIRK"`
	CORSOrigins        []string      `yaml:"corsOrigins"        envconfig:"CORS_ORIGINS"`

	// Editor client
	APIURL           string        `yaml:"apiUrl"           envconfig:"API_URL"`
	Token            string        `yaml:"-"                envconfig:"TOKEN"`
	TokenFile        string        `yaml:"tokenFile"        envconfig:"TOKEN_FILE"`
	AssetBaseURL     string        `yaml:"assetBaseUrl"     envconfig:"ASSET_BASE_URL"`
	PlaceholderImage string        `yaml:"placeholderImage" envconfig:"PLACEHOLDER_IMAGE"`
	Workflow         string        `yaml:"workflow"         envconfig:"WORKFLOW"`
	AmbiguousCreate  string        `yaml:"ambiguousCreate"  envconfig:"AMBIGUOUS_CREATE"`
	FetchTimeout     time.Duration `yaml:"fetchTimeout"     envconfig:"FETCH_TIMEOUT"`
	PollInterval     time.Duration `yaml:"pollInterval"     envconfig:"POLL_INTERVAL"`
	RotateInterval   time.Duration `yaml:"rotateInterval"   envconfig:"ROTATE_INTERVAL"`
	PreviewDir       string        `yaml:"previewDir"       envconfig:"PREVIEW_DIR"`

	Debug bool `yaml:"debug" envconfig:"DEBUG"`
}

// Defaults returns the configuration used when nothing else is set
func Defaults() Config {
	home, _ := os.UserHomeDir()
	tokenFile := ""
	if home != "" {
		tokenFile = home + "/.ballotdesk-token"
	}

	return Config{
		Port:             3318,
		DatabaseType:     "sqlite",
		DatabaseURL:      "file:ballotdesk.db",
		TokenTTL:         12 * time.Hour,
		UploadDir:        "uploads",
		ImageStore:       ImageStoreDisk,
		MaxImageBytes:    2 << 20,
		APIURL:           "http://localhost:3318",
		TokenFile:        tokenFile,
		PlaceholderImage: "/images/default-avatar.png",
		Workflow:         "admin",
		AmbiguousCreate:  AmbiguousAccept,
		FetchTimeout:     15 * time.Second,
		PollInterval:     5 * time.Second,
		RotateInterval:   10 * time.Second,
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// a .env file in the working directory and BALLOTDESK_* environment variables,
// in that order of increasing precedence
func Load(configFile string) (Config, error) {
	cfg := Defaults()

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}

	return cfg, nil
}

// BindFlags registers the command-line overrides on fs
func BindFlags(fs *pflag.FlagSet) {
	fs.IntP("port", "p", 0, "server port")
	fs.StringP("database-url", "d", "", "database URL")
	fs.StringP("database-type", "t", "", "database type (sqlite or postgres)")
	fs.String("token-secret", "", "token signing secret (prefer env)")
	fs.String("upload-dir", "", "directory for uploaded images")
	fs.String("image-store", "", "image store (disk or s3)")
	fs.Bool("dev-tokens", false, "serve POST /auth/token for development")
	fs.StringSlice("cors-origin", nil, "allowed CORS origin (repeatable, default any)")
	fs.Bool("emulate-create-quirk", false, "answer ballot/candidate creation with 400 while still creating")
	fs.String("api", "", "ballot API base URL")
	fs.String("token", "", "session token (prefer env or token file)")
	fs.String("token-file", "", "path of the stored session token")
	fs.String("workflow", "", "editor workflow (admin or superadmin)")
	fs.String("ambiguous-create", "", "handling of 400-with-created responses (accept or strict)")
	fs.Duration("fetch-timeout", 0, "timeout for election and results fetches")
}

// ApplyFlags copies every flag the user actually set onto cfg
func ApplyFlags(fs *pflag.FlagSet, cfg *Config) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "port":
			cfg.Port, err = fs.GetInt(f.Name)
		case "database-url":
			cfg.DatabaseURL = f.Value.String()
		case "database-type":
			cfg.DatabaseType = f.Value.String()
		case "token-secret":
			cfg.TokenSecret = f.Value.String()
		case "upload-dir":
			cfg.UploadDir = f.Value.String()
		case "image-store":
			cfg.ImageStore = f.Value.String()
		case "dev-tokens":
			cfg.DevTokens, err = fs.GetBool(f.Name)
		case "cors-origin":
			cfg.CORSOrigins, err = fs.GetStringSlice(f.Name)
		case "emulate-create-quirk":
			cfg.EmulateCreateQuirk, err = fs.GetBool(f.Name)
		case "api":
			cfg.APIURL = f.Value.String()
		case "token":
			cfg.Token = f.Value.String()
		case "token-file":
			cfg.TokenFile = f.Value.String()
		case "workflow":
			cfg.Workflow = f.Value.String()
		case "ambiguous-create":
			cfg.AmbiguousCreate = f.Value.String()
		case "fetch-timeout":
			cfg.FetchTimeout, err = fs.GetDuration(f.Name)
		}
	})
	return err
}

// ValidateServer checks the settings the reference server needs
func (c Config) ValidateServer() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.DatabaseURL == "" {
		return errors.New("database URL required (use -d or BALLOTDESK_DATABASE_URL env)")
	}
	if c.DatabaseType != "sqlite" && c.DatabaseType != "postgres" {
		return fmt.Errorf("database type must be sqlite or postgres, got %q", c.DatabaseType)
	}
	if c.TokenSecret == "" {
		return errors.New("BALLOTDESK_TOKEN_SECRET required")
	}
	switch c.ImageStore {
	case ImageStoreDisk:
		if c.UploadDir == "" {
			return errors.New("upload directory required for disk image store")
		}
	case ImageStoreS3:
		if c.S3Bucket == "" || c.S3Region == "" {
			return errors.New("BALLOTDESK_S3_BUCKET and BALLOTDESK_S3_REGION required for s3 image store")
		}
	default:
		return fmt.Errorf("image store must be disk or s3, got %q", c.ImageStore)
	}
	return nil
}

// ValidateClient checks the settings the editor commands need
func (c Config) ValidateClient() error {
	if c.APIURL == "" {
		return errors.New("API URL required (use --api or BALLOTDESK_API_URL env)")
	}
	if c.Workflow != "admin" && c.Workflow != "superadmin" {
		return fmt.Errorf("workflow must be admin or superadmin, got %q", c.Workflow)
	}
	if c.AmbiguousCreate != AmbiguousAccept && c.AmbiguousCreate != AmbiguousStrict {
		return fmt.Errorf("ambiguous-create must be accept or strict, got %q", c.AmbiguousCreate)
	}
	if c.FetchTimeout <= 0 {
		return errors.New("fetch timeout must be positive")
	}
	return nil
}
