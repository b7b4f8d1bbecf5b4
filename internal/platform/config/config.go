// internal/platform/config/config.go
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"domowner/internal/core/domain"
	"domowner/internal/platform/resilience"
	"domowner/internal/platform/validator"
)

// Provider names accepted by inference.provider.
const (
	ProviderHuggingFace = "huggingface"
	ProviderLocal       = "local"
	ProviderOllama      = "ollama"
	ProviderOpenAI      = "openai"
	ProviderBedrock     = "bedrock"
)

const (
	DefaultHFModel      = "distilbert/distilbert-base-cased-distilled-squad"
	DefaultHFAPIBase    = "https://api-inference.huggingface.co"
	DefaultLocalBase    = "http://localhost:8080"
	DefaultOllamaModel  = "llama3.1"
	DefaultOllamaBase   = "http://localhost:11434"
	DefaultOpenAIModel  = "gpt-4o-mini"
	DefaultOpenAIBase   = "https://api.openai.com"
	DefaultBedrockModel = "anthropic.claude-3-haiku-20240307-v1:0"
	DefaultRDAPBase     = "https://rdap.org"
	DefaultNVDBase      = "https://services.nvd.nist.gov/rest/json/cves/2.0"
)

type Config struct {
	// ConfigFile es la ruta del YAML cargado (vacío si ninguno)
	ConfigFile string `yaml:"-"`

	Log        Log                    `yaml:"log"`
	Whois      Whois                  `yaml:"whois"`
	Inference  Inference              `yaml:"inference"`
	Cache      Cache                  `yaml:"cache"`
	Resilience Resilience             `yaml:"resilience"`
	Exclusions []domain.ExclusionRule `yaml:"exclusions" validate:"dive"`
	Output     Output                 `yaml:"output"`
	Server     Server                 `yaml:"server"`
	Metrics    Metrics                `yaml:"metrics"`
	NVD        NVD                    `yaml:"nvd"`
}

type Log struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

type Whois struct {
	// Backend nombre registrado en el registry (port43 | rdap)
	Backend string `yaml:"backend" validate:"required"`

	// Timeout por consulta
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`

	// RateLimit consultas por segundo (0 = sin límite)
	RateLimit float64 `yaml:"rate_limit" validate:"gte=0"`
	Burst     int     `yaml:"burst" validate:"gte=1"`

	// Workers consultas simultáneas (1 = secuencial)
	Workers int `yaml:"workers" validate:"gte=1,lte=32"`

	Server         string         `yaml:"server" validate:"omitempty,hostname|hostname_port"`
	RDAPBaseURL    string         `yaml:"rdap_base_url" validate:"omitempty,url"`
	FollowReferral bool           `yaml:"follow_referral"`
	Options        map[string]any `yaml:"options"`
}

type Inference struct {
	Provider string `yaml:"provider" validate:"oneof=huggingface local ollama openai bedrock"`
	Model    string `yaml:"model" validate:"required"`
	// APIBase en bedrock es opcional: sustituye el endpoint regional
	APIBase  string `yaml:"api_base" validate:"required_unless=Provider bedrock,omitempty,url"`
	APIToken string `yaml:"api_token"`
	// Region AWS para bedrock (vacío = AWS_REGION / perfil)
	Region   string `yaml:"region"`
	Question string `yaml:"question" validate:"required"`

	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`

	// MaxContextChars trunca el ContextBlob (0 = sin truncar)
	MaxContextChars int `yaml:"max_context_chars" validate:"gte=0"`

	// NumCtx y MaxNewTokens sólo aplican a proveedores chat (ollama/openai/bedrock)
	NumCtx       int `yaml:"num_ctx" validate:"gte=0"`
	MaxNewTokens int `yaml:"max_new_tokens" validate:"gte=0"`

	// Memoize reutiliza respuestas para el mismo (question, context)
	Memoize bool `yaml:"memoize"`
}

type Cache struct {
	Backend   string        `yaml:"backend" validate:"oneof=memory redis none"`
	TTL       time.Duration `yaml:"ttl" validate:"gte=0"`
	Capacity  int           `yaml:"capacity" validate:"gte=0"`
	RedisURL  string        `yaml:"redis_url" validate:"required_if=Backend redis,omitempty,url"`
	KeyPrefix string        `yaml:"key_prefix"`
}

type Resilience struct {
	Retry          resilience.RetryPolicy   `yaml:"retry"`
	BreakerEnabled bool                     `yaml:"breaker_enabled"`
	Breaker        resilience.BreakerConfig `yaml:"breaker"`
}

type Output struct {
	// Format de stdout: table | json
	Format string `yaml:"format" validate:"oneof=table json"`
	Path   string `yaml:"path"`
	Quiet  bool   `yaml:"quiet"`
	Pretty bool   `yaml:"pretty"`
}

type Server struct {
	Addr         string        `yaml:"addr" validate:"required"`
	ReadTimeout  time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gte=0"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" validate:"gte=0"`
	CORSOrigins  []string      `yaml:"cors_origins"`
}

type Metrics struct {
	// Textfile ruta para el textfile collector de node_exporter (vacío = off)
	Textfile string `yaml:"textfile"`
}

type NVD struct {
	BaseURL string        `yaml:"base_url" validate:"required,url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// DefaultConfig retorna una configuración por defecto.
func DefaultConfig() Config {
	return Config{
		Log: Log{Level: "info", Format: "console"},
		Whois: Whois{
			Backend:        "port43",
			Timeout:        15 * time.Second,
			RateLimit:      2,
			Burst:          1,
			Workers:        1,
			RDAPBaseURL:    DefaultRDAPBase,
			FollowReferral: true,
		},
		Inference: Inference{
			Provider: ProviderHuggingFace,
			Question: domain.DefaultQuestion,
			Timeout:  60 * time.Second,
		},
		Cache: Cache{
			Backend:   "memory",
			TTL:       24 * time.Hour,
			Capacity:  1024,
			KeyPrefix: "domowner:",
		},
		Resilience: Resilience{
			Retry:          resilience.DefaultRetryPolicy(),
			BreakerEnabled: true,
			Breaker: resilience.BreakerConfig{
				FailureThreshold: 5,
				OpenTimeout:      60 * time.Second,
				HalfOpenMax:      1,
			},
		},
		Exclusions: domain.DefaultExclusionRules(),
		Output:     Output{Format: "table", Pretty: true},
		Server: Server{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 180 * time.Second,
			MaxBodyBytes: 1 << 20,
			CORSOrigins:  []string{"*"},
		},
		NVD: NVD{
			BaseURL: DefaultNVDBase,
			Timeout: 30 * time.Second,
		},
	}
}

// Load resuelve la configuración: defaults -> YAML -> ENV -> flags
// (sólo las que el usuario cambió) -> normalize -> validate.
// fs puede ser nil.
func Load(fs *pflag.FlagSet) (Config, error) {
	cfg := DefaultConfig()

	path := getenv("DOMOWNER_CONFIG", "")
	if fs != nil && fs.Changed("config") {
		path, _ = fs.GetString("config")
	}
	if path != "" {
		if err := loadFromFile(&cfg, path); err != nil {
			return cfg, err
		}
	}

	loadFromEnv(&cfg)

	if fs != nil {
		if err := loadFromFlags(&cfg, fs); err != nil {
			return cfg, err
		}
	}

	normalize(&cfg)

	if err := validator.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", domain.ErrInvalidConfig, path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: parse %s: %v", domain.ErrInvalidConfig, path, err)
	}
	cfg.ConfigFile = path
	return nil
}

// loadFromEnv carga configuración desde variables de entorno. Las
// variables DOMOWNER_* tienen prioridad sobre las heredadas de los
// scripts originales (INFERENCE_PROVIDER, HUGGINGFACE_*, OLLAMA_*).
func loadFromEnv(cfg *Config) {
	if v := getenv("DOMOWNER_LOG_LEVEL", ""); v != "" {
		cfg.Log.Level = v
	}
	if v := getenv("DOMOWNER_LOG_FORMAT", ""); v != "" {
		cfg.Log.Format = v
	}

	// WHOIS
	if v := getenv("DOMOWNER_WHOIS_BACKEND", ""); v != "" {
		cfg.Whois.Backend = v
	}
	if v := getenv("DOMOWNER_WHOIS_TIMEOUT", ""); v != "" {
		cfg.Whois.Timeout = parseDuration(v, cfg.Whois.Timeout)
	}
	if v := getenv("DOMOWNER_WHOIS_RATE_LIMIT", ""); v != "" {
		cfg.Whois.RateLimit = parseFloat(v, cfg.Whois.RateLimit)
	}
	if v := getenv("DOMOWNER_WHOIS_WORKERS", ""); v != "" {
		cfg.Whois.Workers = parseInt(v, cfg.Whois.Workers)
	}
	if v := getenv("DOMOWNER_WHOIS_SERVER", ""); v != "" {
		cfg.Whois.Server = v
	}

	// Inference
	if v := firstEnv("DOMOWNER_INFERENCE_PROVIDER", "INFERENCE_PROVIDER"); v != "" {
		cfg.Inference.Provider = v
	}
	if parseBool(getenv("HUGGINGFACE_LOCAL", "")) && strings.EqualFold(cfg.Inference.Provider, ProviderHuggingFace) {
		cfg.Inference.Provider = ProviderLocal
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.Inference.Provider))
	legacyModel, legacyBase := "HUGGINGFACE_MODEL_ID", "HUGGINGFACE_API_BASE"
	switch provider {
	case ProviderOllama:
		legacyModel, legacyBase = "OLLAMA_MODEL_ID", "OLLAMA_API_BASE"
	case ProviderBedrock:
		legacyModel, legacyBase = "BEDROCK_MODEL_ID", ""
	}
	if v := firstEnv("DOMOWNER_INFERENCE_MODEL", legacyModel); v != "" {
		cfg.Inference.Model = v
	}
	if v := firstEnv("DOMOWNER_INFERENCE_API_BASE", legacyBase); v != "" {
		cfg.Inference.APIBase = v
	}
	tokenVar := "HUGGINGFACE_API_TOKEN"
	if provider == ProviderOpenAI {
		tokenVar = "OPENAI_API_KEY"
	}
	if v := firstEnv("DOMOWNER_INFERENCE_API_TOKEN", tokenVar); v != "" {
		cfg.Inference.APIToken = v
	}
	if v := getenv("DOMOWNER_INFERENCE_REGION", ""); v != "" {
		cfg.Inference.Region = v
	}
	if v := firstEnv("DOMOWNER_INFERENCE_NUM_CTX", "OLLAMA_NUM_CTX"); v != "" {
		cfg.Inference.NumCtx = parseInt(v, cfg.Inference.NumCtx)
	}
	if v := firstEnv("DOMOWNER_INFERENCE_MAX_NEW_TOKENS", "OLLAMA_MAX_NEW_TOKENS"); v != "" {
		cfg.Inference.MaxNewTokens = parseInt(v, cfg.Inference.MaxNewTokens)
	}
	if v := getenv("DOMOWNER_INFERENCE_TIMEOUT", ""); v != "" {
		cfg.Inference.Timeout = parseDuration(v, cfg.Inference.Timeout)
	}
	if v := getenv("DOMOWNER_MAX_CONTEXT_CHARS", ""); v != "" {
		cfg.Inference.MaxContextChars = parseInt(v, cfg.Inference.MaxContextChars)
	}

	// Cache
	if v := getenv("DOMOWNER_CACHE_BACKEND", ""); v != "" {
		cfg.Cache.Backend = v
	}
	if v := getenv("DOMOWNER_CACHE_TTL", ""); v != "" {
		cfg.Cache.TTL = parseDuration(v, cfg.Cache.TTL)
	}
	if v := getenv("DOMOWNER_REDIS_URL", ""); v != "" {
		cfg.Cache.RedisURL = v
	}

	// Resilience
	if v := getenv("DOMOWNER_RESILIENCE_MAX_RETRIES", ""); v != "" {
		cfg.Resilience.Retry.MaxRetries = parseInt(v, cfg.Resilience.Retry.MaxRetries)
	}
	if v := getenv("DOMOWNER_RESILIENCE_CB_ENABLED", ""); v != "" {
		cfg.Resilience.BreakerEnabled = parseBool(v)
	}

	// Server / metrics / NVD
	if v := getenv("DOMOWNER_SERVER_ADDR", ""); v != "" {
		cfg.Server.Addr = v
	}
	if v := getenv("DOMOWNER_METRICS_TEXTFILE", ""); v != "" {
		cfg.Metrics.Textfile = v
	}
	if v := firstEnv("DOMOWNER_NVD_API_KEY", "NVD_API_KEY"); v != "" {
		cfg.NVD.APIKey = v
	}
}

// BindFlags registra los flags de configuración en fs. Los valores por
// defecto sólo sirven para --help: Load aplica únicamente los flags que
// el usuario cambió, para no pisar YAML ni ENV.
func BindFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()

	fs.StringP("config", "c", "", "YAML config file (env DOMOWNER_CONFIG)")
	fs.String("log-level", d.Log.Level, "Log level: debug|info|warn|error")
	fs.String("log-format", d.Log.Format, "Log format: console|json")

	fs.String("whois-backend", d.Whois.Backend, "WHOIS backend: port43|rdap")
	fs.Duration("whois-timeout", d.Whois.Timeout, "Per-lookup WHOIS timeout")
	fs.Float64("whois-rate", d.Whois.RateLimit, "WHOIS lookups per second (0 = unlimited)")
	fs.IntP("workers", "w", d.Whois.Workers, "Concurrent WHOIS lookups")
	fs.String("whois-server", "", "Force a WHOIS server (port43 backend)")

	fs.StringP("provider", "p", d.Inference.Provider, "Inference provider: huggingface|local|ollama|openai|bedrock")
	fs.StringP("model", "m", "", "Model id (provider default when empty)")
	fs.String("api-base", "", "Inference API base URL (provider default when empty)")
	fs.String("region", "", "AWS region for the bedrock provider")
	fs.String("question", d.Inference.Question, "Question asked to the QA backend")
	fs.Duration("inference-timeout", d.Inference.Timeout, "Inference request timeout")
	fs.Int("max-context-chars", d.Inference.MaxContextChars, "Truncate the context to N chars (0 = off)")

	fs.String("cache", d.Cache.Backend, "WHOIS cache backend: memory|redis|none")
	fs.String("redis-url", "", "Redis URL for --cache=redis")
	fs.Int("retries", d.Resilience.Retry.MaxRetries, "Inference retries after the first attempt (0 or 1)")

	fs.String("metrics-textfile", "", "Write Prometheus metrics to this file on exit")
}

// loadFromFlags aplica los flags que el usuario cambió.
func loadFromFlags(cfg *Config, fs *pflag.FlagSet) error {
	var errs []string
	str := func(name string, dst *string) {
		if fs.Lookup(name) != nil && fs.Changed(name) {
			v, err := fs.GetString(name)
			if err != nil {
				errs = append(errs, err.Error())
				return
			}
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		if fs.Lookup(name) != nil && fs.Changed(name) {
			v, err := fs.GetDuration(name)
			if err != nil {
				errs = append(errs, err.Error())
				return
			}
			*dst = v
		}
	}
	integer := func(name string, dst *int) {
		if fs.Lookup(name) != nil && fs.Changed(name) {
			v, err := fs.GetInt(name)
			if err != nil {
				errs = append(errs, err.Error())
				return
			}
			*dst = v
		}
	}

	str("log-level", &cfg.Log.Level)
	str("log-format", &cfg.Log.Format)
	str("whois-backend", &cfg.Whois.Backend)
	dur("whois-timeout", &cfg.Whois.Timeout)
	if fs.Lookup("whois-rate") != nil && fs.Changed("whois-rate") {
		v, err := fs.GetFloat64("whois-rate")
		if err != nil {
			errs = append(errs, err.Error())
		} else {
			cfg.Whois.RateLimit = v
		}
	}
	integer("workers", &cfg.Whois.Workers)
	str("whois-server", &cfg.Whois.Server)
	str("provider", &cfg.Inference.Provider)
	str("model", &cfg.Inference.Model)
	str("api-base", &cfg.Inference.APIBase)
	str("region", &cfg.Inference.Region)
	str("question", &cfg.Inference.Question)
	dur("inference-timeout", &cfg.Inference.Timeout)
	integer("max-context-chars", &cfg.Inference.MaxContextChars)
	str("cache", &cfg.Cache.Backend)
	str("redis-url", &cfg.Cache.RedisURL)
	integer("retries", &cfg.Resilience.Retry.MaxRetries)
	str("metrics-textfile", &cfg.Metrics.Textfile)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

func normalize(c *Config) {
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.Whois.Backend = strings.ToLower(strings.TrimSpace(c.Whois.Backend))
	c.Inference.Provider = strings.ToLower(strings.TrimSpace(c.Inference.Provider))
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))

	if c.Whois.Workers < 1 {
		c.Whois.Workers = 1
	}
	if c.Whois.Burst < 1 {
		c.Whois.Burst = 1
	}
	if strings.TrimSpace(c.Inference.Question) == "" {
		c.Inference.Question = domain.DefaultQuestion
	}

	// defaults por proveedor
	switch c.Inference.Provider {
	case ProviderHuggingFace:
		c.Inference.Model = orDefault(c.Inference.Model, DefaultHFModel)
		c.Inference.APIBase = orDefault(c.Inference.APIBase, DefaultHFAPIBase)
	case ProviderLocal:
		c.Inference.Model = orDefault(c.Inference.Model, DefaultHFModel)
		c.Inference.APIBase = orDefault(c.Inference.APIBase, DefaultLocalBase)
	case ProviderOllama:
		c.Inference.Model = orDefault(c.Inference.Model, DefaultOllamaModel)
		c.Inference.APIBase = orDefault(c.Inference.APIBase, DefaultOllamaBase)
	case ProviderOpenAI:
		c.Inference.Model = orDefault(c.Inference.Model, DefaultOpenAIModel)
		c.Inference.APIBase = orDefault(c.Inference.APIBase, DefaultOpenAIBase)
	case ProviderBedrock:
		c.Inference.Model = orDefault(strings.TrimPrefix(c.Inference.Model, "bedrock/"), DefaultBedrockModel)
	}
	c.Inference.APIBase = strings.TrimRight(c.Inference.APIBase, "/")

	for i := range c.Exclusions {
		c.Exclusions[i].Domain = validator.NormalizeDomain(c.Exclusions[i].Domain)
	}
}

// Redacted returns a copy with secrets masked, for logs and `config show`.
func (c Config) Redacted() Config {
	out := c
	if out.Inference.APIToken != "" {
		out.Inference.APIToken = "***"
	}
	if out.NVD.APIKey != "" {
		out.NVD.APIKey = "***"
	}
	if out.Cache.RedisURL != "" {
		out.Cache.RedisURL = "***"
	}
	return out
}

// ToYAML serializa la configuración efectiva (útil para debugging).
func (c Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c.Redacted())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Helpers

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := getenv(k, ""); v != "" {
			return v
		}
	}
	return ""
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(v string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return i
}

func parseFloat(v string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}

// parseDuration acepta "15s" o un número de segundos.
func parseDuration(v string, def time.Duration) time.Duration {
	v = strings.TrimSpace(v)
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
