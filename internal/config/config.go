package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	App      App      `mapstructure:",squash"`
	Server   Server   `mapstructure:",squash"`
	Database Database `mapstructure:",squash"`
	Meta     Meta     `mapstructure:",squash"`
	Auth     Auth     `mapstructure:",squash"`
	Codec    Codec    `mapstructure:",squash"`
	Cache    Cache    `mapstructure:",squash"`
	Batch    Batch    `mapstructure:",squash"`
	Sync     Sync     `mapstructure:",squash"`
	Webhook  Webhook  `mapstructure:",squash"`
}

type Server struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type Database struct {
	DSN      string `mapstructure:"-"`
	Driver   string `mapstructure:"database_driver"`
	Password string `mapstructure:"database_password"`
	URL      string `mapstructure:"database_url"`
	User     string `mapstructure:"database_user"`
}

type Meta struct {
	BaseURL    string `mapstructure:"meta_base_url"`
	URL        string `mapstructure:"-"`
	Version    string `mapstructure:"meta_version"`
	AppID      string `mapstructure:"meta_app_id"`
	AppSecret  string `mapstructure:"meta_app_secret"`
	MaxRetries int    `mapstructure:"meta_max_retries"`
}

type App struct {
	LogLevel string `mapstructure:"log_level"`
}

type Auth struct {
	Secret string `mapstructure:"auth_secret"`
}

// Codec controla a cifragem de credenciais em repouso.
type Codec struct {
	SecretKey string `mapstructure:"credential_secret_key"`
	// AllowLegacyPlaintext aceita tokens gravados antes da cifragem entrar em
	// vigor. Desligar após a migração completa da base.
	AllowLegacyPlaintext bool `mapstructure:"credential_allow_legacy_plaintext"`
}

type Cache struct {
	Capacity             int `mapstructure:"cache_capacity"`
	SweepIntervalSeconds int `mapstructure:"cache_sweep_interval_seconds"`
}

type Batch struct {
	CountThreshold  int  `mapstructure:"batch_count_threshold"`
	DebounceDelayMs int  `mapstructure:"batch_debounce_delay_ms"`
	AutoFlush       bool `mapstructure:"batch_auto_flush"`
}

type Sync struct {
	CronSchedule        string `mapstructure:"account_sync_cron"`
	DueThresholdMinutes int    `mapstructure:"account_sync_due_threshold_minutes"`
	LookbackDays        int    `mapstructure:"account_sync_lookback_days"`
	MaxConcurrentJobs   int    `mapstructure:"account_sync_max_concurrent_jobs"`
	Enabled             bool   `mapstructure:"account_sync_enabled"`
}

type Webhook struct {
	AppSecret   string `mapstructure:"webhook_app_secret"`
	VerifyToken string `mapstructure:"webhook_verify_token"`
	QueueSize   int    `mapstructure:"webhook_queue_size"`
	Workers     int    `mapstructure:"webhook_workers"`
	MaxRetries  int    `mapstructure:"webhook_max_retries"`
	BaseDelayMs int    `mapstructure:"webhook_base_delay_ms"`
}

func (s Sync) DueThreshold() time.Duration {
	return time.Duration(s.DueThresholdMinutes) * time.Minute
}

func (c Cache) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

func (b Batch) DebounceDelay() time.Duration {
	return time.Duration(b.DebounceDelayMs) * time.Millisecond
}

func (w Webhook) BaseDelay() time.Duration {
	return time.Duration(w.BaseDelayMs) * time.Millisecond
}

func SetDefaults() {
	viper.SetDefault("HOST", "localhost")
	viper.SetDefault("PORT", 8000)

	viper.SetDefault("DATABASE_DRIVER", "postgres")
	viper.SetDefault("DATABASE_URL", "localhost:5432/campaigns")
	viper.SetDefault("DATABASE_USER", "postgres")
	viper.SetDefault("DATABASE_PASSWORD", "root")

	viper.SetDefault("META_BASE_URL", "https://graph.facebook.com")
	viper.SetDefault("META_VERSION", "v22.0")
	viper.SetDefault("META_APP_ID", "your_app_id")
	viper.SetDefault("META_APP_SECRET", "your_app_secret")
	viper.SetDefault("META_MAX_RETRIES", 3)

	viper.SetDefault("AUTH_SECRET", "your_auth_secret")

	viper.SetDefault("CREDENTIAL_SECRET_KEY", "your_credential_key")
	viper.SetDefault("CREDENTIAL_ALLOW_LEGACY_PLAINTEXT", true)

	viper.SetDefault("CACHE_CAPACITY", 1000)
	viper.SetDefault("CACHE_SWEEP_INTERVAL_SECONDS", 60)

	viper.SetDefault("BATCH_COUNT_THRESHOLD", 10)
	viper.SetDefault("BATCH_DEBOUNCE_DELAY_MS", 100)
	viper.SetDefault("BATCH_AUTO_FLUSH", true)

	// Defaults para sincronização de contas
	viper.SetDefault("ACCOUNT_SYNC_CRON", "*/15 * * * *")        // A cada 15 minutos
	viper.SetDefault("ACCOUNT_SYNC_DUE_THRESHOLD_MINUTES", 10)   // Conta fica devida após 10 minutos
	viper.SetDefault("ACCOUNT_SYNC_LOOKBACK_DAYS", 7)            // 7 dias para buscar métricas
	viper.SetDefault("ACCOUNT_SYNC_MAX_CONCURRENT_JOBS", 3)      // 3 jobs concorrentes
	viper.SetDefault("ACCOUNT_SYNC_ENABLED", false)              // Habilitar sincronização periódica

	viper.SetDefault("WEBHOOK_APP_SECRET", "your_webhook_secret")
	viper.SetDefault("WEBHOOK_VERIFY_TOKEN", "your_verify_token")
	viper.SetDefault("WEBHOOK_QUEUE_SIZE", 1000)
	viper.SetDefault("WEBHOOK_WORKERS", 4)
	viper.SetDefault("WEBHOOK_MAX_RETRIES", 3)
	viper.SetDefault("WEBHOOK_BASE_DELAY_MS", 200)

	viper.SetDefault("LOG_LEVEL", "debug")
}

func NewConfig() (*Config, error) {
	// Primeiro carregar o arquivo .env usando godotenv
	loadEnvFile() // ONLY LOCAL

	config := &Config{}

	// Configurar valores padrão
	SetDefaults()

	// Configurar o Viper
	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv() // Isso permite que o Viper leia variáveis de ambiente

	// Tentar ler o arquivo .env com o Viper (opcional, já que usamos godotenv)
	if err := viper.ReadInConfig(); err != nil {
		logrus.Info("Usando variáveis carregadas pelo godotenv (viper não conseguiu ler .env):", err)
	} else {
		logrus.Info("Arquivo .env lido pelo Viper com sucesso")
	}

	err := viper.Unmarshal(&config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, err
	}

	config.Meta.URL = fmt.Sprintf("%s/%s", config.Meta.BaseURL, config.Meta.Version)

	config.Database.DSN = fmt.Sprintf(
		"%s://%s:%s@%s",
		config.Database.Driver,
		config.Database.User,
		config.Database.Password,
		config.Database.URL,
	)

	return config, nil
}

// Função auxiliar para carregar o arquivo .env usando godotenv
func loadEnvFile() {
	// Obter diretório atual
	cwd, err := os.Getwd()
	if err != nil {
		logrus.Warn("Não foi possível obter o diretório atual:", err)
		return
	}

	// Tentar várias localizações possíveis para o arquivo .env
	locations := []string{
		filepath.Join(cwd, ".env"),               // Diretório atual
		filepath.Join(filepath.Dir(cwd), ".env"), // Diretório pai
		filepath.Join(cwd, "../.env"),            // Diretório acima
		filepath.Join(cwd, "../../.env"),         // Dois diretórios acima
	}

	for _, location := range locations {
		err := godotenv.Load(location)
		if err == nil {
			logrus.Info("Arquivo .env carregado com sucesso de:", location)
			return
		}
	}

	logrus.Warn("Não foi possível carregar o arquivo .env de nenhuma localização conhecida")
}
