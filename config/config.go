package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del hive.
type Config struct {
	Hive    HiveConfig    `yaml:"hive"`
	Risk    RiskConfig    `yaml:"risk"`
	Safety  SafetyConfig  `yaml:"safety"`
	API     APIConfig     `yaml:"api"`
	Wallet  WalletConfig  `yaml:"wallet"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// HiveConfig controla los tiempos del orquestador y los scanners.
type HiveConfig struct {
	CycleIntervalSeconds  int  `yaml:"cycle_interval_seconds"`  // ciclo secuencial
	ErrorBackoffSeconds   int  `yaml:"error_backoff_seconds"`   // base tras ciclo fallido
	MaxBackoffSeconds     int  `yaml:"max_backoff_seconds"`     // techo del backoff
	StatusIntervalSeconds int  `yaml:"status_interval_seconds"` // reporter concurrente
	ScoutFetchLimit       int  `yaml:"scout_fetch_limit"`
	DualSideFetchLimit    int  `yaml:"dualside_fetch_limit"`
	CryptoScanner         bool `yaml:"crypto_scanner"` // variante crypto del dual-side
}

// RiskConfig son los límites del guardian.
type RiskConfig struct {
	MinGasBalance    float64 `yaml:"min_gas_balance"`    // POL mínimo para operar
	MaxLossPercent   float64 `yaml:"max_loss_percent"`   // stop-loss por posición
	MaxTotalExposure float64 `yaml:"max_total_exposure"` // USDC máximos desplegados
}

// SafetyConfig son los límites de la puerta pre-orden.
type SafetyConfig struct {
	MaxSingleOrderUSD   float64 `yaml:"max_single_order_usd"`
	MaxTotalExposurePct float64 `yaml:"max_total_exposure_pct"`
	DailyLossLimitUSD   float64 `yaml:"daily_loss_limit_usd"`
	BalanceBufferPct    float64 `yaml:"balance_buffer_pct"`
	KillSwitchFile      string  `yaml:"kill_switch_file"`
}

// APIConfig contiene los base URLs de las APIs.
type APIConfig struct {
	GammaBase string `yaml:"gamma_base"`
}

// WalletConfig identifica la wallet operativa. Address y RPC se pueden
// sobreescribir por .env (WALLET_ADDRESS, POLYGON_RPC_URL).
type WalletConfig struct {
	Address string `yaml:"address"`
	RPCURL  string `yaml:"rpc_url"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	BlackboardPath string `yaml:"blackboard_path"` // documento JSON compartido
	HistoryDSN     string `yaml:"history_dsn"`     // SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si
// existe. Los valores del .env sobreescriben los del YAML.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// CycleInterval devuelve el intervalo del ciclo secuencial.
func (c *Config) CycleInterval() time.Duration {
	return time.Duration(c.Hive.CycleIntervalSeconds) * time.Second
}

// ErrorBackoff devuelve la espera base tras un ciclo fallido.
func (c *Config) ErrorBackoff() time.Duration {
	return time.Duration(c.Hive.ErrorBackoffSeconds) * time.Second
}

// MaxBackoff devuelve el techo del backoff exponencial.
func (c *Config) MaxBackoff() time.Duration {
	return time.Duration(c.Hive.MaxBackoffSeconds) * time.Second
}

// StatusInterval devuelve el intervalo del reporter de estado concurrente.
func (c *Config) StatusInterval() time.Duration {
	return time.Duration(c.Hive.StatusIntervalSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WALLET_ADDRESS"); v != "" {
		cfg.Wallet.Address = v
	}
	if v := os.Getenv("POLYGON_RPC_URL"); v != "" {
		cfg.Wallet.RPCURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Hive.CycleIntervalSeconds <= 0 {
		cfg.Hive.CycleIntervalSeconds = 300
	}
	if cfg.Hive.ErrorBackoffSeconds <= 0 {
		cfg.Hive.ErrorBackoffSeconds = 60
	}
	if cfg.Hive.MaxBackoffSeconds <= 0 {
		cfg.Hive.MaxBackoffSeconds = 900
	}
	if cfg.Hive.StatusIntervalSeconds <= 0 {
		cfg.Hive.StatusIntervalSeconds = 60
	}
	if cfg.Hive.ScoutFetchLimit <= 0 {
		cfg.Hive.ScoutFetchLimit = 100
	}
	if cfg.Hive.DualSideFetchLimit <= 0 {
		cfg.Hive.DualSideFetchLimit = 200
	}
	if cfg.Risk.MinGasBalance <= 0 {
		cfg.Risk.MinGasBalance = 1.0
	}
	if cfg.Risk.MaxLossPercent <= 0 {
		cfg.Risk.MaxLossPercent = 20.0
	}
	if cfg.Risk.MaxTotalExposure <= 0 {
		cfg.Risk.MaxTotalExposure = 50.0
	}
	if cfg.Safety.MaxSingleOrderUSD <= 0 {
		cfg.Safety.MaxSingleOrderUSD = 25.0
	}
	if cfg.Safety.MaxTotalExposurePct <= 0 {
		cfg.Safety.MaxTotalExposurePct = 0.80
	}
	if cfg.Safety.DailyLossLimitUSD <= 0 {
		cfg.Safety.DailyLossLimitUSD = 10.0
	}
	if cfg.Safety.BalanceBufferPct <= 0 {
		cfg.Safety.BalanceBufferPct = 0.05
	}
	if cfg.Safety.KillSwitchFile == "" {
		cfg.Safety.KillSwitchFile = "/run/hivebot/kill_switch"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.Storage.BlackboardPath == "" {
		cfg.Storage.BlackboardPath = "blackboard.json"
	}
	if cfg.Storage.HistoryDSN == "" {
		cfg.Storage.HistoryDSN = "hivebot.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
