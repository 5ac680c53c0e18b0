package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/stakewatch/internal/clients"
	"github.com/vadiminshakov/stakewatch/internal/domain"
)

// Environment variables holding the required identifiers.
const (
	EnvAPIKey   = "ALCHEMY_API_KEY"
	EnvAccount  = "USER_ADDRESS"
	EnvContract = "STETH_ADDRESS"
)

const (
	defaultEnvFile        = ".env"
	defaultHistoryPath    = "results.csv"
	defaultJournalDir     = "./wal/stakewatch"
	defaultRPCTimeout     = 30 * time.Second
	defaultConnectRetries = 2
	defaultShowRows       = 10
	DefaultSetupFile      = "stakewatch.yaml"
)

// Config is the resolved runtime configuration handed to the orchestrator.
type Config struct {
	APIKey   string
	Account  string
	Contract string
	// RPCURL defaults to the Alchemy mainnet endpoint for APIKey.
	RPCURL         string
	HistoryPath    string
	JournalDir     string // empty disables the journal
	ABIPath        string // empty uses the embedded ABI
	RPCTimeout     time.Duration
	ConnectRetries int
	Schedule       string // cron expression, empty runs once
	ShowRows       int
	Quiet          bool
	Debug          bool
	// Setup requests the interactive wizard; ConfigPath is where it writes.
	Setup      bool
	ConfigPath string
}

// ConfigTmp is the yaml representation of Config.
type ConfigTmp struct {
	APIKey            string  `yaml:"api_key,omitempty"`
	Account           string  `yaml:"account"`
	Contract          string  `yaml:"contract"`
	RPCURL            string  `yaml:"rpc_url,omitempty"`
	HistoryPath       string  `yaml:"history_path,omitempty"`
	JournalDir        *string `yaml:"journal_dir,omitempty"`
	ABIPath           string  `yaml:"abi_path,omitempty"`
	RPCTimeoutStr     string  `yaml:"rpc_timeout,omitempty"`
	ConnectRetriesStr string  `yaml:"connect_retries,omitempty"`
	Schedule          string  `yaml:"schedule,omitempty"`
	ShowRowsStr       string  `yaml:"show_rows,omitempty"`
}

// Get loads configuration from command-line flags, the process environment and a .env file.
func Get() (Config, error) {
	return Load(os.Args[1:], os.LookupEnv)
}

// Load resolves configuration from args and lookupEnv. Precedence: flags, environment,
// .env file, yaml file, defaults.
func Load(args []string, lookupEnv func(string) (string, bool)) (Config, error) {
	fs := flag.NewFlagSet("stakewatch", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to yaml config")
	envFile := fs.String("env", defaultEnvFile, "path to .env file with "+EnvAPIKey+", "+EnvAccount+", "+EnvContract)
	historyPath := fs.String("history", "", "history csv path (default "+defaultHistoryPath+")")
	journalDir := fs.String("journal", "", "journal WAL directory (default "+defaultJournalDir+")")
	abiPath := fs.String("abi", "", "contract abi json path (default embedded stETH abi)")
	schedule := fs.String("schedule", "", "cron expression, e.g. '@every 1h'; empty runs once")
	rows := fs.Int("rows", -1, "history rows printed after a run")
	setup := fs.Bool("setup", false, "run the interactive configuration wizard")
	debug := fs.Bool("debug", false, "development logging")
	quiet := fs.Bool("quiet", false, "do not print the history table")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *setup {
		path := *configPath
		if path == "" {
			path = DefaultSetupFile
		}
		return Config{Setup: true, ConfigPath: path, Debug: *debug}, nil
	}

	cfg := Config{
		HistoryPath:    defaultHistoryPath,
		JournalDir:     defaultJournalDir,
		RPCTimeout:     defaultRPCTimeout,
		ConnectRetries: defaultConnectRetries,
		ShowRows:       defaultShowRows,
		ConfigPath:     *configPath,
	}

	if *configPath != "" {
		tmp, err := readYaml(*configPath)
		if err != nil {
			return Config{}, err
		}
		if err := tmp.apply(&cfg); err != nil {
			return Config{}, err
		}
	}

	dotenv, err := readEnvFile(*envFile, *envFile != defaultEnvFile)
	if err != nil {
		return Config{}, err
	}
	lookup := func(key string) string {
		if v, ok := lookupEnv(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return strings.TrimSpace(dotenv[key])
	}
	if v := lookup(EnvAPIKey); v != "" {
		cfg.APIKey = v
	}
	if v := lookup(EnvAccount); v != "" {
		cfg.Account = v
	}
	if v := lookup(EnvContract); v != "" {
		cfg.Contract = v
	}

	if *historyPath != "" {
		cfg.HistoryPath = *historyPath
	}
	if *journalDir != "" {
		cfg.JournalDir = *journalDir
	}
	if *abiPath != "" {
		cfg.ABIPath = *abiPath
	}
	if *schedule != "" {
		cfg.Schedule = *schedule
	}
	if *rows >= 0 {
		cfg.ShowRows = *rows
	}
	cfg.Debug = *debug
	cfg.Quiet = *quiet

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	if cfg.RPCURL == "" {
		cfg.RPCURL = clients.AlchemyMainnetURL(cfg.APIKey)
	}

	return cfg, nil
}

func (c Config) validate() error {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, EnvAPIKey)
	}
	if c.Account == "" {
		missing = append(missing, EnvAccount)
	}
	if c.Contract == "" {
		missing = append(missing, EnvContract)
	}
	if len(missing) > 0 {
		return errors.Wrapf(domain.ErrConfigurationMissing, "%s not found in the environment", strings.Join(missing, ", "))
	}

	if !common.IsHexAddress(c.Account) {
		return fmt.Errorf("invalid %s %q: not a hex address", EnvAccount, c.Account)
	}
	if !common.IsHexAddress(c.Contract) {
		return fmt.Errorf("invalid %s %q: not a hex address", EnvContract, c.Contract)
	}
	if c.RPCTimeout <= 0 {
		return fmt.Errorf("rpc_timeout must be positive, got %s", c.RPCTimeout)
	}
	if c.ConnectRetries < 0 {
		return fmt.Errorf("connect_retries must not be negative, got %d", c.ConnectRetries)
	}

	return nil
}

// readEnvFile parses a dotenv file without touching the process environment.
func readEnvFile(path string, required bool) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, errors.Wrapf(err, "read env file %s", path)
	}
	return values, nil
}

func readYaml(path string) (ConfigTmp, error) {
	var tmp ConfigTmp

	f, err := os.ReadFile(path)
	if err != nil {
		return tmp, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return tmp, errors.Wrapf(err, "parse config %s", path)
	}

	return tmp, nil
}

func (c ConfigTmp) apply(cfg *Config) error {
	cfg.APIKey = strings.TrimSpace(c.APIKey)
	cfg.Account = strings.TrimSpace(c.Account)
	cfg.Contract = strings.TrimSpace(c.Contract)
	cfg.RPCURL = strings.TrimSpace(c.RPCURL)
	cfg.ABIPath = c.ABIPath
	cfg.Schedule = c.Schedule

	if c.HistoryPath != "" {
		cfg.HistoryPath = c.HistoryPath
	}
	if c.JournalDir != nil {
		cfg.JournalDir = *c.JournalDir
	}

	if c.RPCTimeoutStr != "" {
		d, err := time.ParseDuration(c.RPCTimeoutStr)
		if err != nil {
			return fmt.Errorf("incorrect 'rpc_timeout' param in yaml config (must be a duration like 30s), error: %w", err)
		}
		cfg.RPCTimeout = d
	}

	if c.ConnectRetriesStr != "" {
		n, err := strconv.Atoi(c.ConnectRetriesStr)
		if err != nil {
			return fmt.Errorf("incorrect 'connect_retries' param in yaml config (must be an integer), error: %w", err)
		}
		cfg.ConnectRetries = n
	}

	if c.ShowRowsStr != "" {
		n, err := strconv.Atoi(c.ShowRowsStr)
		if err != nil {
			return fmt.Errorf("incorrect 'show_rows' param in yaml config (must be an integer), error: %w", err)
		}
		cfg.ShowRows = n
	}

	return nil
}
