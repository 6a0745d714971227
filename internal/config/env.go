package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// Deriver names accepted by DERIVER.
const (
	DeriverEphemeral     = "ephemeral"
	DeriverDeterministic = "deterministic"
)

// Config contains all configuration parameters for the application.
// Note: the vault password is prompted at runtime and stored in memory - use GetVaultPasswordBytes()
type Config struct {
	Port              string        `envconfig:"PORT" default:"8080"`
	DataDir           string        `envconfig:"DATA_DIR" default:"./data"`
	SweepInterval     time.Duration `envconfig:"SWEEP_INTERVAL" default:"60s"`
	RecoveryThreshold time.Duration `envconfig:"RECOVERY_THRESHOLD" default:"10m"`
	RecoveryAddress   string        `envconfig:"RECOVERY_ADDRESS"`
	OneClickAPIURL    string        `envconfig:"ONECLICK_API_URL" default:"https://1click.chaindefuser.com"`
	OneClickJWT       string        `envconfig:"ONECLICK_JWT"`
	QuoteRateLimit    float64       `envconfig:"QUOTE_RATE_LIMIT" default:"2"`
	SlippageBps       int           `envconfig:"SLIPPAGE_BPS" default:"10"`
	SettlementPoll    time.Duration `envconfig:"SETTLEMENT_POLL_INTERVAL" default:"5s"`
	SolanaRPCURL      string        `envconfig:"SOLANA_RPC_URL" default:"https://api.mainnet-beta.solana.com"`
	CoinGeckoURL      string        `envconfig:"COINGECKO_API_URL" default:"https://api.coingecko.com/api/v3"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"info"`
	Deriver           string        `envconfig:"DERIVER" default:"ephemeral"`
	DerivationAccount string        `envconfig:"DERIVATION_ACCOUNT"`
	DerivationSecret  string        `envconfig:"DERIVATION_SECRET"`
	ChainCatalogPath  string        `envconfig:"CHAIN_CATALOG_PATH"`
	// AllowedIPs may call the API besides loopback; IPs or CIDR ranges.
	AllowedIPs []string `envconfig:"ALLOWED_IPS"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	if err := c.validate(); err != nil {
		return err
	}
	cfg = c
	return nil
}

func (c *Config) validate() error {
	if c.SweepInterval <= 0 {
		return errors.New("SWEEP_INTERVAL must be positive")
	}
	if c.RecoveryThreshold <= 0 {
		return errors.New("RECOVERY_THRESHOLD must be positive")
	}
	if c.SlippageBps < 0 || c.SlippageBps > 50 {
		return fmt.Errorf("SLIPPAGE_BPS must be between 0 and 50, got %d", c.SlippageBps)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	switch c.Deriver {
	case DeriverEphemeral:
	case DeriverDeterministic:
		if c.DerivationAccount == "" || c.DerivationSecret == "" {
			return errors.New("DERIVATION_ACCOUNT and DERIVATION_SECRET are required for the deterministic deriver")
		}
	default:
		return fmt.Errorf("unknown DERIVER %q", c.Deriver)
	}
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// GetPort returns port from configuration
func GetPort() string {
	return Get().Port
}

// GetDataDir returns the vault directory
func GetDataDir() string {
	return Get().DataDir
}

// GetSolanaRPCURL returns Solana RPC URL from configuration
func GetSolanaRPCURL() string {
	return Get().SolanaRPCURL
}

// GetLogLevel returns the parsed log level, info when unset
func GetLogLevel() logrus.Level {
	level, err := logrus.ParseLevel(Get().LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

var passwordBytes []byte

// PromptForPassword prompts the user for the vault password in the terminal.
// The password is read without echoing (hidden input) and stored in memory.
// Call this at startup before the server begins handling requests.
func PromptForPassword() error {
	raw, err := ReadPassword("Enter vault password: ")
	if err != nil {
		return err
	}
	passwordBytes = raw
	return nil
}

// ReadPassword reads one non-empty password from the terminal without echo.
// Caller must zero the returned slice after use.
func ReadPassword(prompt string) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("stdin is not a terminal: run the app interactively to enter password")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("password cannot be empty")
	}

	out := make([]byte, len(raw))
	copy(out, raw)
	clear(raw)
	return out, nil
}

// GetVaultPasswordBytes returns the password stored in memory (from PromptForPassword).
// Returns an error if the password was not set.
// Caller must zero the returned slice after use for security.
func GetVaultPasswordBytes() ([]byte, error) {
	if len(passwordBytes) == 0 {
		return nil, errors.New("password not set: call PromptForPassword at startup")
	}
	out := make([]byte, len(passwordBytes))
	copy(out, passwordBytes)
	return out, nil
}

// ClearPassword zeroes the in-memory password.
func ClearPassword() {
	clear(passwordBytes)
	passwordBytes = nil
}
