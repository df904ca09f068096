package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/kkkkikiki/crowdfund/internal/address"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `env:",prefix=SERVER_"`

	// Database configuration
	Database DatabaseConfig `env:",prefix=DB_"`

	// Application configuration
	App AppConfig `env:",prefix=APP_"`

	// Ledger program configuration
	Ledger LedgerConfig `env:",prefix=LEDGER_"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port         string `env:"PORT,default=8080"`
	Host         string `env:"HOST,default=0.0.0.0"`
	ReadTimeout  int    `env:"READ_TIMEOUT,default=30"`  // seconds
	WriteTimeout int    `env:"WRITE_TIMEOUT,default=30"` // seconds
}

// DatabaseConfig holds ledger database configuration
type DatabaseConfig struct {
	Driver     string `env:"DRIVER,default=postgres"` // postgres or sqlite
	Host       string `env:"HOST,default=localhost"`
	Port       string `env:"PORT,default=5432"`
	User       string `env:"USER,default=postgres"`
	Password   string `env:"PASSWORD,default=postgres"`
	Name       string `env:"NAME,default=crowdfund"`
	SSLMode    string `env:"SSL_MODE,default=disable"`
	MaxConns   int    `env:"MAX_CONNS,default=25"`
	MinConns   int    `env:"MIN_CONNS,default=5"`
	SQLitePath string `env:"SQLITE_PATH,default=crowdfund.db"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Environment string `env:"ENVIRONMENT,default=development"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
	Debug       bool   `env:"DEBUG,default=false"`
}

// LedgerConfig holds the crowdfunding program parameters
type LedgerConfig struct {
	ProgramID     string            `env:"PROGRAM_ID,default=CeS7WEPrgnfvgLrVPw3BmTDkt9hz6Cu9oUb1ZPjCMymm"`
	PlatformFee   uint64            `env:"PLATFORM_FEE,default=5"`              // percent
	MinDonation   uint64            `env:"MIN_DONATION,default=1000000000"`     // lamports
	MinWithdrawal uint64            `env:"MIN_WITHDRAWAL,default=1000000000"`   // lamports
	RentPerByte   uint64            `env:"RENT_LAMPORTS_PER_BYTE,default=6960"` // lamports
	AuthMaxAge    int               `env:"AUTH_MAX_AGE,default=120"`            // seconds
	Genesis       map[string]uint64 `env:"GENESIS"`                             // address:lamports, credited at startup
}

// Load loads configuration from a .env file, if present, and environment variables
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return process(ctx, envconfig.OsLookuper())
}

func process(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot express as tags
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	program, err := c.Ledger.Program()
	if err != nil {
		return fmt.Errorf("invalid LEDGER_PROGRAM_ID: %w", err)
	}
	if program.IsZero() {
		return errors.New("invalid LEDGER_PROGRAM_ID: the zero address is reserved for the system program")
	}
	if c.Ledger.PlatformFee > 100 {
		return fmt.Errorf("LEDGER_PLATFORM_FEE must be a percentage, got %d", c.Ledger.PlatformFee)
	}
	genesis, err := c.Ledger.GenesisAccounts()
	if err != nil {
		return err
	}
	if c.App.IsProduction() && len(genesis) > 0 {
		return errors.New("invalid LEDGER_GENESIS: genesis funding is disabled in production")
	}
	return nil
}

// GetDatabaseURL returns the PostgreSQL connection URL
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Program returns the program address
func (c *LedgerConfig) Program() (address.Address, error) {
	return address.Parse(c.ProgramID)
}

// GenesisAccounts parses LEDGER_GENESIS
func (c *LedgerConfig) GenesisAccounts() (map[address.Address]uint64, error) {
	accounts := make(map[address.Address]uint64, len(c.Genesis))
	for text, lamports := range c.Genesis {
		addr, err := address.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("invalid LEDGER_GENESIS entry %q: %w", text, err)
		}
		accounts[addr] = lamports
	}
	return accounts, nil
}

// IsDevelopment returns true if running in development environment
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}
