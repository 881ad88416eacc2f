// Package config loads the immutable portal configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tjfontaine/feedlot-portal/internal/core/domain"
)

// DefaultPath is read when no config file is named; it may be absent.
const DefaultPath = "config.yaml"

type Config struct {
	Server    ServerConfig          `koanf:"server"`
	Roles     map[string]RoleConfig `koanf:"roles"`
	Storage   StorageConfig         `koanf:"storage"`
	Ledger    LedgerConfig          `koanf:"ledger"`
	Telemetry TelemetryConfig       `koanf:"telemetry"`
}

type ServerConfig struct {
	Port           int             `koanf:"port"`
	StaticDir      string          `koanf:"static_dir"`
	AllowedOrigins []string        `koanf:"allowed_origins"`
	ReadTimeout    time.Duration   `koanf:"read_timeout"`
	RateLimit      RateLimitConfig `koanf:"rate_limit"`
}

type RateLimitConfig struct {
	RPS   float64 `koanf:"rps"` // 0 disables
	Burst int     `koanf:"burst"`
}

// RoleConfig holds a role's PIN and, in ledger mode, which of the configured
// private keys signs for it.
type RoleConfig struct {
	PIN         string `koanf:"pin"`
	SignerIndex *int   `koanf:"signer_index"`
}

type StorageConfig struct {
	Type string `koanf:"type"` // ndjson, sqlite, postgres, memory
	Path string `koanf:"path"` // ndjson journal file
	// Database configures the sqlite and postgres journals.
	Database DatabaseConfig `koanf:"database"`
}

// DatabaseConfig is the generic database configuration supporting multiple dialects.
type DatabaseConfig struct {
	DSN string `koanf:"dsn"` // Data source name / connection string
}

type LedgerConfig struct {
	// Enabled selects the ledger backend. Setting both rpc_url and
	// contract_address also selects it.
	Enabled         bool     `koanf:"enabled"`
	RPCURL          string   `koanf:"rpc_url"`
	ContractAddress string   `koanf:"contract_address"`
	PrivateKeys     []string `koanf:"private_keys"`
	// Mirror keeps a best-effort local copy of committed records.
	Mirror bool `koanf:"mirror"`
}

type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
}

const (
	StorageNDJSON   = "ndjson"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// legacyEnv maps the flat variables the portal has always honored onto
// config keys. PIN_<ROLE> is handled separately.
var legacyEnv = map[string]string{
	"PORT":             "server.port",
	"RPC_URL":          "ledger.rpc_url",
	"CONTRACT_ADDRESS": "ledger.contract_address",
	"LOG_PATH":         "storage.path",
}

// Load builds the configuration from, in increasing precedence, the YAML file
// at path (DefaultPath when empty, in which case it may be missing), the
// legacy flat environment variables and PORTAL_ prefixed variables using __
// as the nesting separator.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	optional := path == ""
	if optional {
		path = DefaultPath
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !optional || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	foldRoleKeys(k)

	if err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		if value == "" {
			return "", nil
		}
		return legacyKey(key), value
	}), nil); err != nil {
		return nil, err
	}

	if err := k.Load(env.ProviderWithValue("PORTAL_", ".", func(key, value string) (string, interface{}) {
		key = strings.Replace(strings.ToLower(strings.TrimPrefix(key, "PORTAL_")), "__", ".", -1)
		if listKeys[key] {
			return key, splitList(value)
		}
		return key, value
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	defaults := map[string]interface{}{
		"server.port":            3001,
		"server.read_timeout":    "30s",
		"storage.type":           StorageNDJSON,
		"storage.path":           "audit-log.ndjson",
		"ledger.mirror":          true,
		"telemetry.service_name": "feedlot-portal",
	}
	for key, val := range defaults {
		if !k.Exists(key) {
			k.Set(key, val)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	cfg.substitute()
	return &cfg, nil
}

// listKeys are the keys whose PORTAL_ variables hold comma-separated lists.
var listKeys = map[string]bool{
	"ledger.private_keys":    true,
	"server.allowed_origins": true,
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// foldRoleKeys lowercases role names from the file so later layers, which
// always produce lowercase keys, override them. When two spellings of one
// role are present the lowercase one is kept.
func foldRoleKeys(k *koanf.Koanf) {
	for _, key := range k.Keys() {
		if !strings.HasPrefix(key, "roles.") {
			continue
		}
		lower := strings.ToLower(key)
		if lower == key {
			continue
		}
		val := k.Get(key)
		k.Delete(key)
		if !k.Exists(lower) {
			k.Set(lower, val)
		}
	}
}

func legacyKey(name string) string {
	if key, ok := legacyEnv[name]; ok {
		return key
	}
	if role, ok := strings.CutPrefix(name, "PIN_"); ok && domain.Role(role).Known() {
		return "roles." + strings.ToLower(role) + ".pin"
	}
	return ""
}

func (c *Config) substitute() {
	for name, rc := range c.Roles {
		rc.PIN = substituteEnvVars(rc.PIN)
		c.Roles[name] = rc
	}
	for i := range c.Ledger.PrivateKeys {
		c.Ledger.PrivateKeys[i] = substituteEnvVars(c.Ledger.PrivateKeys[i])
	}
	c.Ledger.RPCURL = substituteEnvVars(c.Ledger.RPCURL)
	c.Storage.Database.DSN = substituteEnvVars(c.Storage.Database.DSN)
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// LedgerEnabled reports whether the ledger backend is selected.
func (c *Config) LedgerEnabled() bool {
	return c.Ledger.Enabled || (c.Ledger.RPCURL != "" && c.Ledger.ContractAddress != "")
}

// RoleSecrets returns the configured PIN per role.
func (c *Config) RoleSecrets() map[domain.Role]string {
	out := make(map[domain.Role]string, len(c.Roles))
	for name, rc := range c.Roles {
		out[domain.Role(strings.ToUpper(name))] = rc.PIN
	}
	return out
}

// SignerIndex returns the explicitly configured signer index per role.
func (c *Config) SignerIndex() map[domain.Role]int {
	out := make(map[domain.Role]int)
	for name, rc := range c.Roles {
		if rc.SignerIndex != nil {
			out[domain.Role(strings.ToUpper(name))] = *rc.SignerIndex
		}
	}
	return out
}

// Validate rejects configurations the portal cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server.read_timeout cannot be negative")
	}
	if c.Server.RateLimit.RPS < 0 || c.Server.RateLimit.Burst < 0 {
		return fmt.Errorf("server.rate_limit values cannot be negative")
	}

	seen := make(map[domain.Role]string, len(c.Roles))
	for name := range c.Roles {
		role := domain.Role(strings.ToUpper(name))
		if !role.Known() {
			return fmt.Errorf("roles.%s: unknown role", name)
		}
		if other, ok := seen[role]; ok {
			return fmt.Errorf("roles.%s and roles.%s name the same role", other, name)
		}
		seen[role] = name
	}

	switch c.Storage.Type {
	case StorageNDJSON:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the ndjson journal")
		}
	case StorageSQLite, StoragePostgres:
		if c.Storage.Database.DSN == "" {
			return fmt.Errorf("storage.database.dsn is required for the %s journal", c.Storage.Type)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("storage.type %q is not one of ndjson, sqlite, postgres, memory", c.Storage.Type)
	}

	if !c.LedgerEnabled() {
		return nil
	}
	if c.Ledger.RPCURL == "" {
		return fmt.Errorf("ledger.rpc_url is required when the ledger is enabled")
	}
	if !common.IsHexAddress(c.Ledger.ContractAddress) {
		return fmt.Errorf("ledger.contract_address %q is not a valid address", c.Ledger.ContractAddress)
	}
	if len(c.Ledger.PrivateKeys) == 0 {
		return fmt.Errorf("ledger.private_keys is required when the ledger is enabled")
	}
	for role, idx := range c.SignerIndex() {
		if idx < 0 || idx >= len(c.Ledger.PrivateKeys) {
			return fmt.Errorf("roles.%s.signer_index %d outside ledger.private_keys", strings.ToLower(string(role)), idx)
		}
	}
	return nil
}
