package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// ServerConfig holds configuration variables for the server.
type ServerConfig struct {
	Scheme string
	Host   string
	Port   string
}

// URL returns the main gateway URL for the server.
func (s *ServerConfig) URL() string {
	host := s.Host
	includePort := func() bool {
		if s.Port == "" {
			return false
		}
		if s.Scheme == "http" {
			return s.Port != "80"
		}
		// s.Scheme == "https"
		return s.Port != "443"
	}()
	if includePort {
		host = fmt.Sprintf("%s:%s", host, s.Port)
	}
	uri := url.URL{
		Scheme: s.Scheme,
		Host:   host,
	}
	return uri.String()
}

// Addr returns the listen address for the server.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// DatabaseConfig holds configuration variables for the document store.
type DatabaseConfig struct {
	Driver string // "badger" (embedded, default) or "dgraph"

	// For embedded DB
	Dir string // Path to store data in

	// For Dgraph
	Host string
	Port string
}

// AuthConfig holds settings for password hashing and session tokens.
type AuthConfig struct {
	// Secret signs session tokens (HS256). Must be set in production;
	// the default exists so tests and local runs work out of the box.
	Secret string

	// BcryptCost selects the adaptive hash cost. 0 uses the bcrypt default.
	BcryptCost int

	// TokenExpiry, when nonzero, stamps an expiration on issued tokens.
	// The default of zero issues non-expiring tokens, matching the
	// behavior this server replaces. Enabling it is recommended.
	TokenExpiry time.Duration
}

// Config holds configuration information for the program.
type Config struct {
	Server   *ServerConfig
	Database *DatabaseConfig
	Auth     *AuthConfig
}

var (
	// Current is the current configuration for the server.
	Current Config

	configPath string
)

func setConfigDefaults() {
	viper.SetDefault("server", map[string]interface{}{
		"scheme": "http",
		"host":   "localhost",
		"port":   "4000",
	})

	viper.SetDefault("database", map[string]interface{}{
		"driver": "badger",
		"host":   "localhost",
		"port":   "9080",
	})

	viper.SetDefault("auth", map[string]interface{}{
		"secret":      "bizcard-dev-secret",
		"bcryptCost":  0,
		"tokenExpiry": time.Duration(0),
	})
}

// LoadConfig loads the config file from disk.
func LoadConfig() {
	viper.AddConfigPath("/etc/bizcard/")
	viper.AddConfigPath("$HOME/.bizcard")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	setConfigDefaults()

	viper.SetEnvPrefix("bizcard")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No configuration found. Running with defaults...")
			configPath, err = getConfigurationDirectory()
			if err != nil {
				panic(err)
			}
		} else {
			panic(fmt.Errorf("unable to read config file: %v", err))
		}
	} else {
		configPath = filepath.Dir(viper.ConfigFileUsed())
	}

	err = viper.Unmarshal(&Current)
	if err != nil {
		panic(fmt.Errorf("error unmarshalling config: %v", err))
	}

	// Set paths with known configPath
	if Current.Database.Dir == "" {
		Current.Database.Dir = filepath.Join(configPath, "data")
	}
}

func getConfigurationDirectory() (string, error) {
	var configDir string

	// Prefer /etc
	configDir = "/etc/bizcard"
	if _, err := os.Stat(configDir); err == nil {
		return configDir, nil
	} else if os.IsNotExist(err) {
		// Try to create /etc/bizcard
		// For non-sudo users, this is not possible
		if err := os.Mkdir(configDir, 0770); err == nil {
			return configDir, nil
		}
	} else {
		return "", err
	}

	// Check home directory
	home, err := homedir.Dir()
	if err != nil {
		log.Fatalf("Could not retrieve home directory: %v", err)
	}
	configDir = filepath.Join(home, ".bizcard")
	if _, err := os.Stat(configDir); err == nil {
		return configDir, nil
	} else if os.IsNotExist(err) {
		if err := os.Mkdir(configDir, 0777); err == nil {
			return configDir, nil
		}
	} else {
		return "", err
	}

	return os.TempDir(), nil
}
