package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Configuration struct {
	// Port the web interface listens on.
	Port uint16
	// Endpoint is the API base URL offered to browsers that have not chosen one yet. It may be
	// empty, in which case nothing is loaded until the user enters an endpoint.
	Endpoint string
	// DbUrl is the path to the sqlite database holding the stored sessions.
	DbUrl            string
	MigrationsFolder string
	// AllowedHosts, when not empty, are the only API hosts browsers may point the client at.
	// Entries match a host name or a host:port pair.
	AllowedHosts []string
	// Secret seals the stored access tokens and the session cookies. Changing it logs everybody
	// out.
	Secret string
	// StaticDir is the directory on which the stylesheet and other static files can be found.
	StaticDir string
	// RequestTimeout bounds every call to the API. Zero means no timeout.
	RequestTimeout time.Duration
	// SessionLifetime is how long the browser keeps its profile cookie.
	SessionLifetime time.Duration
	// Debug, if true, will make the application log all HTTP requests and other events.
	Debug bool
}

const (
	EnvPrefix  = "BLOG"
	ConfigName = "blogclient"
)

// Defaults are the values used for keys that neither the config file nor the environment set.
var Defaults = map[string]any{
	"port":              8080,
	"endpoint":          "",
	"allowed_hosts":     []string{},
	"db_url":            "blogclient.db",
	"migrations_folder": "migrations",
	"static_dir":        "static",
	"request_timeout":   time.Duration(0),
	"session_lifetime":  30 * 24 * time.Hour,
	"debug":             false,
}

// ReadConfig reads blogclient.toml from the working directory, if there is one, then lets
// BLOG_* environment variables override it.
func ReadConfig() (Configuration, error) {
	v := viper.New()
	for key, value := range Defaults {
		v.SetDefault(key, value)
	}
	v.SetConfigName(ConfigName)
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Configuration{}, err
		}
	}
	return FromViper(v)
}

func FromViper(v *viper.Viper) (Configuration, error) {
	cfg := Configuration{
		Port:             v.GetUint16("port"),
		Endpoint:         v.GetString("endpoint"),
		AllowedHosts:     v.GetStringSlice("allowed_hosts"),
		DbUrl:            v.GetString("db_url"),
		MigrationsFolder: v.GetString("migrations_folder"),
		Secret:           v.GetString("secret"),
		StaticDir:        v.GetString("static_dir"),
		RequestTimeout:   v.GetDuration("request_timeout"),
		SessionLifetime:  v.GetDuration("session_lifetime"),
		Debug:            v.GetBool("debug"),
	}

	if len(cfg.Secret) < 32 {
		return cfg, errors.New("secret must be at least 32 characters long")
	}
	return cfg, nil
}
