package tagfactory

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/go-arrower/tagfactory/alog"
)

// Config configures the fixture factories.
// It is intended to be mapped by viper.
type Config struct {
	Environment Environment `mapstructure:"environment"`

	Factory  Factory  `mapstructure:"factory"`
	Log      Log      `mapstructure:"log"`
	Postgres Postgres `mapstructure:"postgres"`
}

const (
	LocalEnv Environment = "local"
	TestEnv  Environment = "test"
	CIEnv    Environment = "ci"
)

// Environments is the list of all supported environments.
func Environments() []Environment {
	return []Environment{LocalEnv, TestEnv, CIEnv}
}

type Environment string

type (
	Factory struct {
		// SequenceStart is the first value of every sequence, e.g. 1 for tag1.
		SequenceStart int64 `mapstructure:"sequence_start" json:"sequenceStart"`
		// FakerSeed makes fake data reproducible. 0 picks a random seed.
		FakerSeed int64 `mapstructure:"faker_seed" json:"fakerSeed"`
	}

	Log struct {
		Level slog.Level `mapstructure:"level" json:"level"`
	}

	Postgres struct {
		// Enabled stores fixtures in PostgreSQL instead of memory.
		Enabled  bool   `mapstructure:"enabled"   json:"enabled"`
		User     string `mapstructure:"user"      json:"user"`
		Password string `mapstructure:"password"  json:"-"`
		Database string `mapstructure:"database"  json:"database"`
		Host     string `mapstructure:"host"      json:"host"`
		Port     int    `mapstructure:"port"      json:"port"`
		SSLMode  string `mapstructure:"ssl_mode"  json:"sslMode"`
		MaxConns int    `mapstructure:"max_conns" json:"maxConns"`
	}
)

// DefaultConfig returns the configuration used by NewTest.
func DefaultConfig() Config {
	return Config{
		Environment: TestEnv,
		Factory: Factory{
			SequenceStart: 1,
			FakerSeed:     0,
		},
		Log: Log{Level: slog.LevelInfo},
		Postgres: Postgres{
			Enabled:  false,
			User:     "tagfactory",
			Password: "secret",
			Database: "tagfactory",
			Host:     "localhost",
			Port:     5432, //nolint:mnd
			SSLMode:  "disable",
			MaxConns: 10, //nolint:mnd
		},
	}
}

// DefaultViper returns a new viper instance with all default values
// from Config set.
func DefaultViper() *Viper {
	vip := viper.New()

	vip.SetDefault("environment", "test")

	vip.SetDefault("factory.sequence_start", 1)
	vip.SetDefault("factory.faker_seed", 0)

	vip.SetDefault("log.level", "info")

	vip.SetDefault("postgres.enabled", false)
	vip.SetDefault("postgres.user", "tagfactory")
	vip.SetDefault("postgres.password", "secret")
	vip.SetDefault("postgres.database", "tagfactory")
	vip.SetDefault("postgres.host", "localhost")
	vip.SetDefault("postgres.port", 5432)
	vip.SetDefault("postgres.ssl_mode", "disable")
	vip.SetDefault("postgres.max_conns", 10)

	vip.SetEnvPrefix("tagfactory")
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vip.AutomaticEnv()

	return &Viper{Viper: vip}
}

var ErrConfigLoadFailed = errors.New("loading configuration failed")

// Viper is a wrapper around viper.Viper for configuration loading.
// It overwrites Unmarshal, so that the environment and the log level
// are validated without the developer having to think about it.
type Viper struct {
	*viper.Viper
}

func (vip *Viper) Unmarshal(rawVal any, opts ...viper.DecoderConfigOption) error {
	opts = append(opts, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		allowedEnvironmentHookFunc(),
		logLevelHookFunc(),
	)))

	err := vip.Viper.Unmarshal(rawVal, opts...)
	if err != nil {
		return fmt.Errorf("%w: could not decode configuration into struct: %v", ErrConfigLoadFailed, err) //nolint:errorlint // prevent err in api
	}

	return nil
}

func allowedEnvironmentHookFunc() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeOf(Environment("")) {
			return data, nil
		}

		env := Environments()
		if s, ok := data.(string); ok && slices.Contains(env, Environment(s)) {
			return data, nil
		}

		e := make([]string, 0, len(env))
		for _, env := range env {
			e = append(e, string(env))
		}

		return data, fmt.Errorf("value is not allowed, use one of: %s", strings.Join(e, ", ")) //nolint:err113,lll // accept dynamic error
	}
}

func logLevelHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeOf(slog.Level(0)) || f.Kind() != reflect.String {
			return data, nil
		}

		return alog.ParseLevel(data.(string)) //nolint:forcetypeassert,wrapcheck // kind checked above
	}
}
