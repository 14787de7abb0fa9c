package config

import (
	"errors"
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rocketscienceinc/tictactoe-rounds/internal/entity"
)

var ErrPlayersCount = errors.New("exactly two players must be configured")

type Config struct {
	LogLevel   string   `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string   `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string   `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	Redis      Redis    `yaml:"redis"`
	Storage    Storage  `yaml:"storage"`
	Players    []Player `yaml:"players"`
}

type Redis struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Storage struct {
	Key     string `yaml:"key" env:"STORAGE_KEY" env-default:"live-t3-storage-key"`
	Channel string `yaml:"channel" env:"STORAGE_CHANNEL" env-default:"live-t3-storage-events"`
}

type Player struct {
	Name       string `yaml:"name"`
	IconClass  string `yaml:"icon-class"`
	ColorClass string `yaml:"color-class"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	if _, err := config.GetPlayers(); err != nil {
		panic(fmt.Errorf("invalid config: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	if that.Host == "" || that.Port == "" {
		return ""
	}

	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

// GetPlayers - returns the configured pair, or the default one when the list is empty.
// Ids follow the list order.
func (that *Config) GetPlayers() (entity.Players, error) {
	if len(that.Players) == 0 {
		return entity.DefaultPlayers(), nil
	}

	if len(that.Players) != entity.PlayersCount {
		return entity.Players{}, fmt.Errorf("%w: got %d", ErrPlayersCount, len(that.Players))
	}

	defaults := entity.DefaultPlayers()

	var players entity.Players
	for i, player := range that.Players {
		players[i] = entity.Player{
			ID:         i + 1,
			Name:       orDefault(player.Name, defaults[i].Name),
			IconClass:  orDefault(player.IconClass, defaults[i].IconClass),
			ColorClass: orDefault(player.ColorClass, defaults[i].ColorClass),
		}
	}

	return players, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}
