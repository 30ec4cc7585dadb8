package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env    string `yaml:"env" env-default:"local"`
	Listen struct {
		BindIP string `yaml:"bind_ip" env-default:"127.0.0.1"`
		Port   string `yaml:"port" env-default:"9200"`
		ApiKey string `yaml:"key" env-default:""`
	} `yaml:"listen"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		Host     string `yaml:"host" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env-default:"27017"`
		User     string `yaml:"user" env-default:"admin"`
		Password string `yaml:"password" env-default:"pass"`
		Database string `yaml:"database" env-default:""`
	} `yaml:"mongo"`
	OpenAI struct {
		ApiKey         string `yaml:"api_key" env-default:""`
		Model          string `yaml:"model" env-default:"gpt-4o-mini"`
		TimeoutSeconds int    `yaml:"timeout_seconds" env-default:"30"`
	} `yaml:"openai"`
	Chat struct {
		RetentionDays          int `yaml:"retention_days" env-default:"14"`
		InactivityGapHours     int `yaml:"inactivity_gap_hours" env-default:"8"`
		PresenceTimeoutSeconds int `yaml:"presence_timeout_seconds" env-default:"60"`
		SweepIntervalHours     int `yaml:"sweep_interval_hours" env-default:"24"`
	} `yaml:"chat"`
}

// Retention returns the default retention window.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Chat.RetentionDays) * 24 * time.Hour
}

// InactivityGap returns the idle span after which a returning visitor gets a
// fresh room instead of reattaching to the previous one.
func (c *Config) InactivityGap() time.Duration {
	return time.Duration(c.Chat.InactivityGapHours) * time.Hour
}

func (c *Config) PresenceTimeout() time.Duration {
	return time.Duration(c.Chat.PresenceTimeoutSeconds) * time.Second
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Chat.SweepIntervalHours) * time.Hour
}

func (c *Config) AssistantTimeout() time.Duration {
	return time.Duration(c.OpenAI.TimeoutSeconds) * time.Second
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("%s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
