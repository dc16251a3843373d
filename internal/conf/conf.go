// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package conf loads the application configuration from a TOML file.
package conf

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/go-arcade/autopush/internal/history"
	"github.com/go-arcade/autopush/internal/monitor"
	"github.com/go-arcade/autopush/internal/pipeline"
	"github.com/go-arcade/autopush/internal/scheduler"
	serverhttp "github.com/go-arcade/autopush/internal/server/http"
	"github.com/go-arcade/autopush/internal/task"
	"github.com/go-arcade/autopush/pkg/log"
)

// AppConfig aggregates every component's configuration.
type AppConfig struct {
	Log       log.Conf         `mapstructure:"log"`
	HTTP      serverhttp.HTTP  `mapstructure:"http"`
	History   history.Config   `mapstructure:"history"`
	Monitor   monitor.Config   `mapstructure:"monitor"`
	Scheduler scheduler.Config `mapstructure:"scheduler"`
	Pipeline  pipeline.Config  `mapstructure:"pipeline"`
	Task      task.Config      `mapstructure:"task"`
}

// SetDefaults returns a fully defaulted configuration.
func SetDefaults() AppConfig {
	return AppConfig{
		Log:       *log.SetDefaults(),
		HTTP:      serverhttp.SetDefaults(),
		History:   history.SetDefaults(),
		Monitor:   monitor.SetDefaults(),
		Scheduler: scheduler.SetDefaults(),
		Pipeline:  pipeline.SetDefaults(),
		Task:      task.SetDefaults(),
	}
}

// LoadConfigFile reads the TOML configuration at confFile on top of the
// defaults. The file is watched so an edit gets surfaced in the logs, but
// components copy their config at startup, so changes take effect only
// after a restart.
func LoadConfigFile(confFile string) (*AppConfig, error) {
	cfg := SetDefaults()

	v := viper.New()
	v.SetConfigFile(confFile)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read configuration file: %w", err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration file: %w", err)
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Warnw("configuration file changed, restart to apply", "file", e.Name)
	})

	log.Infow("configuration loaded", "file", confFile)
	return &cfg, nil
}
