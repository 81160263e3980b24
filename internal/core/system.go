// Package core contains the pipeline roles and their orchestration: the
// Sender, Repeater and Gateway types plus the System that manages their
// lifecycle from one YAML configuration.
package core

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/nolfonzo/SensorSentinel/internal/model"
)

// LoadConfig reads the YAML configuration at path over the defaults. A
// missing file is not an error; the defaults then apply unchanged.
func LoadConfig(path string) (model.Config, error) {
	cfg := model.DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("config file absent, using defaults", "path", path)
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	fillConfig(&cfg)
	return cfg, nil
}

// fillConfig restores defaults for fields the file left empty or set to
// values no role can run with.
func fillConfig(cfg *model.Config) {
	def := model.DefaultConfig()
	if cfg.Env == "" {
		cfg.Env = def.Env
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.Node.Board == "" {
		cfg.Node.Board = def.Node.Board
	}
	if cfg.Node.SensorIntervalMs <= 0 {
		cfg.Node.SensorIntervalMs = def.Node.SensorIntervalMs
	}
	if cfg.Radio.Baud <= 0 {
		cfg.Radio.Baud = def.Radio.Baud
	}
	if cfg.Radio.DutyCyclePct <= 0 || cfg.Radio.DutyCyclePct > 100 {
		cfg.Radio.DutyCyclePct = def.Radio.DutyCyclePct
	}
	if cfg.Radio.MinSendIntervalMs <= 0 {
		cfg.Radio.MinSendIntervalMs = def.Radio.MinSendIntervalMs
	}
	if cfg.Gnss.Baud <= 0 {
		cfg.Gnss.Baud = def.Gnss.Baud
	}
	if cfg.Dedup.RepeaterCapacity <= 0 {
		cfg.Dedup.RepeaterCapacity = def.Dedup.RepeaterCapacity
	}
	if cfg.Dedup.GatewayCapacity <= 0 {
		cfg.Dedup.GatewayCapacity = def.Dedup.GatewayCapacity
	}
	if cfg.Mqtt.Broker == "" {
		cfg.Mqtt.Broker = def.Mqtt.Broker
	}
	if cfg.Mqtt.TopicPrefix == "" {
		cfg.Mqtt.TopicPrefix = def.Mqtt.TopicPrefix
	}
	if cfg.Mqtt.StatusIntervalMs <= 0 {
		cfg.Mqtt.StatusIntervalMs = def.Mqtt.StatusIntervalMs
	}
	if cfg.Fog.HTTPAddr == "" {
		cfg.Fog.HTTPAddr = def.Fog.HTTPAddr
	}
	if cfg.Fog.SQLitePath == "" {
		cfg.Fog.SQLitePath = def.Fog.SQLitePath
	}
}

// Role is one runnable pipeline component.
type Role interface {
	Start() error
	Stop()
}

// System manages the lifecycle of the roles a binary runs.
type System struct {
	Cfg   model.Config
	roles []Role

	started   bool
	startLock sync.Mutex
}

// NewSystem builds an empty system over the configuration.
func NewSystem(cfg model.Config) *System {
	return &System{Cfg: cfg}
}

// Add registers a role. Roles start in registration order and stop in
// reverse.
func (s *System) Add(r Role) {
	s.roles = append(s.roles, r)
}

// StartAll starts every registered role. The first failure stops the roles
// already running and is returned.
func (s *System) StartAll() error {
	s.startLock.Lock()
	defer s.startLock.Unlock()
	if s.started {
		return nil
	}
	for i, r := range s.roles {
		if err := r.Start(); err != nil {
			for j := i - 1; j >= 0; j-- {
				s.roles[j].Stop()
			}
			return err
		}
	}
	s.started = true
	return nil
}

// StopAll stops every role in reverse order.
func (s *System) StopAll() {
	s.startLock.Lock()
	defer s.startLock.Unlock()
	if !s.started {
		return
	}
	for i := len(s.roles) - 1; i >= 0; i-- {
		s.roles[i].Stop()
	}
	s.started = false
}
