// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the YAML config file shape. All fields are optional;
// unset fields keep their current value.
type fileConfig struct {
	Listen      string `yaml:"listen"`
	MetricsAddr string `yaml:"metricsAddr"`
	LogLevel    string `yaml:"logLevel"`

	AfricasTalking struct {
		Username string `yaml:"username"`
		APIKey   string `yaml:"apiKey"`
		SenderID string `yaml:"senderId"`
		BaseURL  string `yaml:"baseUrl"`
	} `yaml:"africasTalking"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       *int   `yaml:"db"`
	} `yaml:"redis"`

	SessionTTL       string   `yaml:"sessionTtl"`
	DBPath           string   `yaml:"dbPath"`
	RateLimitRPM     *int     `yaml:"rateLimitRpm"`
	OfficialContacts []string `yaml:"officialContacts"`
}

// mergeFile overlays values from the YAML file at path onto cfg. A missing
// file is not an error; a malformed one is.
func mergeFile(cfg *AppConfig, path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator's own flag/env
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}

	setIf(&cfg.ListenAddr, fc.Listen)
	setIf(&cfg.MetricsAddr, fc.MetricsAddr)
	setIf(&cfg.LogLevel, fc.LogLevel)
	setIf(&cfg.ATUsername, fc.AfricasTalking.Username)
	setIf(&cfg.ATAPIKey, fc.AfricasTalking.APIKey)
	setIf(&cfg.ATSenderID, fc.AfricasTalking.SenderID)
	setIf(&cfg.ATBaseURL, fc.AfricasTalking.BaseURL)
	setIf(&cfg.RedisAddr, fc.Redis.Addr)
	setIf(&cfg.RedisPassword, fc.Redis.Password)
	if fc.Redis.DB != nil {
		cfg.RedisDB = *fc.Redis.DB
	}
	if fc.SessionTTL != "" {
		ttl, err := time.ParseDuration(fc.SessionTTL)
		if err != nil {
			return fmt.Errorf("sessionTtl: %w", err)
		}
		cfg.SessionTTL = ttl
	}
	setIf(&cfg.DBPath, fc.DBPath)
	if fc.RateLimitRPM != nil {
		cfg.RateLimitRPM = *fc.RateLimitRPM
	}
	if len(fc.OfficialContacts) > 0 {
		cfg.OfficialContacts = fc.OfficialContacts
	}
	return nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
