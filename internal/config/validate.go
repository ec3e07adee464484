package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateUploader(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// ValidateCredentials checks the settings the publishing pipeline cannot run
// without. Kept separate from Validate so read-only commands (setup, status,
// queue inspection) work before the operator has filled in the config.
func (c *Config) ValidateCredentials() error {
	if c.Instagram.AccessToken == "" {
		return errors.New("instagram.access_token must be set (or export ACCESS_TOKEN)")
	}
	if c.Instagram.AccountID == "" {
		return errors.New("instagram.account_id must be set (or export INSTAGRAM_ACCOUNT_ID)")
	}
	if c.Gemini.APIKey == "" {
		return errors.New("gemini.api_key must be set (or export GEMINI_API_KEY)")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateUploader() error {
	if !strings.HasPrefix(c.Uploader.Endpoint, "http://") && !strings.HasPrefix(c.Uploader.Endpoint, "https://") {
		return fmt.Errorf("uploader.endpoint must be an http(s) URL, got %q", c.Uploader.Endpoint)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	return ensurePositiveMap(map[string]int{
		"workflow.post_interval_minutes": c.Workflow.PostIntervalMinutes,
		"workflow.queue_poll_interval":   c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval":  c.Workflow.ErrorRetryInterval,
		"workflow.sheet_poll_interval":   c.Workflow.SheetPollInterval,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
