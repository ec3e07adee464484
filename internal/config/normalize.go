package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeInstagram(); err != nil {
		return err
	}
	c.normalizeGemini()
	if err := c.normalizeSheets(); err != nil {
		return err
	}
	c.normalizeUploader()
	if err := c.normalizeWorkflow(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeInstagram() error {
	if c.Instagram.AccessToken == "" {
		if value, ok := os.LookupEnv("ACCESS_TOKEN"); ok {
			c.Instagram.AccessToken = value
		}
	}
	if c.Instagram.AccountID == "" {
		if value, ok := os.LookupEnv("INSTAGRAM_ACCOUNT_ID"); ok {
			c.Instagram.AccountID = value
		}
	}
	c.Instagram.AccessToken = strings.TrimSpace(c.Instagram.AccessToken)
	c.Instagram.AccountID = strings.TrimSpace(c.Instagram.AccountID)
	c.Instagram.GraphAPIVersion = strings.TrimSpace(c.Instagram.GraphAPIVersion)
	if c.Instagram.GraphAPIVersion == "" {
		c.Instagram.GraphAPIVersion = defaultGraphAPIVersion
	}
	if strings.TrimSpace(c.Instagram.CookiesPath) == "" {
		c.Instagram.CookiesPath = defaultCookiesPath
	}
	var err error
	if c.Instagram.CookiesPath, err = expandPath(c.Instagram.CookiesPath); err != nil {
		return fmt.Errorf("instagram.cookies_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeGemini() {
	if c.Gemini.APIKey == "" {
		if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok {
			c.Gemini.APIKey = value
		}
	}
	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	c.Gemini.Model = strings.TrimSpace(c.Gemini.Model)
	if c.Gemini.Model == "" {
		c.Gemini.Model = defaultGeminiModel
	}
}

func (c *Config) normalizeSheets() error {
	c.Sheets.SpreadsheetID = strings.TrimSpace(c.Sheets.SpreadsheetID)
	c.Sheets.Worksheet = strings.TrimSpace(c.Sheets.Worksheet)
	if strings.TrimSpace(c.Sheets.CredentialsPath) == "" {
		c.Sheets.CredentialsPath = defaultCredentialsPath
	}
	var err error
	if c.Sheets.CredentialsPath, err = expandPath(c.Sheets.CredentialsPath); err != nil {
		return fmt.Errorf("sheets.credentials_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeUploader() {
	c.Uploader.Endpoint = strings.TrimSpace(c.Uploader.Endpoint)
	if c.Uploader.Endpoint == "" {
		c.Uploader.Endpoint = defaultUploadEndpoint
	}
	if c.Uploader.MaxUploadMiB <= 0 {
		c.Uploader.MaxUploadMiB = defaultMaxUploadMiB
	}
}

func (c *Config) normalizeWorkflow() error {
	if value, ok := os.LookupEnv("POST_INTERVAL_MINUTES"); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("POST_INTERVAL_MINUTES: %w", err)
		}
		c.Workflow.PostIntervalMinutes = parsed
	}
	if c.Workflow.PostIntervalMinutes <= 0 {
		c.Workflow.PostIntervalMinutes = defaultPostInterval
	}
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = 5
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = 10
	}
	if c.Workflow.SheetPollInterval <= 0 {
		c.Workflow.SheetPollInterval = c.Workflow.PostIntervalMinutes * 5 * 60
	}
	if c.Workflow.MaxRetries <= 0 {
		c.Workflow.MaxRetries = defaultMaxRetries
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
