package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"reelpost/internal/config"
)

func newSetupCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "setup",
		Short:       "Scaffold configuration and verify credential files",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if _, err := os.Stat(target); err == nil && !overwrite {
				fmt.Fprintf(out, "Configuration already exists at %s (use --overwrite to replace it)\n", target)
			} else {
				if err := config.CreateSample(target); err != nil {
					return fmt.Errorf("create sample config: %w", err)
				}
				fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
				fmt.Fprintln(out, "Set access_token, account_id, api_key, and post_interval_minutes before running reelpost.")
			}

			cfg, _, _, err := config.Load(target)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("create directories: %w", err)
			}
			fmt.Fprintf(out, "Staging directory ready: %s\n", cfg.Paths.StagingDir)
			fmt.Fprintf(out, "Log directory ready: %s\n", cfg.Paths.LogDir)

			reportOptionalFile(out, "Google Sheets credentials", cfg.Sheets.CredentialsPath, "sheet ingestion will stay dormant until the file appears")
			reportOptionalFile(out, "Instagram cookie file", cfg.Instagram.CookiesPath, "Instagram-hosted source links will not be fetchable")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func reportOptionalFile(out io.Writer, label, path, consequence string) {
	if strings.TrimSpace(path) == "" {
		fmt.Fprintf(out, "Warning: no %s path configured; %s\n", label, consequence)
		return
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(out, "Warning: %s not found at %s; %s\n", label, path, consequence)
		return
	}
	fmt.Fprintf(out, "%s found: %s\n", label, path)
}
