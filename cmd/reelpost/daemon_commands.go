package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelpost/internal/ipc"
	"reelpost/internal/preflight"
	"reelpost/internal/queue"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start queue processing on the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Start()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				return nil
			})
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop queue processing on the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.Stop(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopped")
				return nil
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show system and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatusCommand(cmd, ctx)
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func runStatusCommand(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	var stats map[string]int
	daemonRunning := false
	sheetsActive := false
	var lastError string

	client, dialErr := ipc.Dial(ctx.socketPath())
	if dialErr == nil {
		defer client.Close()
		resp, err := client.Status()
		if err != nil {
			return err
		}
		daemonRunning = resp.Running
		sheetsActive = resp.SheetsActive
		lastError = resp.LastError
		stats = resp.QueueStats
	} else {
		store, err := queue.Open(cfg)
		if err != nil {
			return fmt.Errorf("open queue store: %w", err)
		}
		defer store.Close()
		raw, err := store.Stats(cmd.Context())
		if err != nil {
			return err
		}
		stats = make(map[string]int, len(raw))
		for status, count := range raw {
			stats[string(status)] = count
		}
	}

	for _, line := range renderSectionHeader("System Status", colorize) {
		fmt.Fprintln(stdout, line)
	}
	daemonKind := statusError
	daemonDetail := "Not running"
	if daemonRunning {
		daemonKind = statusOK
		daemonDetail = "Running"
	}
	fmt.Fprintln(stdout, renderStatusLine("Daemon", daemonKind, daemonDetail, colorize))
	if daemonRunning {
		sheetsKind := statusInfo
		sheetsDetail := "Disabled"
		if sheetsActive {
			sheetsKind = statusOK
			sheetsDetail = "Polling"
		}
		fmt.Fprintln(stdout, renderStatusLine("Sheet ingestion", sheetsKind, sheetsDetail, colorize))
	}
	if lastError != "" {
		fmt.Fprintln(stdout, renderStatusLine("Last error", statusWarn, lastError, colorize))
	}
	for _, result := range preflight.RunAll(cmd.Context(), cfg) {
		kind := statusOK
		if !result.Passed {
			kind = statusWarn
		}
		fmt.Fprintln(stdout, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}
	for _, dep := range preflight.CheckSystemDeps(cfg) {
		kind := statusOK
		if !dep.Found {
			kind = statusWarn
			if !dep.Requirement.Optional {
				kind = statusError
			}
		}
		fmt.Fprintln(stdout, renderStatusLine(dep.Requirement.Name, kind, dep.Detail(), colorize))
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Queue Status", colorize) {
		fmt.Fprintln(stdout, line)
	}
	rows := buildQueueStatusRows(stats)
	if len(rows) == 0 {
		fmt.Fprintln(stdout, "Queue is empty")
		return nil
	}
	fmt.Fprint(stdout, renderTable([]tableColumn{{title: "Status"}, {title: "Count", numeric: true}}, rows))
	fmt.Fprintln(stdout)
	return nil
}
