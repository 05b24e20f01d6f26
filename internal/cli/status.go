// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - The "flowos status" command: configuration summary,
// backend health and visitor analytics.

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jeranaias/flowos-tui/internal/backend"
	"github.com/jeranaias/flowos-tui/internal/config"
	"github.com/jeranaias/flowos-tui/internal/stats"
	"github.com/jeranaias/flowos-tui/internal/storage"
	"github.com/jeranaias/flowos-tui/internal/ui/styles"
)

// statusReport is the machine-readable shape for --json output.
type statusReport struct {
	Version             string `json:"version"`
	AssistantConfigured bool   `json:"assistant_configured"`
	AssistantModel      string `json:"assistant_model"`
	BackendConfigured   bool   `json:"backend_configured"`
	BackendOnline       bool   `json:"backend_online"`
	Visitors            int    `json:"visitors"`
	VisitorsRemote      bool   `json:"visitors_remote"`
	DataDir             string `json:"data_dir"`
	StoredMessages      int    `json:"stored_messages"`
	StoredMatches       int    `json:"stored_matches"`
}

// HandleStatusCommand prints the current state of the system.
func HandleStatusCommand(args *ArgParser) error {
	cfg := config.Global()
	report := buildStatusReport(cfg)

	if args.BoolFlag("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("FlowOS 状态"))
	fmt.Println()

	if report.AssistantConfigured {
		fmt.Printf("  %s %s\n", infoStyle.Render("助手:"),
			styles.RenderSuccess(report.AssistantModel))
	} else {
		fmt.Printf("  %s %s\n", infoStyle.Render("助手:"),
			styles.RenderWarning("未配置（使用本地回复）"))
	}

	if report.BackendConfigured {
		label := "离线"
		if report.BackendOnline {
			label = "在线"
		}
		fmt.Printf("  %s %s\n", infoStyle.Render("后端:"),
			styles.RenderStatus(report.BackendOnline, label))
	} else {
		fmt.Printf("  %s %s\n", infoStyle.Render("后端:"),
			styles.RenderWarning("未配置"))
	}

	fmt.Printf("  %s %d\n", infoStyle.Render("访问人数:"), report.Visitors)
	fmt.Printf("  %s %s\n", infoStyle.Render("数据目录:"), report.DataDir)
	fmt.Printf("  %s %d\n", infoStyle.Render("已存消息:"), report.StoredMessages)
	fmt.Printf("  %s %d\n", infoStyle.Render("已存匹配:"), report.StoredMatches)
	fmt.Println()
	return nil
}

func buildStatusReport(cfg *config.Config) statusReport {
	report := statusReport{
		Version:             Version,
		AssistantConfigured: cfg.Assistant.APIKey != "",
		AssistantModel:      cfg.Assistant.Model,
		BackendConfigured:   cfg.Backend.BaseURL != "",
	}

	if report.BackendConfigured {
		client := backend.NewClient(cfg.Backend.BaseURL)
		ctx, cancel := context.WithTimeout(context.Background(), backend.HealthTimeout)
		report.BackendOnline = client.CheckHealth(ctx) == nil
		cancel()
	}

	dataDir, err := cfg.DataDir()
	if err == nil {
		report.DataDir = dataDir
	}

	// Visitor count: remote analytics first, local counter otherwise.
	if cfg.Stats.Endpoint != "" {
		client := stats.NewClient(cfg.Stats.Endpoint, cfg.Stats.ShareToken)
		ctx, cancel := context.WithTimeout(context.Background(), stats.DefaultTimeout)
		if count, ok := client.VisitorCount(ctx); ok {
			report.Visitors = count
			report.VisitorsRemote = true
		}
		cancel()
	}
	if !report.VisitorsRemote && dataDir != "" {
		if db, err := storage.OpenVisitDB(filepath.Join(dataDir, "flowos.db")); err == nil {
			if count, err := db.VisitCount(); err == nil {
				report.Visitors = count
			}
			db.Close()
		}
	}

	if dataDir != "" {
		if store, err := storage.NewStoreWithDir(dataDir); err == nil {
			if conv, err := store.LoadHistory(); err == nil && conv != nil {
				report.StoredMessages = conv.Len()
			}
			if matches, err := store.LoadMatches(); err == nil {
				report.StoredMatches = len(matches)
			}
		}
	}

	return report
}
