// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// watchDebounce coalesces the write bursts producers emit while
// replacing the artifact.
const watchDebounce = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run enrichment whenever the graph artifact changes",
	Long: `Run one enrichment immediately, then watch the graph artifact's
directory and re-run on every change to the file. Producers typically
write the artifact atomically via rename, so the directory is watched
rather than the file itself. Stop with Ctrl+C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return watchGraph(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func watchGraph(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	graphPath := filepath.Clean(cfg.Graph.Path)
	if err := watcher.Add(filepath.Dir(graphPath)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(graphPath), err)
	}

	runOnce(ctx)

	var debounce *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			logger.Info("watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != graphPath {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})

		case <-pending:
			logger.Info("graph changed, re-running enrichment", "path", graphPath)
			runOnce(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

// runOnce executes a single enrichment run. Failures are logged so the
// watch loop survives a half-written or invalid artifact.
func runOnce(ctx context.Context) {
	summary, err := runEnrichment(ctx)
	if err != nil {
		logger.Error("enrichment run failed", "error", err)
		return
	}
	printSummary(summary)
}
