package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"littlesteps/internal/profile"
	"littlesteps/internal/storage"
)

// Backup is the export file format
type Backup struct {
	Version    int                         `json:"version"`
	ExportedAt time.Time                   `json:"exportedAt"`
	Devices    map[string]profile.Snapshot `json:"devices"`
}

const backupVersion = 1

// stopServerNote closes the help of every command that writes storage
const stopServerNote = `Stop the server before running this command. A running server keeps
its own copy of each active device's profiles and will overwrite the
change the next time that device edits or selects a profile.`

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List devices that have stored data",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		summaries, err := storage.Namespaces(cmd.Context(), e.db)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, ns := range summaries {
			fmt.Fprintf(out, "%s\t%d items\n", ns.Namespace, ns.Items)
		}
		if len(summaries) == 0 {
			fmt.Fprintln(out, "No devices found")
		}
		return nil
	},
}

var (
	exportDevice string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write profiles to a JSON backup",
	Long: `Export child profiles to a JSON file.

Without --device every device is exported.`,
	RunE: runExport,
}

var (
	importInput   string
	importReplace bool
	importYes     bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Restore profiles from a JSON backup",
	Long: `Import child profiles from a JSON backup.

Profiles are merged by id unless --replace is given, which overwrites
each device's collection (WARNING: destructive).

` + stopServerNote,
	RunE: runImport,
}

var (
	clearDevice string
	clearYes    bool
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete everything stored for a device",
	Long: `Delete every stored item for one device.

` + stopServerNote,
	RunE: runClear,
}

func init() {
	exportCmd.Flags().StringVar(&exportDevice, "device", "", "Device id to export (default: all devices)")
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	importCmd.Flags().StringVar(&importInput, "input", "", "Input file path (required)")
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "Replace existing profiles instead of merging")
	importCmd.Flags().BoolVar(&importYes, "yes", false, "Skip the confirmation prompt")
	_ = importCmd.MarkFlagRequired("input")

	clearCmd.Flags().StringVar(&clearDevice, "device", "", "Device id to clear (required)")
	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "Skip the confirmation prompt")
	_ = clearCmd.MarkFlagRequired("device")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	devices := []string{exportDevice}
	if exportDevice == "" {
		summaries, err := storage.Namespaces(ctx, e.db)
		if err != nil {
			return err
		}
		devices = devices[:0]
		for _, ns := range summaries {
			devices = append(devices, ns.Namespace)
		}
	}

	backup := Backup{Version: backupVersion, ExportedAt: time.Now().UTC(), Devices: make(map[string]profile.Snapshot)}
	for _, id := range devices {
		st, err := profile.Open(ctx, storage.NewSQLStorage(e.db, id), profile.WithSeed(false), profile.WithLogger(e.logger))
		if err != nil {
			return fmt.Errorf("failed to open device %s: %w", id, err)
		}
		backup.Devices[id] = st.Snapshot()
		st.Close()
	}

	// Generate default filename if not provided
	outputPath := exportOutput
	if outputPath == "" {
		outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	}
	if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	raw, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}

	e.logger.Info("Export complete", zap.String("path", outputPath), zap.Int("devices", len(backup.Devices)))
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	raw, err := os.ReadFile(importInput)
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}
	var backup Backup
	if err := json.Unmarshal(raw, &backup); err != nil {
		return fmt.Errorf("failed to parse backup: %w", err)
	}
	if backup.Version != backupVersion {
		return fmt.Errorf("unsupported backup version %d", backup.Version)
	}

	if importReplace && !importYes && !confirm(cmd, "WARNING: This will replace the profiles of every device in the backup. Make sure the server is stopped.") {
		fmt.Fprintln(cmd.OutOrStdout(), "Import cancelled")
		return nil
	}

	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	for id, snap := range backup.Devices {
		st, err := profile.Open(ctx, storage.NewSQLStorage(e.db, id), profile.WithSeed(false), profile.WithLogger(e.logger))
		if err != nil {
			return fmt.Errorf("failed to open device %s: %w", id, err)
		}
		n, err := st.Restore(ctx, snap, importReplace)
		st.Close()
		if err != nil {
			return fmt.Errorf("failed to restore device %s: %w", id, err)
		}
		e.logger.Info("Device restored", zap.String("device", id), zap.Int("profiles", n))
	}
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	if !clearYes && !confirm(cmd, fmt.Sprintf("WARNING: This will delete all data for device %s. Make sure the server is stopped.", clearDevice)) {
		fmt.Fprintln(cmd.OutOrStdout(), "Clear cancelled")
		return nil
	}

	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	if err := storage.Clear(cmd.Context(), e.db, clearDevice); err != nil {
		return err
	}
	e.logger.Info("Device cleared", zap.String("device", clearDevice))
	return nil
}

func confirm(cmd *cobra.Command, warning string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s Type 'yes' to confirm: ", warning)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	return strings.TrimSpace(line) == "yes"
}
