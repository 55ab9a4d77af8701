package main

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/jotter/internal/backup"
	"github.com/dukerupert/jotter/internal/database"
	"github.com/dukerupert/jotter/internal/store"
)

func newBackupManager(db *sql.DB) *backup.Manager {
	b := cfg.Backup
	return backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  b.Endpoint,
			Bucket:    b.Bucket,
			Region:    b.Region,
			AccessKey: b.AccessKey,
			SecretKey: b.SecretKey,
		},
		Passphrase:    b.Passphrase,
		Interval:      b.Interval,
		RetentionDays: b.RetentionDays,
	}, db, store.NewBackupStore(db), func(s backup.Status) {
		logger.Debug("backup status", "state", s.State, "error", s.Error)
	}, logger.With("component", "backup"))
}

// withBackupManager opens the database and runs fn against an enabled manager.
func withBackupManager(fn func(m *backup.Manager) error) error {
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	m := newBackupManager(db)
	if !m.Enabled() {
		return backup.ErrDisabled
	}
	return fn(m)
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage encrypted database backups",
}

var backupRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Back up the database now and apply retention",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackupManager(func(m *backup.Manager) error {
			b, err := m.Run(cmd.Context())
			if err != nil {
				return err
			}
			if err := m.Cleanup(cmd.Context()); err != nil {
				logger.Warn("backup cleanup", "error", err)
			}
			fmt.Println(success(fmt.Sprintf("Uploaded %s (%d bytes)", b.ObjectKey, b.SizeBytes)))
			return nil
		})
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded backups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withBackupManager(func(m *backup.Manager) error {
			list, err := m.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Println("No backups found.")
				return nil
			}
			for _, b := range list {
				fmt.Printf("  %s  %s %s\n", faint(b.StartedAt.Local().Format(timeLayout)), bold(b.ObjectKey), faint(string(b.Status)))
				if b.ErrorMessage != "" {
					fmt.Printf("         %s\n", yellow(b.ErrorMessage))
				}
			}
			return nil
		})
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <key> <path>",
	Short: "Download and decrypt a backup into a new database file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackupManager(func(m *backup.Manager) error {
			start := time.Now()
			if err := m.Restore(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Println(success(fmt.Sprintf("Restored %s to %s in %s", args[0], args[1], time.Since(start).Round(time.Millisecond))))
			return nil
		})
	},
}

func init() {
	backupListCmd.Flags().IntP("limit", "n", 20, "number of backups")
	backupCmd.AddCommand(backupRunCmd, backupListCmd, backupRestoreCmd)
	rootCmd.AddCommand(backupCmd)
}
