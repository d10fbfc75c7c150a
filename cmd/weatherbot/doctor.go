package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, secrets, usage database and status port",
		Long: `Verifies that weatherbot's configuration loads, that the Telegram token
and provider keys are present, and that the optional usage database and
status port are usable. No provider requests are made.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("weatherbot doctor v%s\n\n", version)

			var passed, failed, warned int

			if path := resolveConfigPath(); path == "" {
				printWarn("Config file", "none; using defaults and environment")
				warned++
			} else {
				printPass("Config file", path)
				passed++
			}

			cfg, err := loadConfig()
			if err != nil {
				printFail("Config", err.Error())
				fmt.Printf("\n%d passed, %d warnings, 1 failed\n", passed, warned)
				return err
			}
			printPass("Config", "valid")
			passed++

			secrets := []struct{ name, value string }{
				{"TELEGRAM_TOKEN", cfg.Telegram.Token},
				{"WEATHER_API_KEY", cfg.Weather.APIKey},
				{"NEWS_API_KEY", cfg.News.APIKey},
			}
			for _, s := range secrets {
				if s.value == "" {
					printFail(s.name, "not set")
					failed++
				} else {
					printPass(s.name, "set")
					passed++
				}
			}

			if cfg.Usage.Enabled {
				if err := checkDatabase(cfg.Usage.DBPath); err != nil {
					printFail("Usage database", err.Error())
					failed++
				} else {
					printPass("Usage database", cfg.Usage.DBPath)
					passed++
				}
			} else {
				printWarn("Usage database", "disabled")
				warned++
			}

			if cfg.Status.Enabled {
				if err := checkPort(cfg.Status.Addr()); err != nil {
					printWarn("Status port", fmt.Sprintf("%s may be in use: %v", cfg.Status.Addr(), err))
					warned++
				} else {
					printPass("Status port", cfg.Status.Addr()+" available")
					passed++
				}
			}

			fmt.Printf("\nResults: %d passed, %d warnings, %d failed\n", passed, warned, failed)
			if failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			return nil
		},
	}
}

func checkDatabase(dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("cannot create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("cannot open: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("cannot ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS _doctor_write_check (id INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	_, _ = db.ExecContext(ctx, "DROP TABLE IF EXISTS _doctor_write_check")
	return nil
}

func checkPort(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return ln.Close()
}

func printPass(check, detail string) {
	fmt.Printf("  [PASS] %-18s %s\n", check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  [FAIL] %-18s %s\n", check, detail)
}

func printWarn(check, detail string) {
	fmt.Printf("  [WARN] %-18s %s\n", check, detail)
}
