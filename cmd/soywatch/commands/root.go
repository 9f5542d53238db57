package commands

import (
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"github.com/wonny/soywatch/backend/internal/contracts"
	"github.com/wonny/soywatch/backend/pkg/config"
)

var (
	// Global flags
	env       string
	verbose   bool
	today     string
	lookAhead int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "soywatch",
	Short: "大豆期货价格采集 (豆粕 / 豆油, 大商所)",
	Long: `soywatch Unified CLI

대련상품거래소 대두박/대두유 선물의 월물 목록을 계산하고
일별 시세와 주력연속 1년 종가를 수집해 엑셀로 내보냅니다.

Usage:
  go run ./cmd/soywatch [command]

Examples:
  go run ./cmd/soywatch collect
  go run ./cmd/soywatch collect --today 2024-02-15 --lookahead 2
  go run ./cmd/soywatch contracts`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment (development|staging|production), overrides ENV")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&today, "today", "", "run date YYYY-MM-DD (default: wall clock), overrides TODAY")
	rootCmd.PersistentFlags().IntVar(&lookAhead, "lookahead", -1, "valid contract months after the starting month, overrides LOOKAHEAD_MONTHS")
}

// overrides are the command-line values that win over the environment
type overrides struct {
	Env       string
	Verbose   bool
	Today     string
	LookAhead int
	Output    string
	Workers   int
}

// loadConfig loads the environment configuration with flag overrides applied
// before validation, so a flag can correct an invalid environment value
func loadConfig(o overrides) (*config.Config, error) {
	cfg, err := config.Load(func(cfg *config.Config) error {
		return applyOverrides(cfg, o)
	})
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config, o overrides) error {
	if o.Env != "" {
		cfg.Env = o.Env
	}
	if o.Verbose {
		cfg.LogLevel = "debug"
	}
	if o.Today != "" {
		d, err := civil.ParseDate(o.Today)
		if err != nil {
			return fmt.Errorf("%w: --today must be YYYY-MM-DD: %v", contracts.ErrConfiguration, err)
		}
		cfg.TodayOverride = d
	}
	if o.LookAhead >= 0 {
		cfg.Calendar.LookAhead = o.LookAhead
	}
	if o.Output != "" {
		cfg.Output.File = o.Output
	}
	if o.Workers > 0 {
		cfg.Collect.Workers = o.Workers
	}
	return nil
}

func globalOverrides() overrides {
	return overrides{
		Env:       env,
		Verbose:   verbose,
		Today:     today,
		LookAhead: lookAhead,
	}
}
