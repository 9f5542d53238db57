package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/wonny/soywatch/backend/internal/calendar"
	"github.com/wonny/soywatch/backend/internal/collector"
	"github.com/wonny/soywatch/backend/internal/contracts"
	"github.com/wonny/soywatch/backend/internal/exporter"
	"github.com/wonny/soywatch/backend/internal/external/eastmoney"
	"github.com/wonny/soywatch/backend/internal/processor"
	"github.com/wonny/soywatch/backend/pkg/config"
	"github.com/wonny/soywatch/backend/pkg/database"
	"github.com/wonny/soywatch/backend/pkg/httputil"
	"github.com/wonny/soywatch/backend/pkg/logger"
	"github.com/wonny/soywatch/backend/pkg/redis"
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "계약 시세 수집 및 엑셀 내보내기",
	Long: `계약 목록을 계산하고 각 월물의 일별 시세와
주력연속 계약의 최근 1년 종가를 수집해 엑셀 파일로 저장합니다.

이 명령어는:
- 오늘 날짜 기준 시작 월물과 이후 K개 월물 계산
- 계약별 재시도(지수 백오프) 및 호출 간격 유지
- 合约汇总 시트 + 주력연속 시트별 1년 종가
- DATABASE_URL 이 설정되면 PostgreSQL 에도 스냅샷 저장

Example:
  go run ./cmd/soywatch collect
  go run ./cmd/soywatch collect --today 2024-02-15 --lookahead 2
  go run ./cmd/soywatch collect --output prices.xlsx --workers 2`,
	RunE: runCollect,
}

var (
	// Collect flags
	collectOutput  string
	collectWorkers int
)

func init() {
	rootCmd.AddCommand(collectCmd)

	// Flags
	collectCmd.Flags().StringVarP(&collectOutput, "output", "o", "", "output workbook path, overrides OUTPUT_FILE")
	collectCmd.Flags().IntVar(&collectWorkers, "workers", 0, "concurrent provider calls, overrides WORKERS")
}

func runCollect(cmd *cobra.Command, args []string) error {
	o := globalOverrides()
	o.Output = collectOutput
	o.Workers = collectWorkers

	// 1. Load config
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}

	// 2. Initialize logger
	runID := uuid.NewString()
	log := logger.New(cfg).WithField("run_id", runID)
	day := cfg.Today()

	PrintHeader("大豆价格数据采集", [][2]string{
		{"Run ID", runID},
		{"Today", day.String()},
		{"Varieties", varietyNames(cfg.Calendar.Varieties)},
		{"Output", cfg.Output.File},
	})

	// 3. Calendar engine
	engine, err := calendar.New(cfg.Calendar.ValidMonths, cfg.Provider.Market)
	if err != nil {
		return fmt.Errorf("create calendar: %w", err)
	}

	// 4. Redis (optional shared pacing and history cache)
	rc, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rc.Close()

	// 5. Market data client; the collector owns retries
	httpClient := httputil.New(cfg, log)
	var market contracts.MarketDataClient = eastmoney.NewClient(httpClient, cfg.Provider.BaseURL, log)

	var pacer collector.Pacer = collector.NewRatePacer(cfg.Collect.PacingDelay)
	if rc.Enabled() {
		pacer = redis.NewPacer(redis.NewRateLimiter(rc, "soywatch"), cfg.Collect.PacingDelay)
		market = eastmoney.NewCachedClient(market, redis.NewCache(rc, "soywatch"), day.String(), log)
		log.Info("Redis pacing and history cache enabled")
	}

	// 6. Collector
	col := collector.NewCollector(market, engine, collector.Config{
		LookAhead:   cfg.Calendar.LookAhead,
		MaxRetries:  cfg.Collect.MaxRetries,
		BackoffBase: cfg.Collect.BackoffBase,
		Workers:     cfg.Collect.Workers,
	}, log, collector.WithPacer(pacer))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	result, err := col.CollectAll(ctx, day, cfg.Calendar.Varieties)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	PrintCalendar(result.Calendar)
	printStats(result.Stats)

	// 7. Nothing to export is a normal outcome
	if result.IsEmpty() {
		fmt.Println()
		PrintError("未获取到任何有效数据")
		return nil
	}

	// 8. Export
	exporters, closeAll, err := buildExporters(cfg, runID, log)
	if err != nil {
		return err
	}
	defer closeAll()

	dest, err := exporters.Export(ctx, result)
	if dest != "" {
		fmt.Println()
		PrintSuccess(fmt.Sprintf("所有数据已汇总保存至：%s", dest))
	}
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	printSummary(result, day)

	fmt.Println()
	PrintSuccess(fmt.Sprintf("Completed in %.2fs", time.Since(start).Seconds()))
	return nil
}

func buildExporters(cfg *config.Config, runID string, log *logger.Logger) (*exporter.Multi, func(), error) {
	excel := exporter.NewExcelExporter(cfg.Output.File, cfg.Output.ContractSheet, log)

	if !cfg.Database.Enabled() {
		return exporter.NewMulti(excel), func() {}, nil
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Info("Connected to database")

	pg := exporter.NewPostgresExporter(db, runID, log)
	return exporter.NewMulti(excel, pg), db.Close, nil
}

func printStats(stats contracts.CollectionStats) {
	PrintKeyValue("Fetched", fmt.Sprintf("%d/%d contracts, %d/%d yearly series",
		stats.ContractsFetched, stats.Contracts, stats.YearlyFetched, stats.Yearly), 12)
	if stats.ContractsAbsent > 0 || stats.YearlyAbsent > 0 {
		PrintKeyValue("Absent", fmt.Sprintf("%d contracts, %d yearly series",
			stats.ContractsAbsent, stats.YearlyAbsent), 12)
	}
}

// printSummary prints the merged record count, the column layout and close statistics
func printSummary(result *contracts.CollectionResult, day civil.Date) {
	merged := processor.Merge(result.ContractRows)
	if len(merged) == 0 {
		return
	}

	fmt.Println()
	fmt.Printf("📈 汇总数据共 %d 条记录\n", len(merged))
	fmt.Printf("📋 包含字段：%s\n", strings.Join(contracts.ContractColumns, ", "))

	if stats, ok := processor.Calculate(processor.Clean(merged)); ok {
		PrintKeyValue("Records", fmt.Sprintf("%d", stats.Count), 12)
		PrintKeyValue("Mean close", stats.MeanClose.StringFixed(2), 12)
		PrintKeyValue("Max close", stats.MaxClose.String(), 12)
		PrintKeyValue("Min close", stats.MinClose.String(), 12)
	}

	if session := processor.FilterByDate(merged, day, day); len(session) > 0 {
		PrintKeyValue("Today rows", fmt.Sprintf("%d", len(session)), 12)
	} else {
		PrintInfo(fmt.Sprintf("No rows dated %s, market not open yet", day))
	}
}

func varietyNames(varieties []contracts.Variety) string {
	names := make([]string, len(varieties))
	for i, v := range varieties {
		names[i] = v.Name
	}
	return strings.Join(names, ", ")
}
