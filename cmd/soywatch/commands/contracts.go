package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/soywatch/backend/internal/calendar"
)

// contractsCmd represents the contracts command
var contractsCmd = &cobra.Command{
	Use:   "contracts",
	Short: "계약 목록 출력 (수집 없음)",
	Long: `오늘 날짜 기준으로 수집 대상 계약 목록을 계산해 출력합니다.
외부 API 를 호출하지 않습니다.

Example:
  go run ./cmd/soywatch contracts
  go run ./cmd/soywatch contracts --today 2024-11-20 --lookahead 4`,
	RunE: runContracts,
}

func init() {
	rootCmd.AddCommand(contractsCmd)
}

func runContracts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(globalOverrides())
	if err != nil {
		return err
	}

	engine, err := calendar.New(cfg.Calendar.ValidMonths, cfg.Provider.Market)
	if err != nil {
		return fmt.Errorf("create calendar: %w", err)
	}

	list, info, err := engine.BuildContractList(cfg.Today(), cfg.Calendar.LookAhead, cfg.Calendar.Varieties)
	if err != nil {
		return err
	}

	PrintCalendar(info)
	fmt.Println()

	widths := []int{8, 12, 12, 10}
	PrintTableHeader([]string{"Code", "Name", "Quote ID", "Kind"}, widths)
	for _, id := range list {
		kind := "month"
		if id.Continuous {
			kind = "continuous"
		}
		PrintTableRow([]string{id.ContractCode, id.DisplayName, id.QuoteID, kind}, widths)
	}
	return nil
}
