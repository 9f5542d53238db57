package contracts

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Raw column names every provider frame must carry
const (
	ColDate      = "date"
	ColOpen      = "open"
	ColClose     = "close"
	ColHigh      = "high"
	ColLow       = "low"
	ColVolume    = "volume"
	ColTurnover  = "turnover"
	ColAmplitude = "amplitude"
	ColPctChange = "pct_change"
	ColAbsChange = "abs_change"
)

// RawColumns is the set of required raw columns, in provider order
var RawColumns = []string{
	ColDate, ColOpen, ColClose, ColHigh, ColLow,
	ColVolume, ColTurnover, ColAmplitude, ColPctChange, ColAbsChange,
}

// ContractColumns is the canonical export layout of a ContractRow
var ContractColumns = []string{
	"期货名称", "期货代码", "日期", "开盘", "收盘", "最高", "最低",
	"成交量", "成交额", "振幅", "涨跌幅", "涨跌额",
}

// YearlyColumns is the export layout of a YearlyClosePoint
var YearlyColumns = []string{"日期", "收盘价格"}

// ContractRow is one normalized daily observation of a contract
type ContractRow struct {
	ContractName string
	ContractCode string
	Date         civil.Date
	Open         decimal.Decimal
	Close        decimal.Decimal
	High         decimal.Decimal
	Low          decimal.Decimal
	Volume       int64
	Turnover     decimal.Decimal
	Amplitude    decimal.Decimal // %
	PctChange    decimal.Decimal // %
	AbsChange    decimal.Decimal
}

// Values returns the row in ContractColumns order, date as ISO string
func (r ContractRow) Values() []interface{} {
	return []interface{}{
		r.ContractName,
		r.ContractCode,
		r.Date.String(),
		r.Open.InexactFloat64(),
		r.Close.InexactFloat64(),
		r.High.InexactFloat64(),
		r.Low.InexactFloat64(),
		r.Volume,
		r.Turnover.InexactFloat64(),
		r.Amplitude.InexactFloat64(),
		r.PctChange.InexactFloat64(),
		r.AbsChange.InexactFloat64(),
	}
}

// YearlyClosePoint is one close of a continuous contract
type YearlyClosePoint struct {
	Date       civil.Date
	ClosePrice decimal.Decimal
}

// Values returns the point in YearlyColumns order
func (p YearlyClosePoint) Values() []interface{} {
	return []interface{}{p.Date.String(), p.ClosePrice.InexactFloat64()}
}

// CollectionStats counts per-item outcomes of one pass
type CollectionStats struct {
	Contracts        int
	ContractsFetched int
	ContractsAbsent  int
	Yearly           int
	YearlyFetched    int
	YearlyAbsent     int
}

// CollectionResult is everything one collection pass hands to the exporters
type CollectionResult struct {
	ContractRows [][]ContractRow
	YearlyData   map[string][]YearlyClosePoint
	YearlyOrder  []string // variety display names in configuration order
	Calendar     CalendarInfo
	Stats        CollectionStats
}

// NewCollectionResult returns an empty result for the given calendar
func NewCollectionResult(info CalendarInfo) *CollectionResult {
	return &CollectionResult{
		ContractRows: [][]ContractRow{},
		YearlyData:   make(map[string][]YearlyClosePoint),
		Calendar:     info,
	}
}

// AddYearly records a yearly series under name, keeping insertion order
func (r *CollectionResult) AddYearly(name string, points []YearlyClosePoint) {
	if _, exists := r.YearlyData[name]; !exists {
		r.YearlyOrder = append(r.YearlyOrder, name)
	}
	r.YearlyData[name] = points
}

// IsEmpty reports whether there is nothing to export
func (r *CollectionResult) IsEmpty() bool {
	return r == nil || (len(r.ContractRows) == 0 && len(r.YearlyData) == 0)
}

// RowCount returns the total number of contract rows
func (r *CollectionResult) RowCount() int {
	n := 0
	for _, rows := range r.ContractRows {
		n += len(rows)
	}
	return n
}
