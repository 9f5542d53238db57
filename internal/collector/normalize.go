package collector

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/wonny/soywatch/backend/internal/contracts"
)

// YearlyWindowDays is the length of the trailing close window
const YearlyWindowDays = 365

// NormalizeHistory turns a raw frame into ContractRows sorted newest first.
// When the newest date is before today only that date's rows are kept;
// otherwise the full history is returned.
func NormalizeHistory(frame *contracts.Frame, id contracts.ContractIdentifier, today civil.Date) ([]contracts.ContractRow, error) {
	if frame.Len() == 0 {
		return nil, fmt.Errorf("%w: %s returned no rows", contracts.ErrNoData, id.ContractCode)
	}
	if !frame.HasColumns(contracts.RawColumns...) {
		return nil, fmt.Errorf("%w: %s is missing required columns", contracts.ErrNoData, id.ContractCode)
	}

	rows := make([]contracts.ContractRow, 0, frame.Len())
	for i := 0; i < frame.Len(); i++ {
		date, ok := parseDate(frame.Value(i, contracts.ColDate))
		if !ok {
			continue
		}

		rows = append(rows, contracts.ContractRow{
			ContractName: id.DisplayName,
			ContractCode: id.ContractCode,
			Date:         date,
			Open:         parseDecimal(frame.Value(i, contracts.ColOpen)),
			Close:        parseDecimal(frame.Value(i, contracts.ColClose)),
			High:         parseDecimal(frame.Value(i, contracts.ColHigh)),
			Low:          parseDecimal(frame.Value(i, contracts.ColLow)),
			Volume:       parseDecimal(frame.Value(i, contracts.ColVolume)).IntPart(),
			Turnover:     parseDecimal(frame.Value(i, contracts.ColTurnover)),
			Amplitude:    parseDecimal(frame.Value(i, contracts.ColAmplitude)),
			PctChange:    parseDecimal(frame.Value(i, contracts.ColPctChange)),
			AbsChange:    parseDecimal(frame.Value(i, contracts.ColAbsChange)),
		})
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s has no parseable dates", contracts.ErrNoData, id.ContractCode)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[j].Date.Before(rows[i].Date)
	})

	latest := rows[0].Date
	if latest.Before(today) {
		n := 0
		for n < len(rows) && rows[n].Date == latest {
			n++
		}
		rows = rows[:n]
	}

	return rows, nil
}

// NormalizeYearly keeps (date, close) pairs within [today-365d, today], oldest first
func NormalizeYearly(frame *contracts.Frame, name string, today civil.Date) ([]contracts.YearlyClosePoint, error) {
	if frame.Len() == 0 {
		return nil, fmt.Errorf("%w: %s returned no rows", contracts.ErrNoData, name)
	}
	if !frame.HasColumns(contracts.ColDate, contracts.ColClose) {
		return nil, fmt.Errorf("%w: %s is missing date/close columns", contracts.ErrNoData, name)
	}

	from := today.AddDays(-YearlyWindowDays)

	points := make([]contracts.YearlyClosePoint, 0, frame.Len())
	for i := 0; i < frame.Len(); i++ {
		date, ok := parseDate(frame.Value(i, contracts.ColDate))
		if !ok || date.Before(from) || date.After(today) {
			continue
		}

		closePrice, err := decimal.NewFromString(strings.TrimSpace(frame.Value(i, contracts.ColClose)))
		if err != nil {
			continue
		}

		points = append(points, contracts.YearlyClosePoint{Date: date, ClosePrice: closePrice})
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("%w: %s has no closes since %s", contracts.ErrNoData, name, from)
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	return points, nil
}

// parseDate accepts YYYY-MM-DD (optionally followed by a time) and YYYYMMDD
func parseDate(s string) (civil.Date, bool) {
	s = strings.TrimSpace(s)
	if len(s) > 10 {
		s = s[:10]
	}

	if d, err := civil.ParseDate(s); err == nil {
		return d, true
	}
	if t, err := time.Parse("20060102", s); err == nil {
		return civil.DateOf(t), true
	}
	return civil.Date{}, false
}

// parseDecimal returns zero for blanks, "-" and malformed numbers
func parseDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
