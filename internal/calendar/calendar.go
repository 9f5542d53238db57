package calendar

import (
	"fmt"
	"sort"

	"cloud.google.com/go/civil"

	"github.com/wonny/soywatch/backend/internal/contracts"
)

// DefaultMarket is the provider market id of the Dalian Commodity Exchange
const DefaultMarket = "114"

// DefaultValidMonths are the delivery months traded for soybean meal and oil
var DefaultValidMonths = []int{1, 3, 5, 7, 8, 9, 10, 11, 12}

// MonthSet is a non-empty set of valid delivery months
type MonthSet struct {
	valid [13]bool
	count int
}

// NewMonthSet builds a MonthSet; it fails on an empty set or a month outside 1-12
func NewMonthSet(months []int) (MonthSet, error) {
	var s MonthSet
	for _, m := range months {
		if m < 1 || m > 12 {
			return MonthSet{}, fmt.Errorf("%w: invalid delivery month %d", contracts.ErrConfiguration, m)
		}
		if !s.valid[m] {
			s.valid[m] = true
			s.count++
		}
	}
	if s.count == 0 {
		return MonthSet{}, fmt.Errorf("%w: valid month set is empty", contracts.ErrConfiguration)
	}
	return s, nil
}

// Contains reports whether month is a delivery month
func (s MonthSet) Contains(month int) bool {
	return month >= 1 && month <= 12 && s.valid[month]
}

// Months returns the set in ascending order
func (s MonthSet) Months() []int {
	months := make([]int, 0, s.count)
	for m := 1; m <= 12; m++ {
		if s.valid[m] {
			months = append(months, m)
		}
	}
	return months
}

// Engine derives contract identifiers from a date
// ⭐ SSOT: 계약 월물 계산은 이 엔진에서만
type Engine struct {
	months MonthSet
	market string
}

// New creates an Engine for the given valid months and provider market
func New(validMonths []int, market string) (*Engine, error) {
	months, err := NewMonthSet(validMonths)
	if err != nil {
		return nil, err
	}
	if market == "" {
		market = DefaultMarket
	}
	return &Engine{months: months, market: market}, nil
}

// ValidMonths returns the engine's delivery months
func (e *Engine) ValidMonths() []int {
	return e.months.Months()
}

// StartingMonth returns the nearest current-or-future valid month
func (e *Engine) StartingMonth(today civil.Date) contracts.ContractMonth {
	return e.skipInvalid(contracts.ContractMonth{Year: today.Year, Month: int(today.Month)})
}

// NextValidMonth returns the first valid month strictly after cm
func (e *Engine) NextValidMonth(cm contracts.ContractMonth) contracts.ContractMonth {
	return e.skipInvalid(increment(cm))
}

// skipInvalid advances cm until it lands on a valid month.
// The set is non-empty, so this takes at most 11 steps.
func (e *Engine) skipInvalid(cm contracts.ContractMonth) contracts.ContractMonth {
	for i := 0; i < 12 && !e.months.Contains(cm.Month); i++ {
		cm = increment(cm)
	}
	return cm
}

func increment(cm contracts.ContractMonth) contracts.ContractMonth {
	cm.Month++
	if cm.Month > 12 {
		cm.Month = 1
		cm.Year++
	}
	return cm
}

// QuoteID returns the provider key for a contract code
func (e *Engine) QuoteID(code string) string {
	return fmt.Sprintf("%s.%s", e.market, code)
}

// ContinuousIdentifier returns the identifier of a variety's continuous contract
func (e *Engine) ContinuousIdentifier(v contracts.Variety) contracts.ContractIdentifier {
	return contracts.ContractIdentifier{
		ContractCode: v.ContinuousCode,
		DisplayName:  v.ContinuousName,
		QuoteID:      e.QuoteID(v.ContinuousCode),
		Variety:      v.Name,
		Continuous:   true,
	}
}

// MonthIdentifier returns the identifier of a variety's contract for cm
func (e *Engine) MonthIdentifier(v contracts.Variety, cm contracts.ContractMonth) contracts.ContractIdentifier {
	suffix := cm.Suffix()
	code := v.Prefix + suffix
	return contracts.ContractIdentifier{
		ContractCode: code,
		DisplayName:  v.Name + suffix,
		QuoteID:      e.QuoteID(code),
		Variety:      v.Name,
	}
}

// BuildContractList returns the continuous contracts plus lookAhead valid months
// per variety, deduplicated by QuoteID (last write wins) and sorted by ContractCode.
func (e *Engine) BuildContractList(today civil.Date, lookAhead int, varieties []contracts.Variety) ([]contracts.ContractIdentifier, contracts.CalendarInfo, error) {
	start := e.StartingMonth(today)
	info := contracts.CalendarInfo{
		StartYear:   start.Year,
		StartMonth:  start.Month,
		StartSuffix: start.Suffix(),
		ValidMonths: e.months.Months(),
		LookAhead:   lookAhead,
	}

	if len(varieties) == 0 {
		return nil, info, fmt.Errorf("%w: no varieties configured", contracts.ErrConfiguration)
	}
	if lookAhead < 0 {
		return nil, info, fmt.Errorf("%w: negative look-ahead %d", contracts.ErrConfiguration, lookAhead)
	}

	byQuote := make(map[string]contracts.ContractIdentifier)

	for _, v := range varieties {
		id := e.ContinuousIdentifier(v)
		byQuote[id.QuoteID] = id
	}

	cm := start
	for i := 0; i < lookAhead; i++ {
		for _, v := range varieties {
			id := e.MonthIdentifier(v, cm)
			byQuote[id.QuoteID] = id
		}
		cm = e.NextValidMonth(cm)
	}

	list := make([]contracts.ContractIdentifier, 0, len(byQuote))
	for _, id := range byQuote {
		list = append(list, id)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].ContractCode != list[j].ContractCode {
			return list[i].ContractCode < list[j].ContractCode
		}
		return list[i].QuoteID < list[j].QuoteID
	})

	info.ContractCount = len(list)
	return list, info, nil
}
