package calendar

import (
	"errors"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/soywatch/backend/internal/contracts"
)

var (
	soyMeal = contracts.Variety{Name: "豆粕", Prefix: "m", ContinuousCode: "mm", ContinuousName: "豆粕主连"}
	soyOil  = contracts.Variety{Name: "豆油", Prefix: "y", ContinuousCode: "ym", ContinuousName: "豆油主连"}
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(DefaultValidMonths, DefaultMarket)
	require.NoError(t, err)
	return e
}

func TestNewMonthSet(t *testing.T) {
	tests := []struct {
		name    string
		months  []int
		want    []int
		wantErr bool
	}{
		{"default", DefaultValidMonths, DefaultValidMonths, false},
		{"duplicates collapse", []int{5, 1, 5}, []int{1, 5}, false},
		{"empty", []int{}, nil, true},
		{"month zero", []int{0, 3}, nil, true},
		{"month thirteen", []int{13}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := NewMonthSet(tt.months)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, contracts.ErrConfiguration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, set.Months())
		})
	}
}

func TestNew_EmptyMonthsFailsFast(t *testing.T) {
	_, err := New(nil, DefaultMarket)
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrConfiguration)
}

func TestStartingMonth(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name  string
		today civil.Date
		want  contracts.ContractMonth
	}{
		{"february skips to march", civil.Date{Year: 2024, Month: 2, Day: 15}, contracts.ContractMonth{Year: 2024, Month: 3}},
		{"march is valid", civil.Date{Year: 2024, Month: 3, Day: 1}, contracts.ContractMonth{Year: 2024, Month: 3}},
		{"april skips to may", civil.Date{Year: 2024, Month: 4, Day: 30}, contracts.ContractMonth{Year: 2024, Month: 5}},
		{"june skips to july", civil.Date{Year: 2024, Month: 6, Day: 10}, contracts.ContractMonth{Year: 2024, Month: 7}},
		{"december is valid", civil.Date{Year: 2024, Month: 12, Day: 31}, contracts.ContractMonth{Year: 2024, Month: 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.StartingMonth(tt.today))
		})
	}
}

func TestStartingMonth_WrapsYear(t *testing.T) {
	e, err := New([]int{1}, DefaultMarket)
	require.NoError(t, err)

	got := e.StartingMonth(civil.Date{Year: 2024, Month: 11, Day: 20})
	assert.Equal(t, contracts.ContractMonth{Year: 2025, Month: 1}, got)
}

func TestNextValidMonth(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		from contracts.ContractMonth
		want contracts.ContractMonth
	}{
		{contracts.ContractMonth{Year: 2024, Month: 11}, contracts.ContractMonth{Year: 2024, Month: 12}},
		{contracts.ContractMonth{Year: 2024, Month: 12}, contracts.ContractMonth{Year: 2025, Month: 1}},
		{contracts.ContractMonth{Year: 2024, Month: 1}, contracts.ContractMonth{Year: 2024, Month: 3}},
		{contracts.ContractMonth{Year: 2024, Month: 3}, contracts.ContractMonth{Year: 2024, Month: 5}},
		{contracts.ContractMonth{Year: 2024, Month: 5}, contracts.ContractMonth{Year: 2024, Month: 7}},
		{contracts.ContractMonth{Year: 2024, Month: 7}, contracts.ContractMonth{Year: 2024, Month: 8}},
	}

	for _, tt := range tests {
		t.Run(tt.from.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, e.NextValidMonth(tt.from))
		})
	}
}

// Every month set and every starting point: result is valid, strictly later, within 12 steps.
func TestNextValidMonth_Properties(t *testing.T) {
	sets := [][]int{
		DefaultValidMonths,
		{1},
		{12},
		{2, 4, 6},
		{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
	}

	for _, months := range sets {
		e, err := New(months, DefaultMarket)
		require.NoError(t, err)

		for year := 2023; year <= 2025; year++ {
			for month := 1; month <= 12; month++ {
				from := contracts.ContractMonth{Year: year, Month: month}
				got := e.NextValidMonth(from)

				assert.True(t, e.months.Contains(got.Month), "months=%v from=%s got=%s", months, from, got)
				assert.True(t, from.Before(got), "months=%v from=%s got=%s", months, from, got)

				steps := (got.Year-from.Year)*12 + (got.Month - from.Month)
				assert.LessOrEqual(t, steps, 12, "months=%v from=%s got=%s", months, from, got)
			}
		}
	}
}

func TestBuildContractList_Scenario(t *testing.T) {
	e := newTestEngine(t)
	variety := contracts.Variety{Name: "豆粕", Prefix: "m", ContinuousCode: "mm", ContinuousName: "豆粕主连"}

	list, info, err := e.BuildContractList(civil.Date{Year: 2024, Month: 2, Day: 15}, 2, []contracts.Variety{variety})
	require.NoError(t, err)

	codes := make([]string, len(list))
	for i, id := range list {
		codes[i] = id.ContractCode
	}
	assert.Equal(t, []string{"m2403", "m2405", "mm"}, codes)

	assert.Equal(t, 2024, info.StartYear)
	assert.Equal(t, 3, info.StartMonth)
	assert.Equal(t, "2403", info.StartSuffix)
	assert.Equal(t, 3, info.ContractCount)

	assert.Equal(t, "114.m2403", list[0].QuoteID)
	assert.Equal(t, "豆粕2403", list[0].DisplayName)
	assert.False(t, list[0].Continuous)
	assert.Equal(t, "114.mm", list[2].QuoteID)
	assert.Equal(t, "豆粕主连", list[2].DisplayName)
	assert.True(t, list[2].Continuous)
}

func TestBuildContractList_Invariants(t *testing.T) {
	e := newTestEngine(t)
	varieties := []contracts.Variety{soyMeal, soyOil}
	today := civil.Date{Year: 2024, Month: 11, Day: 20}

	for _, k := range []int{0, 1, 9, 24} {
		list, _, err := e.BuildContractList(today, k, varieties)
		require.NoError(t, err)

		assert.Len(t, list, len(varieties)*(k+1), "k=%d", k)

		seen := make(map[string]bool)
		continuous := 0
		for i, id := range list {
			assert.False(t, seen[id.QuoteID], "duplicate quote id %s", id.QuoteID)
			seen[id.QuoteID] = true
			if id.Continuous {
				continuous++
			}
			if i > 0 {
				assert.LessOrEqual(t, list[i-1].ContractCode, id.ContractCode, "not sorted at %d", i)
			}
		}
		assert.Equal(t, len(varieties), continuous, "continuous contracts once per variety, k=%d", k)
	}
}

func TestBuildContractList_Deterministic(t *testing.T) {
	e := newTestEngine(t)
	varieties := []contracts.Variety{soyOil, soyMeal}
	today := civil.Date{Year: 2024, Month: 6, Day: 3}

	first, firstInfo, err := e.BuildContractList(today, 9, varieties)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		again, againInfo, err := e.BuildContractList(today, 9, varieties)
		require.NoError(t, err)
		assert.Equal(t, first, again)
		assert.Equal(t, firstInfo, againInfo)
	}
}

func TestBuildContractList_RollsYear(t *testing.T) {
	e := newTestEngine(t)

	list, _, err := e.BuildContractList(civil.Date{Year: 2024, Month: 11, Day: 20}, 4, []contracts.Variety{soyMeal})
	require.NoError(t, err)

	codes := make([]string, len(list))
	for i, id := range list {
		codes[i] = id.ContractCode
	}
	assert.Equal(t, []string{"m2411", "m2412", "m2501", "m2503", "mm"}, codes)
}

func TestBuildContractList_DuplicateVarietyCollapses(t *testing.T) {
	e := newTestEngine(t)
	renamed := soyMeal
	renamed.Name = "豆粕新"

	list, _, err := e.BuildContractList(civil.Date{Year: 2024, Month: 3, Day: 1}, 1, []contracts.Variety{soyMeal, renamed})
	require.NoError(t, err)
	require.Len(t, list, 2)

	// last write wins
	assert.Equal(t, "豆粕新2403", list[0].DisplayName)
	assert.Equal(t, "豆粕新", list[1].Variety)
}

func TestBuildContractList_ConfigurationErrors(t *testing.T) {
	e := newTestEngine(t)
	today := civil.Date{Year: 2024, Month: 2, Day: 15}

	_, _, err := e.BuildContractList(today, 9, nil)
	assert.ErrorIs(t, err, contracts.ErrConfiguration)

	_, _, err = e.BuildContractList(today, -1, []contracts.Variety{soyMeal})
	assert.ErrorIs(t, err, contracts.ErrConfiguration)
}
