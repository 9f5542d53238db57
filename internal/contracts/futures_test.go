package contracts

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestContractMonth_Suffix(t *testing.T) {
	tests := []struct {
		month ContractMonth
		want  string
	}{
		{ContractMonth{Year: 2024, Month: 3}, "2403"},
		{ContractMonth{Year: 2025, Month: 12}, "2512"},
		{ContractMonth{Year: 2100, Month: 1}, "0001"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.month.Suffix())
		})
	}
}

func TestContractMonth_Before(t *testing.T) {
	a := ContractMonth{Year: 2024, Month: 12}
	b := ContractMonth{Year: 2025, Month: 1}

	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.False(t, a.Before(a))
	assert.True(t, ContractMonth{Year: 2024, Month: 3}.Before(ContractMonth{Year: 2024, Month: 5}))
}

func TestVariety_Validate(t *testing.T) {
	valid := Variety{Name: "豆粕", Prefix: "m", ContinuousCode: "mm", ContinuousName: "豆粕主连"}
	assert.NoError(t, valid.Validate())

	missingPrefix := valid
	missingPrefix.Prefix = ""
	assert.Error(t, missingPrefix.Validate())

	missingName := valid
	missingName.Name = ""
	assert.Error(t, missingName.Validate())
}

func TestFrame(t *testing.T) {
	f := &Frame{
		Columns: []string{ColDate, ColClose},
		Records: [][]string{
			{"2024-03-01", "3100"},
			{"2024-03-04"},
		},
	}

	assert.Equal(t, 2, f.Len())
	assert.True(t, f.HasColumns(ColDate, ColClose))
	assert.False(t, f.HasColumns(ColDate, ColOpen))
	assert.Equal(t, "3100", f.Value(0, ColClose))
	assert.Equal(t, "", f.Value(1, ColClose), "short record")
	assert.Equal(t, "", f.Value(5, ColDate), "row out of range")

	var nilFrame *Frame
	assert.Equal(t, 0, nilFrame.Len())
	assert.False(t, nilFrame.HasColumns(ColDate))
}

func TestCollectionResult(t *testing.T) {
	r := NewCollectionResult(CalendarInfo{StartYear: 2024, StartMonth: 3})
	assert.True(t, r.IsEmpty())

	r.AddYearly("豆油主连", []YearlyClosePoint{{Date: civil.Date{Year: 2024, Month: 3, Day: 1}, ClosePrice: decimal.NewFromInt(7800)}})
	r.AddYearly("豆粕主连", nil)
	r.AddYearly("豆油主连", nil)
	assert.Equal(t, []string{"豆油主连", "豆粕主连"}, r.YearlyOrder)
	assert.False(t, r.IsEmpty())

	r.ContractRows = append(r.ContractRows, []ContractRow{{ContractCode: "m2405"}, {ContractCode: "m2405"}})
	assert.Equal(t, 2, r.RowCount())
}

func TestContractRow_Values(t *testing.T) {
	row := ContractRow{
		ContractName: "豆粕2405",
		ContractCode: "m2405",
		Date:         civil.Date{Year: 2024, Month: 3, Day: 1},
		Open:         decimal.RequireFromString("3100"),
		Close:        decimal.RequireFromString("3120.5"),
		Volume:       12345,
	}

	values := row.Values()
	assert.Len(t, values, len(ContractColumns))
	assert.Equal(t, "豆粕2405", values[0])
	assert.Equal(t, "2024-03-01", values[2])
	assert.Equal(t, 3120.5, values[4])
	assert.Equal(t, int64(12345), values[7])
}
