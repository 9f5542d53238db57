package contracts

import (
	"fmt"
)

// Variety describes one commodity family traded on the exchange
// ⭐ SSOT: 품종 정의는 config에서 한 번만 로드됨
type Variety struct {
	Name           string `yaml:"name" json:"name"`                       // 豆粕
	Prefix         string `yaml:"prefix" json:"prefix"`                   // m
	ContinuousCode string `yaml:"continuous_code" json:"continuous_code"` // mm
	ContinuousName string `yaml:"continuous_name" json:"continuous_name"` // 豆粕主连
}

// Validate checks that every field needed to derive contract codes is set
func (v Variety) Validate() error {
	switch {
	case v.Name == "":
		return fmt.Errorf("variety name is empty")
	case v.Prefix == "":
		return fmt.Errorf("variety %s: prefix is empty", v.Name)
	case v.ContinuousCode == "":
		return fmt.Errorf("variety %s: continuous code is empty", v.Name)
	case v.ContinuousName == "":
		return fmt.Errorf("variety %s: continuous name is empty", v.Name)
	}
	return nil
}

// ContractMonth is one deliverable month
type ContractMonth struct {
	Year  int
	Month int // 1-12
}

// Suffix returns the YYMM suffix used in contract codes (2024-03 -> "2403")
func (m ContractMonth) Suffix() string {
	return fmt.Sprintf("%02d%02d", m.Year%100, m.Month)
}

// Before reports whether m is strictly earlier than other
func (m ContractMonth) Before(other ContractMonth) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

// String returns YYYY-MM
func (m ContractMonth) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

// ContractIdentifier names one contract on the provider
// QuoteID is the dedup key: equal QuoteIDs are the same logical contract.
type ContractIdentifier struct {
	ContractCode string // m2405, or mm for the continuous contract
	DisplayName  string // 豆粕2405, or 豆粕主连
	QuoteID      string // 114.m2405
	Variety      string
	Continuous   bool
}

// String returns "DisplayName(ContractCode)"
func (c ContractIdentifier) String() string {
	return fmt.Sprintf("%s(%s)", c.DisplayName, c.ContractCode)
}

// CalendarInfo is the calendar metadata reported with each collection pass
type CalendarInfo struct {
	StartYear     int
	StartMonth    int
	StartSuffix   string
	ValidMonths   []int
	LookAhead     int
	ContractCount int
}
