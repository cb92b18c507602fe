package hojin

import (
	"fmt"
)

// AllPrefectures selects every prefecture code from 01 to 47.
const AllPrefectures = "all"

// Limits enforced on the search endpoint.
const (
	// MaxPageSize is the largest page the API accepts.
	MaxPageSize = 5000

	// MaxPageCap is the client-side upper bound on pages per prefecture.
	MaxPageCap = 10

	// DefaultCorporateType is 301, kabushiki kaisha.
	DefaultCorporateType = "301"
)

// ExistFlag filters on whether corporate activity information exists.
type ExistFlag string

const (
	ExistTrue  ExistFlag = "true"
	ExistFalse ExistFlag = "false"
	ExistAny   ExistFlag = "any"
)

// Param returns the exist_flg query value, or "" when no filter applies.
func (f ExistFlag) Param() string {
	switch f {
	case ExistTrue, ExistFalse:
		return string(f)
	default:
		return ""
	}
}

// FilterSpec is the immutable configuration of one dump run.
type FilterSpec struct {
	Prefecture    string
	CorporateType string
	ExistFlag     ExistFlag
	PageSize      int
	MaxPages      int
}

// DefaultFilterSpec returns the filter used when no flags are given.
func DefaultFilterSpec() FilterSpec {
	return FilterSpec{
		Prefecture:    AllPrefectures,
		CorporateType: DefaultCorporateType,
		ExistFlag:     ExistAny,
		PageSize:      MaxPageSize,
		MaxPages:      MaxPageCap,
	}
}

// ValidationError reports an invalid filter value.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Validate checks every field of the filter.
func (f FilterSpec) Validate() error {
	if f.Prefecture != AllPrefectures && !ValidPrefecture(f.Prefecture) {
		return &ValidationError{Field: "prefecture", Value: f.Prefecture, Reason: `must be 01-47 or "all"`}
	}
	if f.CorporateType == "" {
		return &ValidationError{Field: "corporate_type", Value: f.CorporateType, Reason: "must not be empty"}
	}
	switch f.ExistFlag {
	case ExistTrue, ExistFalse, ExistAny:
	default:
		return &ValidationError{Field: "exist_flg", Value: string(f.ExistFlag), Reason: "must be true, false or any"}
	}
	if f.PageSize < 1 || f.PageSize > MaxPageSize {
		return &ValidationError{Field: "limit", Value: fmt.Sprint(f.PageSize), Reason: fmt.Sprintf("must be between 1 and %d", MaxPageSize)}
	}
	if f.MaxPages < 1 || f.MaxPages > MaxPageCap {
		return &ValidationError{Field: "max_pages", Value: fmt.Sprint(f.MaxPages), Reason: fmt.Sprintf("must be between 1 and %d", MaxPageCap)}
	}
	return nil
}

// Prefectures expands the prefecture selector into codes in ascending order.
func (f FilterSpec) Prefectures() []string {
	if f.Prefecture != AllPrefectures {
		return []string{f.Prefecture}
	}
	codes := make([]string, 0, 47)
	for i := 1; i <= 47; i++ {
		codes = append(codes, fmt.Sprintf("%02d", i))
	}
	return codes
}

// ValidPrefecture reports whether code is a two-digit JIS X 0401 code.
func ValidPrefecture(code string) bool {
	if len(code) != 2 || code[0] < '0' || code[0] > '9' || code[1] < '0' || code[1] > '9' {
		return false
	}
	n := int(code[0]-'0')*10 + int(code[1]-'0')
	return n >= 1 && n <= 47
}
