// Package hojin defines the corporate registry records collected from the
// gBizINFO API and the filter used to enumerate them.
package hojin

import (
	"bytes"
	"encoding/json"
	"strings"
)

// NumberLength is the fixed length of a corporate number.
const NumberLength = 13

// ListHeader is the column layout of the dump output.
var ListHeader = []string{"corporate_number", "name"}

// DetailHeader is the column layout of the hydrate output.
var DetailHeader = []string{
	"corporate_number",
	"name",
	"date_of_establishment",
	"employee_number",
	"capital_stock",
	"prefecture_code",
	"city_code",
	"postal_code",
	"location",
	"company_url",
	"business_summary",
}

// Record is the list form of a corporation as returned by the search endpoint.
type Record struct {
	CorporateNumber string `json:"corporate_number"`
	Name            string `json:"name"`
}

// Row renders the record in ListHeader order.
func (r Record) Row() []string {
	return []string{strings.TrimSpace(r.CorporateNumber), r.Name}
}

// Detail is the enriched form of a corporation. Every attribute besides the
// corporate number may be missing upstream.
type Detail struct {
	CorporateNumber     string `json:"corporate_number"`
	Name                string `json:"name"`
	DateOfEstablishment string `json:"date_of_establishment"`
	EmployeeNumber      Value  `json:"employee_number"`
	CapitalStock        Value  `json:"capital_stock"`
	PrefectureCode      string `json:"prefecture_code"`
	CityCode            string `json:"city_code"`
	PostalCode          string `json:"postal_code"`
	Location            string `json:"location"`
	CompanyURL          string `json:"company_url"`
	BusinessSummary     string `json:"business_summary"`
}

// Row renders the detail in DetailHeader order.
func (d Detail) Row() []string {
	return []string{
		strings.TrimSpace(d.CorporateNumber),
		d.Name,
		d.DateOfEstablishment,
		string(d.EmployeeNumber),
		string(d.CapitalStock),
		d.PrefectureCode,
		d.CityCode,
		d.PostalCode,
		d.Location,
		d.CompanyURL,
		d.BusinessSummary,
	}
}

// Value is a scalar that upstream sends either as a JSON string or a JSON
// number. It keeps the literal text; null decodes to the empty string.
type Value string

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Value(s)
		return nil
	}
	*v = Value(data)
	return nil
}

// ValidNumber reports whether s is a 13-digit corporate number.
func ValidNumber(s string) bool {
	if len(s) != NumberLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
