package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is a jsonb-backed list of strings.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", src)
	}
	return json.Unmarshal(data, l)
}

// Contains reports membership.
func (l StringList) Contains(s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}

// Treatment is a catalog entry. The booking core consumes it read-only.
type Treatment struct {
	Base
	Name        string     `db:"name" json:"name"`
	Category    string     `db:"category" json:"category"`
	Description string     `db:"description" json:"description"`
	Price       float64    `db:"price" json:"price"`
	DurationMin int        `db:"duration_min" json:"duration_min"`
	Locations   StringList `db:"locations" json:"locations"`
	Active      bool       `db:"active" json:"active"`
}

// TreatmentFilters narrow catalog listings.
type TreatmentFilters struct {
	Category string
	Location string
}
