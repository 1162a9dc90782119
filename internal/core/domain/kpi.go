package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// KPISeries holds one value per plan month, keyed by zero-based month index.
// Months that were never written read as zero.
type KPISeries map[int]float64

func NewKPISeries() KPISeries {
	s := make(KPISeries, KPIMonths)
	for i := 0; i < KPIMonths; i++ {
		s[i] = 0
	}
	return s
}

func (s KPISeries) Get(month int) float64 {
	if month < 0 || month >= KPIMonths {
		return 0
	}
	return s[month]
}

func (s KPISeries) Set(month int, value float64) error {
	if month < 0 || month >= KPIMonths {
		return ErrKPIMonthOutOfRange
	}
	s[month] = value
	return nil
}

func (s KPISeries) Sum() float64 {
	total := 0.0
	for i := 0; i < KPIMonths; i++ {
		total += s[i]
	}
	return total
}

func (s KPISeries) Any(pred func(float64) bool) bool {
	for i := 0; i < KPIMonths; i++ {
		if pred(s[i]) {
			return true
		}
	}
	return false
}

// UnmarshalJSON accepts both the keyed form and the legacy six-element array.
func (s *KPISeries) UnmarshalJSON(data []byte) error {
	var values []float64
	if err := json.Unmarshal(data, &values); err == nil {
		series := NewKPISeries()
		for i, v := range values {
			if i >= KPIMonths {
				break
			}
			series[i] = v
		}
		*s = series
		return nil
	}

	var keyed map[int]float64
	if err := json.Unmarshal(data, &keyed); err != nil {
		return err
	}
	for month := range keyed {
		if month < 0 || month >= KPIMonths {
			return ErrKPIMonthOutOfRange
		}
	}
	*s = KPISeries(keyed)
	return nil
}

// ParseKPIValue coerces user input to a number. Anything that does not parse
// stores as zero.
func ParseKPIValue(raw any) float64 {
	var v float64
	switch x := raw.(type) {
	case float64:
		v = x
	case int:
		v = float64(x)
	case json.Number:
		v, _ = x.Float64()
	case string:
		v, _ = strconv.ParseFloat(strings.TrimSpace(x), 64)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
