package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Metric is one line of the by-periods summary. Comment holds the
// spreadsheet formula the value was computed with.
type Metric struct {
	Name    string              `json:"name"`
	Value   decimal.Decimal     `json:"value"`
	Percent decimal.NullDecimal `json:"percent"`
	Comment string              `json:"comment,omitempty"`
}

// MetricSet keeps metrics in insertion order with lookup by name.
type MetricSet struct {
	items []Metric
	index map[string]int
}

func NewMetricSet() *MetricSet {
	return &MetricSet{index: make(map[string]int)}
}

// Put appends the metric, or replaces an existing one with the same name
// in place.
func (s *MetricSet) Put(m Metric) {
	if i, ok := s.index[m.Name]; ok {
		s.items[i] = m
		return
	}
	s.index[m.Name] = len(s.items)
	s.items = append(s.items, m)
}

func (s *MetricSet) Get(name string) (Metric, bool) {
	i, ok := s.index[name]
	if !ok {
		return Metric{}, false
	}
	return s.items[i], true
}

// Value returns the metric value or zero when the metric is absent.
func (s *MetricSet) Value(name string) decimal.Decimal {
	m, _ := s.Get(name)
	return m.Value
}

func (s *MetricSet) Len() int {
	return len(s.items)
}

func (s *MetricSet) Names() []string {
	names := make([]string, len(s.items))
	for i, m := range s.items {
		names[i] = m.Name
	}
	return names
}

func (s *MetricSet) All() []Metric {
	out := make([]Metric, len(s.items))
	copy(out, s.items)
	return out
}

func (s *MetricSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.items)
}

func (s *MetricSet) UnmarshalJSON(data []byte) error {
	var items []Metric
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = MetricSet{index: make(map[string]int, len(items))}
	for _, m := range items {
		s.Put(m)
	}
	return nil
}
