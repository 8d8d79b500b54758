package kpi

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ErrNoHeader is returned when the sheet has no header row.
var ErrNoHeader = errors.New("kpi: missing header row")

// Row is one line of the manpower sheet.
type Row struct {
	Date        string
	Line        string
	Shift       string
	TargetHours float64
	ActualHours float64
	Manpower    float64
	OutputUnits float64
	Defects     float64
}

// Efficiency returns actual/target hours as a percentage, or 0 without a target.
func (r Row) Efficiency() float64 {
	if r.TargetHours == 0 {
		return 0
	}
	return r.ActualHours / r.TargetHours * 100
}

// ParseManpower reads a manpower sheet with a header row. Columns are matched
// by name in any order; missing columns and unparsable numbers read as zero.
func ParseManpower(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("kpi: read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	field := func(rec []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("kpi: read row: %w", err)
		}
		if blank(rec) {
			continue
		}
		rows = append(rows, Row{
			Date:        field(rec, "date"),
			Line:        field(rec, "line"),
			Shift:       field(rec, "shift"),
			TargetHours: number(field(rec, "target_hours")),
			ActualHours: number(field(rec, "actual_hours")),
			Manpower:    number(field(rec, "manpower")),
			OutputUnits: number(field(rec, "output_units")),
			Defects:     number(field(rec, "defects")),
		})
	}
	return rows, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// number parses v with thousands separators removed.
func number(v string) float64 {
	v = strings.ReplaceAll(strings.TrimSpace(v), ",", "")
	if v == "" {
		return 0
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return n
}

// All disables a filter dimension.
const All = "all"

// Filter keeps rows matching line and shift, case-insensitively. Pass [All] or
// "" to skip a dimension.
func Filter(rows []Row, line, shift string) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if !matches(r.Line, line) || !matches(r.Shift, shift) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matches(value, want string) bool {
	want = strings.TrimSpace(want)
	return want == "" || strings.EqualFold(want, All) || strings.EqualFold(value, want)
}

// Summary is the KPI card row of the dashboard.
type Summary struct {
	Rows          int
	TotalTarget   float64
	TotalActual   float64
	TotalOutput   float64
	TotalDefects  float64
	TotalManpower float64
	// Efficiency is actual/target hours in percent.
	Efficiency float64
	// DefectRate is defects/output in percent.
	DefectRate float64
	// Productivity is output units per head.
	Productivity float64
}

// Summarize totals rows. Ratios are 0 when their denominator is 0.
func Summarize(rows []Row) Summary {
	var s Summary
	for _, r := range rows {
		s.TotalTarget += r.TargetHours
		s.TotalActual += r.ActualHours
		s.TotalOutput += r.OutputUnits
		s.TotalDefects += r.Defects
		s.TotalManpower += r.Manpower
	}
	s.Rows = len(rows)
	if s.TotalTarget != 0 {
		s.Efficiency = s.TotalActual / s.TotalTarget * 100
	}
	if s.TotalOutput != 0 {
		s.DefectRate = s.TotalDefects / s.TotalOutput * 100
	}
	if s.TotalManpower != 0 {
		s.Productivity = s.TotalOutput / s.TotalManpower
	}
	return s
}

// TrendPoint is one date on the efficiency chart.
type TrendPoint struct {
	Date string
	// Efficiency is the sum of the per-row efficiencies for Date.
	Efficiency float64
	Output     float64
}

// Trend groups rows by date, summing per-row efficiency and output, ordered by date.
func Trend(rows []Row) []TrendPoint {
	byDate := make(map[string]*TrendPoint)
	for _, r := range rows {
		p, ok := byDate[r.Date]
		if !ok {
			p = &TrendPoint{Date: r.Date}
			byDate[r.Date] = p
		}
		p.Efficiency += r.Efficiency()
		p.Output += r.OutputUnits
	}
	out := make([]TrendPoint, 0, len(byDate))
	for _, p := range byDate {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Lines returns the distinct production lines in rows, lowercased and sorted.
func Lines(rows []Row) []string {
	return distinct(rows, func(r Row) string { return r.Line })
}

// Shifts returns the distinct shifts in rows, lowercased and sorted.
func Shifts(rows []Row) []string {
	return distinct(rows, func(r Row) string { return r.Shift })
}

func distinct(rows []Row, key func(Row) string) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		k := strings.ToLower(strings.TrimSpace(key(r)))
		if k == "" {
			continue
		}
		seen[k] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
