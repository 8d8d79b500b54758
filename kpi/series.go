package kpi

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Point is one bar of an uploaded label,value chart.
type Point struct {
	Label string
	Value float64
}

// ParseSeries reads label,value lines. The first non-blank line is a header and
// is skipped; lines without a label are dropped and bad values read as zero.
func ParseSeries(r io.Reader) ([]Point, error) {
	sc := bufio.NewScanner(r)
	var (
		out    []Point
		header = true
	)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if header {
			header = false
			continue
		}
		parts := strings.Split(line, ",")
		label := strings.TrimSpace(parts[0])
		if label == "" {
			continue
		}
		var value float64
		if len(parts) > 1 {
			value = number(parts[1])
		}
		out = append(out, Point{Label: label, Value: value})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("kpi: read series: %w", err)
	}
	return out, nil
}
