package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadBarsCSV reads an ordered bar series from a CSV file. Two layouts
// are recognized: the MetaTrader export format (tab separated,
// "<DATE>\t<TIME>\t<OPEN>...") and the plain comma separated
// "time,open,high,low,close[,volume]" layout written by the fetch
// command. The layout is detected from the first line.
func LoadBarsCSV(path string) ([]Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars file: %w", err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, _ := f.Read(head)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if strings.Contains(string(head[:n]), "\t") {
		return readMetaTraderBars(f)
	}
	return readPlainBars(f)
}

// readMetaTraderBars parses the tab separated export format:
// date, time, open, high, low, close, tickvol, vol, spread.
func readMetaTraderBars(f io.Reader) ([]Bar, error) {
	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1

	var bars []Bar
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if line == 1 && strings.HasPrefix(rec[0], "<") {
			continue // header row
		}
		if len(rec) < 6 {
			return nil, fmt.Errorf("line %d: expected at least 6 fields, got %d", line, len(rec))
		}

		ts, err := time.Parse("2006.01.02 15:04:05", rec[0]+" "+rec[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad timestamp: %w", line, err)
		}
		b := Bar{Time: ts}
		if b.Open, err = strconv.ParseFloat(rec[2], 64); err != nil {
			return nil, fmt.Errorf("line %d: bad open: %w", line, err)
		}
		if b.High, err = strconv.ParseFloat(rec[3], 64); err != nil {
			return nil, fmt.Errorf("line %d: bad high: %w", line, err)
		}
		if b.Low, err = strconv.ParseFloat(rec[4], 64); err != nil {
			return nil, fmt.Errorf("line %d: bad low: %w", line, err)
		}
		if b.Close, err = strconv.ParseFloat(rec[5], 64); err != nil {
			return nil, fmt.Errorf("line %d: bad close: %w", line, err)
		}
		if len(rec) > 6 {
			b.Volume, _ = strconv.ParseFloat(rec[6], 64)
		}
		bars = append(bars, b)
	}
	return bars, nil
}

// readPlainBars parses "time,open,high,low,close[,volume]" rows where
// time is RFC3339 or a unix second count. A header row is skipped.
func readPlainBars(f io.Reader) ([]Bar, error) {
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var bars []Bar
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(rec) < 5 {
			return nil, fmt.Errorf("line %d: expected at least 5 fields, got %d", line, len(rec))
		}
		ts, err := parseTime(rec[0])
		if err != nil {
			if line == 1 {
				continue // header row
			}
			return nil, fmt.Errorf("line %d: bad timestamp: %w", line, err)
		}
		b := Bar{Time: ts}
		if b.Open, err = strconv.ParseFloat(rec[1], 64); err != nil {
			return nil, fmt.Errorf("line %d: bad open: %w", line, err)
		}
		if b.High, err = strconv.ParseFloat(rec[2], 64); err != nil {
			return nil, fmt.Errorf("line %d: bad high: %w", line, err)
		}
		if b.Low, err = strconv.ParseFloat(rec[3], 64); err != nil {
			return nil, fmt.Errorf("line %d: bad low: %w", line, err)
		}
		if b.Close, err = strconv.ParseFloat(rec[4], 64); err != nil {
			return nil, fmt.Errorf("line %d: bad close: %w", line, err)
		}
		if len(rec) > 5 {
			b.Volume, _ = strconv.ParseFloat(rec[5], 64)
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// WriteBarsCSV writes bars in the plain layout readable by LoadBarsCSV.
func WriteBarsCSV(path string, bars []Bar) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create bars file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"time", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, b := range bars {
		rec := []string{
			b.Time.UTC().Format(time.RFC3339),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatFloat(b.Volume, 'f', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
