package csvstore

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// openAppend opens path for appending, reporting whether the file is empty
// and still needs a header row.
func openAppend(path string) (*os.File, bool, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, false, err
	}
	pos, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		file.Close()
		return nil, false, err
	}
	return file, pos == 0, nil
}

// barFiles lists the trading-day bar files in dir, newest first.
func barFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read bar directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, barFileSuffix) {
			continue
		}
		if len(name) < 8 || !isDigits(name[:8]) {
			continue
		}
		names = append(names, name)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// lastBarRow returns the final data row of the newest non-empty bar file.
func lastBarRow(dir string) ([]string, bool, error) {
	names, err := barFiles(dir)
	if err != nil {
		return nil, false, err
	}

	for _, name := range names {
		row, err := lastDataRow(filepath.Join(dir, name))
		if err != nil {
			return nil, false, err
		}
		if row != nil {
			return row, true, nil
		}
	}
	return nil, false, nil
}

// lastDataRow reads path and returns its last complete row past the header,
// or nil when the file holds no usable data rows.
func lastDataRow(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var last []string
	first := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if first {
			first = false
			continue
		}
		if len(row) < len(barHeader) {
			// Torn row from a crash mid-append; resume from the row before it.
			continue
		}
		last = row
	}
	return last, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
