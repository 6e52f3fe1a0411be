package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrYearNotFound is returned when no car data file exists for a year.
var ErrYearNotFound = errors.New("no data available for this year")

// CarRecord is one year/make/model row from the car data files.
type CarRecord struct {
	Make  string
	Model string
}

// CarDataService answers year -> makes and year+make -> models lookups from
// CSV files named <year>.csv. Each year's file is parsed once and served from
// an in-memory cache afterwards.
type CarDataService struct {
	dir string

	mu    sync.RWMutex
	cache map[string][]CarRecord
}

func NewCarDataService(dir string) *CarDataService {
	return &CarDataService{
		dir:   dir,
		cache: make(map[string][]CarRecord),
	}
}

// Makes returns the sorted, deduplicated makes for a year.
func (s *CarDataService) Makes(year string) ([]string, error) {
	records, err := s.loadYear(year)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	makes := make([]string, 0)
	for _, record := range records {
		if !seen[record.Make] {
			seen[record.Make] = true
			makes = append(makes, record.Make)
		}
	}
	sort.Strings(makes)
	return makes, nil
}

// Models returns the sorted, deduplicated models for a year and make.
// The make comparison is case-insensitive.
func (s *CarDataService) Models(year, carMake string) ([]string, error) {
	records, err := s.loadYear(year)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	modelNames := make([]string, 0)
	for _, record := range records {
		if !strings.EqualFold(record.Make, carMake) {
			continue
		}
		if !seen[record.Model] {
			seen[record.Model] = true
			modelNames = append(modelNames, record.Model)
		}
	}
	sort.Strings(modelNames)
	return modelNames, nil
}

// ClearCache drops every cached year.
func (s *CarDataService) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string][]CarRecord)
}

func (s *CarDataService) loadYear(year string) ([]CarRecord, error) {
	s.mu.RLock()
	records, ok := s.cache[year]
	s.mu.RUnlock()
	if ok {
		return records, nil
	}

	file, err := os.Open(filepath.Join(s.dir, year+".csv"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrYearNotFound, year)
		}
		return nil, fmt.Errorf("failed to open car data for %s: %w", year, err)
	}
	defer file.Close()

	records, err = parseCarData(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse car data for %s: %w", year, err)
	}

	s.mu.Lock()
	s.cache[year] = records
	s.mu.Unlock()
	return records, nil
}

// parseCarData reads a CSV with a header row carrying at least the "make"
// and "model" columns. Blank rows are skipped.
func parseCarData(r io.Reader) ([]CarRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}

	makeIdx, modelIdx := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "make":
			makeIdx = i
		case "model":
			modelIdx = i
		}
	}
	if makeIdx < 0 || modelIdx < 0 {
		return nil, errors.New("missing make or model column")
	}

	var records []CarRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) <= makeIdx || len(row) <= modelIdx {
			continue
		}
		carMake := strings.TrimSpace(row[makeIdx])
		carModel := strings.TrimSpace(row[modelIdx])
		if carMake == "" && carModel == "" {
			continue
		}
		records = append(records, CarRecord{Make: carMake, Model: carModel})
	}
	return records, nil
}
