package ioformats

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"phishguard/internal/models"
)

var (
	ErrEmptyInput  = errors.New("no urls in input")
	ErrNoURLColumn = errors.New("csv must contain a 'url' header column")
)

// ReadURLs reads URLs from a CSV (expects header with "url") or NDJSON file.
// If ext cannot be determined, tries CSV first then NDJSON.
func ReadURLs(path string) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		return readCSV(path)
	case ".ndjson", ".jsonl":
		return readNDJSON(path)
	default:
		// try csv then ndjson
		if urls, err := readCSV(path); err == nil && len(urls) > 0 {
			return urls, nil
		}
		return readNDJSON(path)
	}
}

func readCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}
	// find "url" column
	col := -1
	for i, h := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(h), "url") {
			col = i
			break
		}
	}
	if col == -1 {
		return nil, ErrNoURLColumn
	}
	var out []string
	for _, row := range rows[1:] {
		if col < len(row) {
			u := strings.TrimSpace(row[col])
			if u != "" {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

func readNDJSON(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		// allow raw string or {"url": "..."}
		if strings.HasPrefix(line, "{") {
			var obj map[string]any
			if err := json.Unmarshal([]byte(line), &obj); err == nil {
				if v, ok := obj["url"]; ok {
					if s, ok := v.(string); ok && s != "" {
						out = append(out, s)
						continue
					}
				}
			}
		}
		// fallback: treat whole line as url
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrEmptyInput
	}
	return out, nil
}

// Record is one batch line: either a result or the error that prevented it.
type Record struct {
	URL    string                 `json:"url"`
	Result *models.AnalysisResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// WriteNDJSON writes one JSON object per record.
func WriteNDJSON(w io.Writer, recs []Record) error {
	enc := json.NewEncoder(w)
	for _, r := range recs {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteFeatureCSV writes url, the feature columns in catalog order and one
// label column per model. Failed records keep the url and leave the rest empty.
func WriteFeatureCSV(w io.Writer, featureNames, modelNames []string, recs []Record) error {
	cw := csv.NewWriter(w)
	header := append([]string{"url"}, featureNames...)
	header = append(header, modelNames...)
	header = append(header, "error")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range recs {
		row := make([]string, len(header))
		row[0] = r.URL
		row[len(row)-1] = r.Error
		if res := r.Result; res != nil {
			for i, name := range featureNames {
				if v, ok := res.Features.Get(name); ok {
					row[1+i] = strconv.Itoa(v)
				}
			}
			off := 1 + len(featureNames)
			for i, m := range modelNames {
				for _, p := range res.Predictions {
					if p.Model == m && p.OK() {
						row[off+i] = string(p.Label)
					}
				}
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
