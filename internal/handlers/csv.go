package handlers

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/kamusis/answerhub/internal/dispatch"
)

// csvFiles returns the .csv files at path: path itself when it is a file,
// otherwise every .csv below it in lexical order.
func csvFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	var out []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".csv") {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no csv files in %s", path)
	}
	sort.Strings(out)
	return out, nil
}

// readRows reads a headed CSV file into one map per row.
func readRows(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var rows []map[string]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = rec[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func allRows(ctx context.Context, path string) ([]map[string]string, error) {
	files, err := csvFiles(path)
	if err != nil {
		return nil, err
	}
	rows := []map[string]string{}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := readRows(f)
		if err != nil {
			return nil, err
		}
		rows = append(rows, r...)
	}
	return rows, nil
}

func csvToJSON(ctx context.Context, c *dispatch.Call) (any, error) {
	path, err := c.Text("file_path")
	if err != nil {
		return nil, err
	}
	rows, err := allRows(ctx, path)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func csvColumnSum(ctx context.Context, c *dispatch.Call) (any, error) {
	path, err := c.Text("file_path")
	if err != nil {
		return nil, err
	}
	column, err := c.Text("column")
	if err != nil {
		return nil, err
	}
	rows, err := allRows(ctx, path)
	if err != nil {
		return nil, err
	}
	var sum float64
	found := false
	for i, row := range rows {
		v, ok := row[column]
		if !ok {
			continue
		}
		found = true
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: column %q: %w", i+1, column, err)
		}
		sum += n
	}
	if !found {
		return nil, fmt.Errorf("column %q not found", column)
	}
	return sum, nil
}
