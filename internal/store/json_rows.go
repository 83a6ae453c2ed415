package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// jsonRows はJSON配列の応答をRowsとして読み出す。
// Scanの引数はQuery.Columnsの順に対応する。
type jsonRows struct {
	columns []string
	records []map[string]any
	pos     int
	closed  bool
}

func (r *jsonRows) Next() bool {
	if r.closed || r.pos+1 >= len(r.records) {
		return false
	}
	r.pos++
	return true
}

func (r *jsonRows) Scan(dest ...any) error {
	if r.closed {
		return errors.New("store: rows are closed")
	}
	if r.pos < 0 || r.pos >= len(r.records) {
		return errors.New("store: Scan called without calling Next")
	}
	if len(dest) != len(r.columns) {
		return fmt.Errorf("store: expected %d destination arguments in Scan, not %d", len(r.columns), len(dest))
	}

	record := r.records[r.pos]
	for i, col := range r.columns {
		if err := assign(dest[i], record[col]); err != nil {
			return fmt.Errorf("store: column %q: %w", col, err)
		}
	}
	return nil
}

func (r *jsonRows) Err() error { return nil }

func (r *jsonRows) Close() error {
	r.closed = true
	return nil
}

// timeLayouts はtimestamptzとtimestampの両方を受け付けるためのレイアウト。
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

func parseTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// assign はJSONの値をScanの格納先に代入する。
// database/sqlと同様に、NULLは*stringや*boolには代入できない。
func assign(dest any, v any) error {
	switch d := dest.(type) {
	case *string:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("cannot assign %T to string", v)
		}
		*d = s
	case *bool:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("cannot assign %T to bool", v)
		}
		*d = b
	case *int:
		n, ok := v.(json.Number)
		if !ok {
			return fmt.Errorf("cannot assign %T to int", v)
		}
		i, err := n.Int64()
		if err != nil {
			return err
		}
		*d = int(i)
	case *time.Time:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("cannot assign %T to time.Time", v)
		}
		t, err := parseTime(s)
		if err != nil {
			return err
		}
		*d = t
	case *sql.NullTime:
		if v == nil {
			*d = sql.NullTime{}
			return nil
		}
		var t time.Time
		if err := assign(&t, v); err != nil {
			return err
		}
		*d = sql.NullTime{Time: t, Valid: true}
	case sql.Scanner:
		if n, ok := v.(json.Number); ok {
			v = n.String()
		}
		return d.Scan(v)
	default:
		return fmt.Errorf("unsupported scan destination %T", dest)
	}
	return nil
}
