package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// WorkIntervalConverter maps wire seconds to WorkInterval values.
type WorkIntervalConverter struct{}

func (WorkIntervalConverter) Decode(wire any) (WorkInterval, error) {
	seconds, err := wireInt(wire)
	if err != nil {
		return WorkInterval{}, err
	}
	return Seconds(seconds), nil
}

func (WorkIntervalConverter) Encode(value WorkInterval) int64 {
	return value.Seconds()
}

// TimeIntervalConverter maps wire seconds to calendar TimeInterval values.
type TimeIntervalConverter struct{}

func (TimeIntervalConverter) Decode(wire any) (TimeInterval, error) {
	seconds, err := wireInt(wire)
	if err != nil {
		return TimeInterval{}, err
	}
	return CalendarSeconds(seconds), nil
}

func (TimeIntervalConverter) Encode(value TimeInterval) int64 {
	return value.Seconds()
}

// FourCCConverter maps signed 32 bit wire integers to four character codes.
type FourCCConverter struct{}

func (FourCCConverter) Decode(wire any) (FourCC, error) {
	n, err := wireInt(wire)
	if err != nil {
		return "", err
	}
	if n < math.MinInt32 || n > math.MaxUint32 {
		return "", fmt.Errorf("value %d does not fit in 32 bits", n)
	}
	return FourCCFromValue(int32(uint32(n))), nil
}

func (FourCCConverter) Encode(code FourCC) (int64, error) {
	v, err := code.Value()
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

// CustomDataPair is the wire shape of a single custom data entry.
type CustomDataPair struct {
	Name  string
	Value string
}

// CustomDataConverter maps a list of name/value records to a map.
// Later duplicates win.
type CustomDataConverter struct{}

func (CustomDataConverter) Decode(wire any) (map[string]string, error) {
	items, err := wireList(wire)
	if err != nil {
		return nil, err
	}
	data := make(map[string]string, len(items))
	for i, item := range items {
		record, err := wireRecord(item)
		if err != nil {
			return nil, fmt.Errorf("custom data entry %d: %w", i, err)
		}
		name, err := wireString(record["name"])
		if err != nil {
			return nil, fmt.Errorf("custom data entry %d name: %w", i, err)
		}
		data[name] = wireText(record["value"])
	}
	return data, nil
}

func (CustomDataConverter) Encode(data map[string]string) []CustomDataPair {
	pairs := make([]CustomDataPair, 0, len(data))
	for name, value := range data {
		pairs = append(pairs, CustomDataPair{Name: name, Value: value})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Name < pairs[j].Name })
	return pairs
}

// UTCDateConverter tags naive wire timestamps with UTC. A nil result means
// the host reported no value.
type UTCDateConverter struct{}

func (UTCDateConverter) Decode(wire any) (*time.Time, error) {
	switch v := wire.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return nil, fmt.Errorf("unexpected text %q for date", v)
	case time.Time:
		if v.IsZero() {
			return nil, nil
		}
		utc := time.Date(v.Year(), v.Month(), v.Day(), v.Hour(), v.Minute(), v.Second(), v.Nanosecond(), time.UTC)
		return &utc, nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		return UTCDateConverter{}.Decode(*v)
	default:
		return nil, fmt.Errorf("unexpected %T for date", wire)
	}
}

func wireInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("integer %d overflows int64", n)
		}
		return int64(n), nil
	case float32:
		return int64(math.Round(float64(n))), nil
	case float64:
		return int64(math.Round(n)), nil
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("expected integer, got %q", n)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func wireFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case string:
		if n == "" {
			return 0, nil
		}
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("expected number, got %q", n)
		}
		return parsed, nil
	default:
		i, err := wireInt(v)
		if err != nil {
			return 0, fmt.Errorf("expected number, got %T", v)
		}
		return float64(i), nil
	}
}

func wireString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected text, got %T", v)
	}
	return s, nil
}

// wireText renders any scalar as text; custom data values are free form.
func wireText(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func wireList(v any) ([]any, error) {
	switch l := v.(type) {
	case nil:
		return nil, nil
	case string:
		if l == "" {
			return nil, nil
		}
	case []any:
		return l, nil
	case []map[string]any:
		out := make([]any, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected list, got %T", v)
}

func wireRecord(v any) (map[string]any, error) {
	r, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected record, got %T", v)
	}
	return r, nil
}
