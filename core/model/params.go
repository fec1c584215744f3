package model

import (
	"fmt"
	"sort"
)

// Parameters はコンポーネントのハイパーパラメータ
type Parameters map[string]interface{}

// Clone returns a copy; nested Parameters and maps are copied one level deep.
func (p Parameters) Clone() Parameters {
	if p == nil {
		return Parameters{}
	}
	out := make(Parameters, len(p))
	for k, v := range p {
		switch tv := v.(type) {
		case Parameters:
			out[k] = tv.Clone()
		case map[string]interface{}:
			out[k] = Parameters(tv).Clone()
		case []string:
			out[k] = append([]string(nil), tv...)
		case []int:
			out[k] = append([]int(nil), tv...)
		case []float64:
			out[k] = append([]float64(nil), tv...)
		default:
			out[k] = v
		}
	}
	return out
}

// Merge returns a copy of p overlaid with other.
func (p Parameters) Merge(other Parameters) Parameters {
	out := p.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Has reports whether key is present, even with a nil value.
func (p Parameters) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Keys returns the keys sorted.
func (p Parameters) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Float reads a numeric parameter. YAML and JSON decode numbers as int or
// float64, both are accepted.
func (p Parameters) Float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch tv := v.(type) {
	case float64:
		return tv, nil
	case float32:
		return float64(tv), nil
	case int:
		return float64(tv), nil
	case int64:
		return float64(tv), nil
	default:
		return 0, fmt.Errorf("parameter %q: expected number, got %T", key, v)
	}
}

// Int reads an integral parameter. Floats with a fractional part are rejected.
func (p Parameters) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch tv := v.(type) {
	case int:
		return tv, nil
	case int64:
		return int(tv), nil
	case float64:
		if tv != float64(int(tv)) {
			return 0, fmt.Errorf("parameter %q: expected integer, got %v", key, tv)
		}
		return int(tv), nil
	default:
		return 0, fmt.Errorf("parameter %q: expected integer, got %T", key, v)
	}
}

func (p Parameters) String(key, def string) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q: expected string, got %T", key, v)
	}
	return s, nil
}

func (p Parameters) Bool(key string, def bool) (bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("parameter %q: expected bool, got %T", key, v)
	}
	return b, nil
}

// Ints reads a list of integers ([]int or []interface{} from YAML).
func (p Parameters) Ints(key string) ([]int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch tv := v.(type) {
	case []int:
		return append([]int(nil), tv...), nil
	case []interface{}:
		out := make([]int, len(tv))
		for i, e := range tv {
			n, err := Parameters{"v": e}.Int("v", 0)
			if err != nil {
				return nil, fmt.Errorf("parameter %q[%d]: %w", key, i, err)
			}
			out[i] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("parameter %q: expected list of integers, got %T", key, v)
	}
}
