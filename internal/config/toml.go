package config

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/LISSConsulting/LISSTech.Blocks/internal/attrs"
)

// parseTOML reads top-level keys as globals and every table or array table
// as a block named after it. Keys keep the order they are written in.
func (l *loader) parseTOML(data []byte) error {
	var raw map[string]any
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return err
	}

	var (
		cur     *attrs.Set
		curName string
		curTbl  map[string]any
		seen    = make(map[string]int) // array table occurrences
	)

	for _, key := range md.Keys() {
		switch len(key) {
		case 1:
			name := key[0]
			switch md.Type(key...) {
			case "Hash":
				tbl, _ := raw[name].(map[string]any)
				cur, curName, curTbl = l.section(name), name, tbl
			case "ArrayHash":
				tbls, _ := raw[name].([]map[string]any)
				i := seen[name]
				seen[name]++
				if i >= len(tbls) {
					return fmt.Errorf("array table %s: missing entry %d", name, i)
				}
				cur, curName, curTbl = l.section(name), name, tbls[i]
			default:
				if cur != nil {
					return fmt.Errorf("global %s declared after a block", name)
				}
				v, err := stringify(raw[name])
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				l.global(name, v)
			}
		case 2:
			if cur == nil || key[0] != curName {
				return fmt.Errorf("%s is not inside a block table", key)
			}
			v, err := stringify(curTbl[key[1]])
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			cur.Set(key[1], v)
		default:
			// Part of a nested value already stored as JSON text.
		}
	}
	return nil
}

// stringify renders a decoded TOML value the way it is written. Tables and
// arrays become JSON text.
func stringify(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case fmt.Stringer:
		return v.String(), nil
	case nil:
		return "", fmt.Errorf("missing value")
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
