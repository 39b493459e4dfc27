package models

import (
	"encoding/json"
	"fmt"
)

// Row is one generic resource record as returned by the platform API. Fields
// holds the raw decoded object; ID is the value of the resource's configured
// identifier field, normalized to a string.
type Row struct {
	ID     string                 `json:"id"`
	Fields map[string]interface{} `json:"fields"`
}

// Key implements the table record identity.
func (r Row) Key() string { return r.ID }

// Field returns the named field value, or nil when absent.
func (r Row) Field(name string) interface{} {
	return r.Fields[name]
}

// SetField writes a field value in place.
func (r *Row) SetField(name string, value interface{}) {
	if r.Fields == nil {
		r.Fields = make(map[string]interface{})
	}
	r.Fields[name] = value
}

// DecodeRow parses one raw API object into a Row, extracting the identifier
// from idField. Numeric identifiers are normalized to their decimal string
// form so selection keys compare consistently.
func DecodeRow(raw json.RawMessage, idField string) (Row, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Row{}, fmt.Errorf("decode record: %w", err)
	}
	idVal, ok := fields[idField]
	if !ok {
		return Row{}, fmt.Errorf("record missing identifier field %q", idField)
	}
	return Row{ID: normalizeID(idVal), Fields: fields}, nil
}

// DecodeRows parses a full page of raw API objects.
func DecodeRows(raw []json.RawMessage, idField string) ([]Row, error) {
	rows := make([]Row, 0, len(raw))
	for _, r := range raw {
		row, err := DecodeRow(r, idField)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func normalizeID(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		// encoding/json decodes all JSON numbers as float64
		if id == float64(int64(id)) {
			return fmt.Sprintf("%d", int64(id))
		}
		return fmt.Sprintf("%v", id)
	default:
		return fmt.Sprintf("%v", id)
	}
}
