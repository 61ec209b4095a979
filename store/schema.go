package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mothmailer/mothmailer/record"
)

// wrapperKeys are the object keys earlier versions used for the list,
// in the order they are tried.
var wrapperKeys = []string{"records", "sent", "sent_ids", "ids"}

// Entry is one element of the log: a bare id (the legacy shape) or a
// full record.
type Entry struct {
	ID     record.ID
	Record *record.Record
}

// Legacy reports if the entry is a bare identifier
func (e Entry) Legacy() bool {
	return e.Record == nil
}

type document struct {
	Records []record.Record `json:"records"`
}

func decodeDocument(b []byte) ([]Entry, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil, nil
	}

	switch b[0] {
	case '[':
		return decodeEntries(b)
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(b, &obj); err != nil {
			return nil, err
		}
		for _, k := range wrapperKeys {
			if raw, ok := obj[k]; ok {
				entries, err := decodeEntries(raw)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", k, err)
				}
				return entries, nil
			}
		}
		if len(obj) == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("unrecognized document: no %v key", wrapperKeys)
	default:
		return nil, fmt.Errorf("unrecognized document: expected a list or an object")
	}
}

func decodeEntries(b []byte) ([]Entry, error) {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(raw))
	for i, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '{' {
			var r record.Record
			if err := json.Unmarshal(item, &r); err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			if r.ID == "" {
				continue
			}
			entries = append(entries, Entry{ID: r.ID, Record: &r})
			continue
		}

		var id record.ID
		if err := json.Unmarshal(item, &id); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if id == "" {
			continue
		}
		entries = append(entries, Entry{ID: id})
	}
	return entries, nil
}

// coerce converts the entries to the structured shape. A log made only
// of legacy ids becomes id-only records; when legacy ids are mixed with
// records the legacy ids are dropped.
func coerce(entries []Entry) []record.Record {
	legacy := 0
	for _, e := range entries {
		if e.Legacy() {
			legacy++
		}
	}

	records := make([]record.Record, 0, len(entries)+1)
	for _, e := range entries {
		switch {
		case !e.Legacy():
			records = append(records, *e.Record)
		case legacy == len(entries):
			records = append(records, record.Record{ID: e.ID})
		}
	}
	return records
}

func encodeDocument(records []record.Record) ([]byte, error) {
	return json.MarshalIndent(document{Records: records}, "", "  ")
}
