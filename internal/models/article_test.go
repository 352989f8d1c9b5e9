package models

import (
	"database/sql/driver"
	"encoding/json"
	"testing"
)

func TestEntityListSatisfiesDriverValuer(t *testing.T) {
	t.Parallel()

	// database/sql only invokes Value() through the driver.Valuer
	// interface; a bare slice type would be rejected by the driver's
	// argument conversion instead.
	var valuer driver.Valuer = EntityList{"Ada Lovelace"}
	v, err := valuer.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if !driver.IsValue(v) {
		t.Errorf("Value returned %T, want a type the driver accepts", v)
	}
}

func TestEntityListValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		list EntityList
		want string
	}{
		{"nil serializes as empty array", nil, "[]"},
		{"empty", EntityList{}, "[]"},
		{"values", EntityList{"Ada Lovelace", "Alan Turing"}, `["Ada Lovelace","Alan Turing"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := tt.list.Value()
			if err != nil {
				t.Fatalf("Value: %v", err)
			}
			if v.(string) != tt.want {
				t.Errorf("Value = %q, want %q", v, tt.want)
			}
		})
	}
}

func TestEntityListScan(t *testing.T) {
	t.Parallel()

	var fromBytes EntityList
	if err := fromBytes.Scan([]byte(`["Berlin"]`)); err != nil {
		t.Fatalf("Scan bytes: %v", err)
	}
	if len(fromBytes) != 1 || fromBytes[0] != "Berlin" {
		t.Errorf("Scan bytes = %v, want [Berlin]", fromBytes)
	}

	var fromString EntityList
	if err := fromString.Scan(`["NASA","ESA"]`); err != nil {
		t.Fatalf("Scan string: %v", err)
	}
	if len(fromString) != 2 {
		t.Errorf("Scan string = %v, want two entries", fromString)
	}

	var fromNil EntityList
	if err := fromNil.Scan(nil); err != nil {
		t.Fatalf("Scan nil: %v", err)
	}
	if fromNil == nil || len(fromNil) != 0 {
		t.Errorf("Scan nil = %v, want empty non-nil list", fromNil)
	}

	var fromJSONNull EntityList
	if err := fromJSONNull.Scan("null"); err != nil {
		t.Fatalf("Scan json null: %v", err)
	}
	if fromJSONNull == nil {
		t.Error("Scan of JSON null produced nil, want empty list")
	}

	var bad EntityList
	if err := bad.Scan(42); err == nil {
		t.Error("Scan of int succeeded, want error")
	}
}

func TestEntityListMarshalJSONNeverNull(t *testing.T) {
	t.Parallel()

	a := NewArticle()
	a.Persons = nil

	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal article: %v", err)
	}

	var out map[string]json.RawMessage
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal article: %v", err)
	}
	for _, field := range []string{"persons", "organizations", "locations"} {
		if string(out[field]) == "null" {
			t.Errorf("field %q serialized as null, want []", field)
		}
	}
}

func TestNewArticleDefaults(t *testing.T) {
	t.Parallel()

	a := NewArticle()
	if a.ReadTime != DefaultReadTime {
		t.Errorf("ReadTime = %d, want %d", a.ReadTime, DefaultReadTime)
	}
	if a.Popularity != DefaultPopularity {
		t.Errorf("Popularity = %d, want %d", a.Popularity, DefaultPopularity)
	}
	if a.Persons == nil || a.Organizations == nil || a.Locations == nil {
		t.Error("entity lists nil on new article, want empty")
	}
}
