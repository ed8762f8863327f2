package id_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/xraph/courseprice/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"QuoteID", id.NewQuoteID, "quote_"},
		{"ScopeID", id.NewScopeID, "scope_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestParseQuoteID(t *testing.T) {
	q := id.NewQuoteID()
	parsed, err := id.ParseQuoteID(q.String())
	if err != nil {
		t.Fatal(err)
	}
	if parsed.String() != q.String() {
		t.Errorf("got %s, want %s", parsed, q)
	}

	if _, err := id.ParseQuoteID(id.NewScopeID().String()); err == nil {
		t.Error("expected prefix mismatch error")
	}
	if _, err := id.Parse(""); err == nil {
		t.Error("expected error for empty string")
	}
	if _, err := id.Parse("not a typeid"); err == nil {
		t.Error("expected error for garbage")
	}
}

func TestNil(t *testing.T) {
	if !id.Nil.IsNil() {
		t.Error("Nil must be nil")
	}
	if id.Nil.String() != "" || id.Nil.Prefix() != "" {
		t.Errorf("Nil renders as %q / %q", id.Nil.String(), id.Nil.Prefix())
	}
}

func TestJSONText(t *testing.T) {
	type payload struct {
		ID id.ID `json:"id"`
	}
	in := payload{ID: id.NewQuoteID()}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out payload
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.ID.String() != in.ID.String() {
		t.Errorf("got %s, want %s", out.ID, in.ID)
	}

	var empty payload
	if err := json.Unmarshal([]byte(`{"id":""}`), &empty); err != nil {
		t.Fatal(err)
	}
	if !empty.ID.IsNil() {
		t.Error("empty string must decode to Nil")
	}
}
