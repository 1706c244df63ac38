package warehouse

import "testing"

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain name", in: "customer_id", want: "`customer_id`"},
		{name: "reserved word", in: "table", want: "`table`"},
		{name: "embedded backtick doubled", in: "we`ird", want: "`we``ird`"},
		{name: "empty name still quoted", in: "", want: "``"},
		{name: "spaces preserved", in: "my table", want: "`my table`"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QuoteIdentifier(tt.in); got != tt.want {
				t.Errorf("QuoteIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestQuoteQualified(t *testing.T) {
	got := QuoteQualified("main", "sales", "orders")
	want := "`main`.`sales`.`orders`"
	if got != want {
		t.Errorf("QuoteQualified() = %q, want %q", got, want)
	}
}

func TestEscapeStringLiteral(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "no quotes unchanged", in: "secure_contracts", want: "secure_contracts"},
		{name: "single quote doubled", in: "o'brien", want: "o''brien"},
		{name: "multiple quotes", in: "''", want: "''''"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeStringLiteral(tt.in); got != tt.want {
				t.Errorf("EscapeStringLiteral(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
