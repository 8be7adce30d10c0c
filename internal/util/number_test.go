package util

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCleanNumber(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "5000", want: "5000"},
		{name: "thousands comma", input: "12,500", want: "12500"},
		{name: "currency suffix", input: "3,000원", want: "3000"},
		{name: "negative", input: "-2", want: "-2"},
		{name: "decimal", input: "1.5", want: "1.5"},
		{name: "dash only", input: "-", want: "0"},
		{name: "empty", input: "", want: "0"},
		{name: "garbage", input: "1.2.3", want: "0"},
		{name: "nan text", input: "nan", want: "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CleanNumber(tc.input)
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("got %s want %s", got, tc.want)
			}
		})
	}
}

func TestExtractWeightKg(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "kilograms", input: "2kg", want: "2"},
		{name: "upper case", input: "1.5KG", want: "1.5"},
		{name: "grams", input: "500g", want: "0.5"},
		{name: "grams with space", input: "사과 300 g", want: "0.3"},
		{name: "thousands", input: "1,000g", want: "1"},
		{name: "none", input: "1봉", want: "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractWeightKg(tc.input)
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("got %s want %s", got, tc.want)
			}
		})
	}
}

func TestCeilInt(t *testing.T) {
	if got := CeilInt(decimal.NewFromInt(10).Mul(decimal.RequireFromString("1.1"))); got != 11 {
		t.Fatalf("got %d want 11", got)
	}
	if got := CeilInt(decimal.RequireFromString("-3.2")); got != 0 {
		t.Fatalf("got %d want 0", got)
	}
}
