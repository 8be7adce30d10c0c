package util

import "testing"

func TestStripSpaces(t *testing.T) {
	if got := StripSpaces(" 총 판매\n금액 "); got != "총판매금액" {
		t.Fatalf("got %q", got)
	}
}

func TestNFCComposesHangul(t *testing.T) {
	decomposed := "\u1100\u1161"
	if got := NFC(decomposed); got != "가" {
		t.Fatalf("got %q", got)
	}
}

func TestCleanPhone(t *testing.T) {
	cases := map[string]string{
		"010-1234-5678": "01012345678",
		"1012345678":    "01012345678",
		"1012345678.0":  "01012345678",
		"02-123-4567":   "021234567",
		"-":             "",
		"nan":           "",
		"":              "",
	}
	for in, want := range cases {
		if got := CleanPhone(in); got != want {
			t.Fatalf("CleanPhone(%q) = %q want %q", in, got, want)
		}
	}
}

func TestLooksLikeEmail(t *testing.T) {
	if !LooksLikeEmail("farm@example.com") {
		t.Fatalf("expected email")
	}
	if LooksLikeEmail("@nope") || LooksLikeEmail("x@y") {
		t.Fatalf("expected not email")
	}
}

func TestDiceCoefficient(t *testing.T) {
	if DiceCoefficient("고삼농협", "고삼농협") != 1 {
		t.Fatalf("identical strings must score 1")
	}
	if DiceCoefficient("", "a") != 0 {
		t.Fatalf("empty must score 0")
	}
	if s := DiceCoefficient("(주)유기샘", "유기샘"); s < 0.5 {
		t.Fatalf("similar names scored %v", s)
	}
}
