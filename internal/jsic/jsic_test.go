package jsic_test

import (
	"errors"
	"testing"

	"github.com/estat-master/estat-master/internal/jsic"
	"github.com/estat-master/estat-master/pkg/pipeline/core"
)

func sp(s string) *string { return &s }

func raw(code, name, desc string) jsic.RawRow {
	return jsic.RawRow{Code: code, CodeName: name, Desc: sp(desc)}
}

func TestLevelOf(t *testing.T) {
	tests := []struct {
		code    string
		want    jsic.Level
		wantErr bool
	}{
		{code: "A", want: jsic.LevelDivision},
		{code: "T", want: jsic.LevelDivision},
		{code: "01", want: jsic.LevelMajorGroup},
		{code: "010", want: jsic.LevelGroup},
		{code: "0101", want: jsic.LevelClass},
		{code: "", wantErr: true},
		{code: "a", wantErr: true},
		{code: "AB", wantErr: true},
		{code: "1", wantErr: true},
		{code: "01A", wantErr: true},
		{code: "01011", wantErr: true},
		{code: "０１", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, err := jsic.LevelOf(tt.code)
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidCodeShape) {
					t.Fatalf("LevelOf(%q) err=%v, want ErrInvalidCodeShape", tt.code, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("LevelOf(%q) unexpected error: %v", tt.code, err)
			}
			if got != tt.want {
				t.Fatalf("LevelOf(%q)=%s want=%s", tt.code, got, tt.want)
			}
		})
	}
}

func TestLeafCodes(t *testing.T) {
	rows := []jsic.RawRow{raw("A", "a", ""), raw("01", "b", ""), raw("010", "c", ""), raw("0101", "d", ""), raw("bad", "e", ""), raw("0102", "f", "")}
	got := jsic.LeafCodes(rows)
	if len(got) != 2 || got[0] != "0101" || got[1] != "0102" {
		t.Fatalf("LeafCodes()=%v", got)
	}
}

func TestNormalizeDescription(t *testing.T) {
	tests := []struct {
		name string
		in   *string
		want *string
	}{
		{name: "nil", in: nil, want: nil},
		{name: "mixed line breaks", in: sp("line1\r\nline2\n\n  line3"), want: sp("line1 line2 line3")},
		{name: "bare cr", in: sp("a\rb"), want: sp("a b")},
		{name: "tabs and edges", in: sp("  a\t\tb  "), want: sp("a b")},
		{name: "ideographic space", in: sp("農業　林業"), want: sp("農業 林業")},
		{name: "ascii separators", in: sp("a\x1cb\x1dc\x1e\x1fd"), want: sp("a b c d")},
		{name: "nbsp and nel", in: sp("a\u00a0b\u0085c"), want: sp("a b c")},
		{name: "only whitespace", in: sp(" \r\n "), want: sp("")},
		{name: "unchanged", in: sp("plain text"), want: sp("plain text")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := jsic.NormalizeDescription(tt.in)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("NormalizeDescription()=%v want=%v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Fatalf("NormalizeDescription()=%q want=%q", *got, *tt.want)
			}
		})
	}
}

func TestNormalizeDescription_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"a\r\n\r\nb",
		"\n\rx\ty 　 z\r",
		"already normal",
		"trailing\n",
	}
	for _, in := range inputs {
		once := jsic.NormalizeDescription(sp(in))
		twice := jsic.NormalizeDescription(once)
		if *once != *twice {
			t.Fatalf("not idempotent for %q: once=%q twice=%q", in, *once, *twice)
		}
	}
}

func TestNormalizeDescriptions_DoesNotMutateInput(t *testing.T) {
	in := []jsic.RawRow{raw("A", "a", " x \n y ")}
	out := jsic.NormalizeDescriptions(in)
	if *out[0].Desc != "x y" {
		t.Fatalf("unexpected desc: %q", *out[0].Desc)
	}
	if *in[0].Desc != " x \n y " {
		t.Fatalf("input mutated: %q", *in[0].Desc)
	}
}
