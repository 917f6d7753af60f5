package util

import "testing"

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"":                 "",
		"ana@gmail.com":    "a…@g….com",
		"a@b.co":           "a@b.co",
		"Juan.Perez@X.org": "j…@x.org",
		"noatsign":         "n…n",
		"ab":               "***",
	}
	for in, want := range cases {
		if got := MaskEmail(in); got != want {
			t.Fatalf("MaskEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMaskToken(t *testing.T) {
	cases := map[string]string{
		"":                       "",
		"short":                  "***",
		"4/0AbCdEfGhIjKlMnOpQr":  "4/0AbC…",
		"exactly8":               "exactl…",
	}
	for in, want := range cases {
		if got := MaskToken(in); got != want {
			t.Fatalf("MaskToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMaskToken_NeverEchoesFullValue(t *testing.T) {
	in := "ya29.a0AfH6SMBexampleaccesstoken"
	got := MaskToken(in)
	if got == in {
		t.Fatal("el token completo nunca debe sobrevivir al mask")
	}
	if n := len([]rune(got)); n > 7 {
		t.Fatalf("mask demasiado largo (%d runas): %q", n, got)
	}
}
