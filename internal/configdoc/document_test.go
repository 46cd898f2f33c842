package configdoc

import (
	"testing"
)

func TestParse_RoundTrip(t *testing.T) {
	raw := `{"agents":{"defaults":{"model":{"primary":"gpt-5"},"temperature":0.7}},"channels":["telegram","discord"],"gateway":{"port":18789}}`

	doc, err := ParseString(raw)
	if err != nil {
		t.Fatalf("ParseString() failed: %v", err)
	}

	got, err := doc.Canonical()
	if err != nil {
		t.Fatalf("Canonical() failed: %v", err)
	}

	// Keys already sorted in the input, so canonical form matches.
	if got != raw {
		t.Errorf("canonical = %s, want %s", got, raw)
	}
}

func TestParse_RejectsNonObjectRoot(t *testing.T) {
	for _, raw := range []string{`[1,2,3]`, `"scalar"`, `42`} {
		if _, err := ParseString(raw); err == nil {
			t.Errorf("ParseString(%s) succeeded, want error", raw)
		}
	}
}

func TestParse_RejectsTrailingData(t *testing.T) {
	if _, err := ParseString(`{} {}`); err == nil {
		t.Error("ParseString with trailing data succeeded, want error")
	}
}

func TestCanonical_SortsKeys(t *testing.T) {
	doc, err := ParseString(`{"zeta":1,"alpha":2,"mid":{"b":1,"a":2}}`)
	if err != nil {
		t.Fatalf("ParseString() failed: %v", err)
	}

	got, err := doc.Canonical()
	if err != nil {
		t.Fatalf("Canonical() failed: %v", err)
	}

	want := `{"alpha":2,"mid":{"a":2,"b":1},"zeta":1}`
	if got != want {
		t.Errorf("canonical = %s, want %s", got, want)
	}
}

func TestCanonical_NoHTMLEscaping(t *testing.T) {
	doc := New()
	if err := doc.Set("cmd", "a < b && c > d"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	got, err := doc.Canonical()
	if err != nil {
		t.Fatalf("Canonical() failed: %v", err)
	}

	want := `{"cmd":"a < b && c > d"}`
	if got != want {
		t.Errorf("canonical = %s, want %s", got, want)
	}
}

func TestCanonical_PreservesNumericText(t *testing.T) {
	doc, err := ParseString(`{"ratio":0.10,"big":12345678901234567890}`)
	if err != nil {
		t.Fatalf("ParseString() failed: %v", err)
	}

	got, err := doc.Canonical()
	if err != nil {
		t.Fatalf("Canonical() failed: %v", err)
	}

	want := `{"big":12345678901234567890,"ratio":0.10}`
	if got != want {
		t.Errorf("canonical = %s, want %s", got, want)
	}
}

func TestClone_Isolated(t *testing.T) {
	doc, err := ParseString(`{"a":{"b":1}}`)
	if err != nil {
		t.Fatalf("ParseString() failed: %v", err)
	}

	clone := doc.Clone()
	if err := clone.Set("a.b", "changed"); err != nil {
		t.Fatalf("Set() on clone failed: %v", err)
	}

	if v, ok := doc.Get("a.b"); !ok || v == "changed" {
		t.Errorf("original mutated through clone: a.b = %v", v)
	}
}

func TestEqual(t *testing.T) {
	a, _ := ParseString(`{"x":1,"y":2}`)
	b, _ := ParseString(`{"y":2,"x":1}`)
	c, _ := ParseString(`{"x":1,"y":3}`)

	if eq, err := a.Equal(b); err != nil || !eq {
		t.Errorf("Equal(a, b) = %v, %v; want true, nil", eq, err)
	}
	if eq, err := a.Equal(c); err != nil || eq {
		t.Errorf("Equal(a, c) = %v, %v; want false, nil", eq, err)
	}
}
