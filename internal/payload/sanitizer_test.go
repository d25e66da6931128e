package payload

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type memSource map[string]json.RawMessage

func (m memSource) ArtifactSchemaDefinition(_ context.Context, id string) (json.RawMessage, bool, error) {
	def, ok := m[id]
	return def, ok, nil
}

const quoteDefinition = `{
  "type": "object",
  "required": ["amount"],
  "properties": {
    "amount": {"type": "integer"},
    "currency": {"type": "string"},
    "discount": {"type": "number"},
    "signed": {"type": "boolean"},
    "lines": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["sku"],
        "properties": {"sku": {"type": "string"}, "qty": {"type": "integer"}}
      }
    }
  }
}`

func newQuoteSanitizer(mode Mode) *Sanitizer {
	return NewSanitizer(memSource{"quote": json.RawMessage(quoteDefinition)}, mode)
}

func TestSanitizeCoercesNumericString(t *testing.T) {
	out, err := newQuoteSanitizer(ModeCoerce).Sanitize(context.Background(), "quote", json.RawMessage(`{"amount": "120"}`))
	if err != nil {
		t.Fatalf("Sanitize: %v", err)
	}
	if string(out) != `{"amount":120}` {
		t.Fatalf("canonical payload: %s", out)
	}
}

func TestSanitizeStrictRejectsNumericString(t *testing.T) {
	_, err := newQuoteSanitizer(ModeStrict).Sanitize(context.Background(), "quote", json.RawMessage(`{"amount": "120"}`))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(verr.Fields) != 1 || verr.Fields[0].Path != "amount" || verr.Fields[0].Message != "expected integer, got string" {
		t.Fatalf("unexpected field errors: %#v", verr.Fields)
	}
}

func TestSanitizeReportsEveryFieldError(t *testing.T) {
	payload := json.RawMessage(`{"currency": 5, "signed": "maybe", "lines": [{"qty": "x"}], "extra": 1}`)
	_, err := newQuoteSanitizer(ModeCoerce).Sanitize(context.Background(), "quote", payload)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	want := map[string]bool{
		"extra":        true,
		"lines[0].qty": true,
		"lines[0].sku": true,
		"signed":       true,
		"amount":       true,
	}
	if len(verr.Fields) != len(want) {
		t.Fatalf("field errors: %#v", verr.Fields)
	}
	for _, f := range verr.Fields {
		if !want[f.Path] {
			t.Fatalf("unexpected error path %q in %#v", f.Path, verr.Fields)
		}
	}
}

func TestSanitizeCanonicalizesNested(t *testing.T) {
	payload := json.RawMessage(`{"signed":"true","discount":"1.50","amount":3,"currency":12,"lines":[{"sku":"A","qty":"2"}]}`)
	out, err := newQuoteSanitizer(ModeCoerce).Sanitize(context.Background(), "quote", payload)
	if err != nil {
		t.Fatalf("Sanitize: %v", err)
	}
	want := `{"amount":3,"currency":"12","discount":1.5,"lines":[{"qty":2,"sku":"A"}],"signed":true}`
	if string(out) != want {
		t.Fatalf("canonical payload:\n got %s\nwant %s", out, want)
	}
}

func TestSanitizeOptionalNullKept(t *testing.T) {
	out, err := newQuoteSanitizer(ModeStrict).Sanitize(context.Background(), "quote", json.RawMessage(`{"amount":1,"currency":null}`))
	if err != nil {
		t.Fatalf("Sanitize: %v", err)
	}
	if string(out) != `{"amount":1,"currency":null}` {
		t.Fatalf("payload: %s", out)
	}
	if _, err := newQuoteSanitizer(ModeStrict).Sanitize(context.Background(), "quote", json.RawMessage(`{"amount":null}`)); err == nil {
		t.Fatalf("null required field must fail")
	}
}

func TestSanitizeUnknownSchema(t *testing.T) {
	_, err := newQuoteSanitizer(ModeCoerce).Sanitize(context.Background(), "invoice", json.RawMessage(`{}`))
	if !errors.Is(err, ErrSchemaNotFound) {
		t.Fatalf("expected ErrSchemaNotFound, got %v", err)
	}
}

func TestSanitizeRejectsMalformedPayload(t *testing.T) {
	for _, p := range []string{`{"amount":1} {}`, `{"amount":`, `[1]`} {
		_, err := newQuoteSanitizer(ModeCoerce).Sanitize(context.Background(), "quote", json.RawMessage(p))
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected *ValidationError, got %v", p, err)
		}
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("Strict"); err != nil || m != ModeStrict {
		t.Fatalf("strict: %v %v", m, err)
	}
	if m, err := ParseMode(""); err != nil || m != ModeCoerce {
		t.Fatalf("default: %v %v", m, err)
	}
	if _, err := ParseMode("lenient"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
