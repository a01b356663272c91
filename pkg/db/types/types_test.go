package dbtypes

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDArrayRoundTrip(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	value, err := UUIDArray{a, b}.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var decoded UUIDArray
	if err := decoded.Scan(value); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(decoded) != 2 || !decoded.Contains(a) || !decoded.Contains(b) {
		t.Fatalf("unexpected decoded array %v", decoded)
	}

	var empty UUIDArray
	if err := empty.Scan([]byte("{}")); err != nil || len(empty) != 0 {
		t.Fatalf("expected empty array, got %v err=%v", empty, err)
	}
}

func TestUUIDArrayRejectsGarbage(t *testing.T) {
	var decoded UUIDArray
	if err := decoded.Scan("{not-a-uuid}"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestStringArrayHandlesQuotedNames(t *testing.T) {
	value, err := StringArray{"Västra Götaland", "Stockholm"}.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var decoded StringArray
	if err := decoded.Scan(value); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(decoded) != 2 || !decoded.Contains("Västra Götaland") {
		t.Fatalf("unexpected decoded array %v", decoded)
	}

	var nilArray StringArray
	if v, _ := nilArray.Value(); v != "{}" {
		t.Fatalf("expected nil array to encode as {}, got %v", v)
	}
}
