package entropy

import (
	"bytes"
	"errors"
	"testing"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func withReader(t *testing.T, r interface{ Read([]byte) (int, error) }) {
	t.Helper()
	old := Reader
	Reader = r
	t.Cleanup(func() { Reader = old })
}

func TestSeedSkipsZero(t *testing.T) {
	// First eight bytes decode to zero, the next eight to a positive seed.
	stream := append(make([]byte, 8), 4, 0, 0, 0, 0, 0, 0, 0)
	withReader(t, bytes.NewReader(stream))

	s, err := Seed()
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if s != 2 {
		t.Errorf("Seed() = %d, expected 2", s)
	}
}

func TestSeedPositive(t *testing.T) {
	for i := 0; i < 50; i++ {
		s, err := Seed()
		if err != nil {
			t.Fatalf("Seed: %v", err)
		}
		if s <= 0 {
			t.Fatalf("Seed() = %d, expected positive", s)
		}
	}
}

func TestSeedReadError(t *testing.T) {
	withReader(t, failingReader{})
	if _, err := Seed(); err == nil {
		t.Error("expected error from failing reader")
	}
	if f := Float(); f != 0.5 {
		t.Errorf("Float() = %v, expected fallback 0.5", f)
	}
}

func TestResolveSeed(t *testing.T) {
	if s, err := ResolveSeed(42); err != nil || s != 42 {
		t.Errorf("ResolveSeed(42) = %d, %v", s, err)
	}
	s, err := ResolveSeed(0)
	if err != nil || s == 0 {
		t.Errorf("ResolveSeed(0) = %d, %v; expected a random non-zero seed", s, err)
	}
}

func TestFloatRange(t *testing.T) {
	for i := 0; i < 100; i++ {
		if f := Float(); f < 0 || f >= 1 {
			t.Fatalf("Float() = %v outside [0, 1)", f)
		}
	}
}
