package envutil

import (
	"testing"
	"time"
)

func TestDurationAcceptsSecondsAndStrings(t *testing.T) {
	t.Setenv("QL_TEST_DUR", "45")
	if got := Duration("QL_TEST_DUR", time.Second); got != 45*time.Second {
		t.Fatalf("got=%s", got)
	}
	t.Setenv("QL_TEST_DUR", "2m")
	if got := Duration("QL_TEST_DUR", time.Second); got != 2*time.Minute {
		t.Fatalf("got=%s", got)
	}
	t.Setenv("QL_TEST_DUR", "nonsense")
	if got := Duration("QL_TEST_DUR", time.Second); got != time.Second {
		t.Fatalf("got=%s", got)
	}
}

func TestListAndBool(t *testing.T) {
	t.Setenv("QL_TEST_LIST", " https://a.example , ,https://b.example")
	got := List("QL_TEST_LIST", nil)
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("got=%v", got)
	}
	t.Setenv("QL_TEST_BOOL", "off")
	if Bool("QL_TEST_BOOL", true) {
		t.Fatalf("expected false")
	}
	t.Setenv("QL_TEST_BOOL", "maybe")
	if !Bool("QL_TEST_BOOL", true) {
		t.Fatalf("expected default")
	}
}
