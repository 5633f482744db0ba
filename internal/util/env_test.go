package util

import (
	"testing"
	"time"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("HUB_TEST_STR", "value")
	t.Setenv("HUB_TEST_BOOL", "true")
	t.Setenv("HUB_TEST_INT", "7")
	t.Setenv("HUB_TEST_DUR", "90s")
	t.Setenv("HUB_TEST_BAD", "nope")

	if got := EnvOrDefault("HUB_TEST_STR", "x"); got != "value" {
		t.Fatalf("EnvOrDefault = %q", got)
	}
	if got := EnvOrDefault("HUB_TEST_UNSET", "x"); got != "x" {
		t.Fatalf("EnvOrDefault fallback = %q", got)
	}
	if !EnvBool("HUB_TEST_BOOL", false) || EnvBool("HUB_TEST_BAD", false) {
		t.Fatal("EnvBool")
	}
	if EnvInt("HUB_TEST_INT", 0) != 7 || EnvInt("HUB_TEST_BAD", 3) != 3 {
		t.Fatal("EnvInt")
	}
	t.Setenv("HUB_TEST_LIST", " a, ,b ")
	if got := EnvList("HUB_TEST_LIST"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("EnvList = %q", got)
	}
	if EnvList("HUB_TEST_UNSET") != nil {
		t.Fatal("EnvList of unset variable")
	}
	if EnvDuration("HUB_TEST_DUR", 0) != 90*time.Second || EnvDuration("HUB_TEST_BAD", time.Second) != time.Second {
		t.Fatal("EnvDuration")
	}
}
