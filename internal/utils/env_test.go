package utils

import (
  "testing"
  "time"
)

func TestGetEnv(t *testing.T) {
  t.Setenv("GUARDCHAIN_TEST_STR", "hello")
  if got := GetEnv("GUARDCHAIN_TEST_STR", "fallback", nil); got != "hello" {
    t.Errorf("GetEnv = %q, want hello", got)
  }
  if got := GetEnv("GUARDCHAIN_TEST_MISSING", "fallback", nil); got != "fallback" {
    t.Errorf("GetEnv missing = %q, want fallback", got)
  }
}

func TestGetEnvAsInt(t *testing.T) {
  t.Setenv("GUARDCHAIN_TEST_INT", "42")
  if got := GetEnvAsInt("GUARDCHAIN_TEST_INT", 7, nil); got != 42 {
    t.Errorf("GetEnvAsInt = %d, want 42", got)
  }
  t.Setenv("GUARDCHAIN_TEST_INT", "not-a-number")
  if got := GetEnvAsInt("GUARDCHAIN_TEST_INT", 7, nil); got != 7 {
    t.Errorf("GetEnvAsInt unparseable = %d, want default 7", got)
  }
}

func TestGetEnvAsFloat(t *testing.T) {
  t.Setenv("GUARDCHAIN_TEST_FLOAT", "66.5")
  if got := GetEnvAsFloat("GUARDCHAIN_TEST_FLOAT", 50, nil); got != 66.5 {
    t.Errorf("GetEnvAsFloat = %v, want 66.5", got)
  }
}

func TestGetEnvAsDuration(t *testing.T) {
  t.Setenv("GUARDCHAIN_TEST_DUR", "90s")
  if got := GetEnvAsDuration("GUARDCHAIN_TEST_DUR", time.Minute, nil); got != 90*time.Second {
    t.Errorf("GetEnvAsDuration = %v, want 90s", got)
  }
  t.Setenv("GUARDCHAIN_TEST_DUR", "soon")
  if got := GetEnvAsDuration("GUARDCHAIN_TEST_DUR", time.Minute, nil); got != time.Minute {
    t.Errorf("GetEnvAsDuration unparseable = %v, want default 1m", got)
  }
}
