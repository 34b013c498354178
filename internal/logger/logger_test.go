package logger

import (
	"testing"
)

func TestNew(t *testing.T) {
	t.Setenv("FACTORSIM_ENV", "dev")
	if New() == nil {
		t.Fatal("expected dev logger")
	}

	t.Setenv("FACTORSIM_ENV", "production")
	if New() == nil {
		t.Fatal("expected production logger")
	}
}
