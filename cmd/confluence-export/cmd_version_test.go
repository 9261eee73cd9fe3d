package main

import (
	"testing"
)

func TestVersionRun(t *testing.T) {
	if err := versionRun(versionCmd, nil); err != nil {
		t.Fatalf("versionRun errored: %v", err)
	}
}
