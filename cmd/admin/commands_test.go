package main

import (
	"io"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"yes\n", true},
		{"  yes  \n", true},
		{"no\n", false},
		{"", false},
		{"YES\n", false},
	}
	for _, tt := range tests {
		cmd := &cobra.Command{}
		cmd.SetIn(strings.NewReader(tt.input))
		cmd.SetOut(io.Discard)
		if got := confirm(cmd, "sure?"); got != tt.want {
			t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestWritingCommandsRequireStoppedServer(t *testing.T) {
	for _, cmd := range []*cobra.Command{importCmd, clearCmd} {
		if !strings.Contains(cmd.Long, "Stop the server") {
			t.Errorf("%s help does not say to stop the server:\n%s", cmd.Name(), cmd.Long)
		}
	}
	if strings.Contains(exportCmd.Long, "Stop the server") {
		t.Errorf("export only reads and should not require a stopped server")
	}
}
