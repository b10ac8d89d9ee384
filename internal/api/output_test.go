package api

import (
	"bytes"
	"strings"
	"testing"
)

func TestOutputTo(t *testing.T) {
	data := struct {
		PageID string `json:"pageId"`
		Tags   []string
	}{"p1", []string{"go"}}

	tests := []struct {
		format OutputFormat
		want   []string
	}{
		{OutputFormatJSON, []string{`"pageId": "p1"`, `"Tags": [`}},
		{OutputFormatYAML, []string{"pageId: p1", "Tags:\n  - go"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := OutputTo(&buf, tt.format, data); err != nil {
				t.Fatalf("OutputTo() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output missing %q:\n%s", w, buf.String())
				}
			}
		})
	}

	if err := OutputTo(&bytes.Buffer{}, "xml", data); err == nil {
		t.Error("OutputTo() accepted an unknown format")
	}
}

func TestSetOutputFormat(t *testing.T) {
	defer SetOutputFormat("yaml")

	if err := SetOutputFormat("json"); err != nil || GetOutputFormat() != OutputFormatJSON {
		t.Errorf("SetOutputFormat(json) = %v, format %s", err, GetOutputFormat())
	}
	if err := SetOutputFormat("toml"); err == nil {
		t.Error("SetOutputFormat(toml) succeeded")
	}
	if GetOutputFormat() != OutputFormatJSON {
		t.Error("a rejected format changed the current one")
	}
}
