package format

import (
	"bytes"
	"strings"
	"testing"
)

type sample struct {
	Position int    `json:"position" yaml:"position"`
	Digest   string `json:"digest" yaml:"digest"`
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (JSONFormatter{}).Write(&buf, sample{Position: 2, Digest: "ab"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != `{"position":2,"digest":"ab"}` {
		t.Fatalf("unexpected json: %s", got)
	}
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (YAMLFormatter{}).Write(&buf, []sample{{Position: 0, Digest: "ab"}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "- position: 0") || !strings.Contains(out, "digest: ab") {
		t.Fatalf("unexpected yaml: %s", out)
	}
}
