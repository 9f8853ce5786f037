package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"rook/internal/diagfmt"
	"rook/internal/source"
)

func parseVirtual(t *testing.T, src string, opts parseOptions) (failed bool, out, errOut string) {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("input.rk", []byte(src)))
	var o, e bytes.Buffer
	failed, err := runParse(&o, &e, fs, f, opts)
	if err != nil {
		t.Fatalf("runParse: %v", err)
	}
	return failed, o.String(), e.String()
}

func TestRunParse(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		wantFailed bool
		wantErr    string
	}{
		{"clean", "fn main() {} struct S;", false, "parsed input.rk: 2 items, 0 errors"},
		{"syntax error", "fn main( {", true, "ERROR SYN"},
		{"unterminated string", `const S = "abc`, true, "ERROR LEX"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failed, _, errOut := parseVirtual(t, tt.src, parseOptions{Format: "pretty", Emit: "none"})
			if failed != tt.wantFailed {
				t.Errorf("failed = %v, want %v\n%s", failed, tt.wantFailed, errOut)
			}
			if !strings.Contains(errOut, tt.wantErr) {
				t.Errorf("stderr = %q, want %q", errOut, tt.wantErr)
			}
		})
	}
}

func TestRunParseTokens(t *testing.T) {
	_, out, _ := parseVirtual(t, "fn main() {}", parseOptions{Format: "pretty", Emit: "tokens", Quiet: true})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 7 {
		t.Fatalf("tokens:\n%s", out)
	}
	if !strings.Contains(lines[0], "fn") || !strings.Contains(lines[6], "end of file") {
		t.Errorf("tokens:\n%s", out)
	}

	_, out, _ = parseVirtual(t, "fn main() {}", parseOptions{Format: "pretty", Emit: "tokens-json", Quiet: true})
	var toks []diagfmt.TokenOutput
	if err := json.Unmarshal([]byte(out), &toks); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(toks) != 7 || toks[1].Text != "main" {
		t.Errorf("tokens = %+v", toks)
	}
}

func TestRunParseJSON(t *testing.T) {
	failed, out, errOut := parseVirtual(t, "fn main( {", parseOptions{Format: "json", Emit: "none"})
	if !failed {
		t.Fatalf("expected failure")
	}
	var got diagfmt.DiagnosticsOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if got.Count == 0 || !strings.HasPrefix(got.Diagnostics[0].Code, "SYN") {
		t.Errorf("diagnostics = %+v", got)
	}
	if errOut != "" {
		t.Errorf("json mode wrote to stderr: %q", errOut)
	}
}
