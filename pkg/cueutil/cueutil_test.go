// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

const testSchema = `
#Target: {
	name:  string & !=""
	jobs?: int & >=0
}
`

type target struct {
	Name string `json:"name"`
	Jobs int    `json:"jobs"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	res, err := ParseAndDecode[target]([]byte(testSchema), []byte(`name: "Basic", jobs: 4`), "#Target")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Value.Name != "Basic" || res.Value.Jobs != 4 {
		t.Errorf("decoded %+v", res.Value)
	}
	if !res.Unified.Exists() {
		t.Error("Unified value should exist")
	}
}

func TestParseAndDecode_SchemaViolation(t *testing.T) {
	t.Parallel()

	_, err := ParseAndDecode[target]([]byte(testSchema), []byte(`name: "Basic", jobs: -1`), "#Target",
		WithFilename("targets.cue"))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "targets.cue") || !strings.Contains(err.Error(), "jobs") {
		t.Errorf("error should name file and field, got: %v", err)
	}
}

func TestParseAndDecode_UnknownField(t *testing.T) {
	t.Parallel()

	_, err := ParseAndDecode[target]([]byte(testSchema), []byte(`name: "Basic", color: "red"`), "#Target")
	if err == nil {
		t.Fatal("closed definition should reject unknown fields")
	}
}

func TestParseAndDecode_SizeLimit(t *testing.T) {
	t.Parallel()

	_, err := ParseAndDecode[target]([]byte(testSchema), []byte(`name: "Basic"`), "#Target", WithMaxFileSize(4))
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestDecodeMap_NonConcrete(t *testing.T) {
	t.Parallel()

	schema := []byte(`#Config: { compiler?: string, jobs?: int }`)
	m, err := DecodeMap(schema, []byte(`compiler: "swiftc"`), "#Config", WithConcrete(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m["compiler"] != "swiftc" {
		t.Errorf("compiler = %v, want swiftc", m["compiler"])
	}
	if _, ok := m["jobs"]; ok {
		t.Error("unset optional field should not be decoded")
	}
}

func TestFormatError(t *testing.T) {
	t.Parallel()

	if FormatError(nil, "x.cue") != nil {
		t.Error("nil error should stay nil")
	}

	base := errors.New("some error")
	err := FormatError(base, "x.cue")
	if !errors.Is(err, base) {
		t.Error("non-CUE errors should be wrapped")
	}
	if !strings.HasPrefix(err.Error(), "x.cue: ") {
		t.Errorf("error should be prefixed with the file, got %q", err)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"format"}, "format"},
		{[]string{"modules", "0", "name"}, "modules[0].name"},
		{[]string{"modules", "3", "flags", "1"}, "modules[3].flags[1]"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.path); got != tt.want {
			t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := CheckFileSize(make([]byte, 100), 100, "a.cue"); err != nil {
		t.Errorf("exact limit should pass, got %v", err)
	}
	if err := CheckFileSize(make([]byte, 101), 100, "a.cue"); err == nil {
		t.Error("over limit should fail")
	}
}
