package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{name: "config", code: "E101", wantMsg: "Invalid configuration", wantCat: CategoryConfig},
		{name: "scenario", code: "E201", wantMsg: "Invalid scenario", wantCat: CategoryScenario},
		{name: "protocol", code: "E401", wantMsg: "Malformed request body", wantCat: CategoryProtocol},
		{name: "unknown", code: "E999", wantMsg: "Unknown error", wantCat: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	err := New("E301").WithDetailf("bucket %q", "reports").Wrap(io.ErrUnexpectedEOF)
	want := `E301: Report could not be stored: bucket "reports": unexpected EOF`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !stderrors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("wrapped cause should be reachable with errors.Is")
	}
}

func TestIsMatchesCode(t *testing.T) {
	wrapped := fmt.Errorf("loading: %w", New("E102"))
	if !stderrors.Is(wrapped, New("E102")) {
		t.Error("errors.Is should match by code")
	}
	if stderrors.Is(wrapped, New("E101")) {
		t.Error("different codes must not match")
	}
	if !HasCode(wrapped, "E102") {
		t.Error("HasCode should see through wrapping")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E101") != nil {
		t.Error("nil stays nil")
	}

	orig := New("E201")
	if FromError(fmt.Errorf("x: %w", orig), "E101") != orig {
		t.Error("existing *Error should be returned as is")
	}

	got := FromError(io.EOF, "E202")
	if got.Code != "E202" || got.Wrapped != io.EOF {
		t.Errorf("FromError = %+v", got)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	out := New("E201").WithDetail("no steps").Format()
	for _, want := range []string{"ERROR E201: Invalid scenario", "no steps", "Hint: A scenario needs"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}

	if !Registered("E403") || Registered("E000") {
		t.Error("Registered reports wrong membership")
	}
}
