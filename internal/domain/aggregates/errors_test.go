package aggregates

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessageLayout(t *testing.T) {
	cases := []struct {
		err  *Error
		want string
	}{
		{&Error{Code: CodeNotFound, Op: "CaseData.Errand.Get", Message: "errand 7 not found"}, "CaseData.Errand.Get: errand 7 not found (not_found)"},
		{&Error{Code: CodeInternal, Op: "CaseData.Errand.Get"}, "CaseData.Errand.Get (internal)"},
		{&Error{Code: CodeValidation, Message: "bad id"}, "bad id (validation)"},
		{&Error{Code: CodeConflict}, "conflict"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Fatalf("Error(): want=%q got=%q", tc.want, got)
		}
	}
}

func TestCodeSurvivesWrapping(t *testing.T) {
	base := NotFound("CaseData.Errand.Get", "errand %d not found", 7)
	wrapped := fmt.Errorf("handler: %w", base)

	if !IsCode(wrapped, CodeNotFound) || CodeOf(wrapped) != CodeNotFound {
		t.Fatalf("code lost through wrapping: %v", wrapped)
	}
	if !errors.Is(wrapped, &Error{Code: CodeNotFound}) {
		t.Fatalf("errors.Is by code failed")
	}
	if errors.Is(wrapped, &Error{Code: CodeConflict}) {
		t.Fatalf("errors.Is matched a different code")
	}
	if CodeOf(errors.New("plain")) != "" || IsCode(errors.New("plain"), "") {
		t.Fatalf("plain errors carry no code")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("temporal: deadline")
	err := Wrap(CodeServiceUnavailable, "CaseData.Process.Start", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("cause not reachable")
	}
	if Wrap(CodeInternal, "op", nil) != nil {
		t.Fatalf("wrapping nil should stay nil")
	}
}
