package logger

import (
	"strings"
	"testing"
)

func TestScrubRedactsAndHashes(t *testing.T) {
	r := redactor{enabled: true, salt: "pepper"}
	out := r.pairs([]interface{}{
		"jwt_assertion", "aaaaaaaaaaa.bbbbbbbbbbbb.cccc",
		"person_id", "199001011234",
		"errand_id", int64(12),
	})
	if len(out) != 6 {
		t.Fatalf("len: want=6 got=%d", len(out))
	}
	if out[1] != redacted {
		t.Fatalf("jwt_assertion: want=%s got=%v", redacted, out[1])
	}
	hashed, _ := out[3].(string)
	if !strings.HasPrefix(hashed, "hash:") || strings.Contains(hashed, "199001011234") {
		t.Fatalf("person_id: want hashed value got=%v", out[3])
	}
	if out[5] != int64(12) {
		t.Fatalf("errand_id: want=12 got=%v", out[5])
	}
}

func TestDigestIsStablePerSalt(t *testing.T) {
	a := redactor{enabled: true, salt: "one"}
	b := redactor{enabled: true, salt: "two"}
	if a.digest("kim01") != a.digest("kim01") {
		t.Fatalf("digest not stable")
	}
	if a.digest("kim01") == b.digest("kim01") {
		t.Fatalf("digest ignores salt")
	}
}

func TestValueMasksFreeText(t *testing.T) {
	r := redactor{enabled: true}
	if got := r.value("header", "eyJhbGciOiJub25lIn0.eyJzdWIiOiJhcHAifQ."); got != redacted {
		t.Fatalf("unsigned jwt: want=%s got=%v", redacted, got)
	}
	got := r.value("description", "applicant 19900101-1234 called")
	if got != "applicant "+redacted+" called" {
		t.Fatalf("personal number: got=%v", got)
	}
	nested := r.value("payload", map[string]interface{}{"email": "kim@example.org", "caseType": "PARKING_PERMIT"}).(map[string]interface{})
	if nested["caseType"] != "PARKING_PERMIT" || !strings.HasPrefix(nested["email"].(string), "hash:") {
		t.Fatalf("nested map: %v", nested)
	}
}

func TestOddTrailingKeyIsKept(t *testing.T) {
	out := redactor{enabled: true}.pairs([]interface{}{"errand_id", 1, "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("trailing key: %v", out)
	}
}
