package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
)

const redacted = "[REDACTED]"

// Credentials are dropped outright. Personal data is replaced by a short
// salted digest so the same person can still be followed across entries.
var (
	secretKeyParts   = []string{"token", "authorization", "password", "secret", "cookie", "api_key", "apikey", "jwt", "assertion"}
	personalKeyParts = []string{"person_id", "personid", "personal_number", "ad_user", "ad_account", "email", "phone", "organization_number"}
)

// Swedish personal identity numbers: YYYYMMDD-NNNN or YYMMDDNNNN and the
// like, optionally with the separator.
var personalNumberPattern = regexp.MustCompile(`\b(?:19|20)?\d{6}[-+]?\d{4}\b`)

type redactor struct {
	enabled bool
	salt    string
}

var (
	activeOnce sync.Once
	active     redactor
)

func current() redactor {
	activeOnce.Do(func() {
		switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_REDACTION_ENABLED"))) {
		case "0", "false", "no", "off":
			active.enabled = false
		default:
			active.enabled = true
		}
		active.salt = strings.TrimSpace(os.Getenv("LOG_HASH_SALT"))
	})
	return active
}

func scrub(kv []interface{}) []interface{} {
	r := current()
	if !r.enabled || len(kv) == 0 {
		return kv
	}
	return r.pairs(kv)
}

func (r redactor) pairs(kv []interface{}) []interface{} {
	out := make([]interface{}, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		name := stringify(kv[i])
		out = append(out, name, r.value(normalizeKey(name), kv[i+1]))
	}
	if len(kv)%2 == 1 {
		out = append(out, kv[len(kv)-1])
	}
	return out
}

func (r redactor) value(key string, val interface{}) interface{} {
	switch {
	case key != "" && containsAny(key, secretKeyParts):
		return redacted
	case key != "" && containsAny(key, personalKeyParts):
		return r.digest(val)
	}
	switch v := val.(type) {
	case map[string]interface{}:
		if v == nil {
			return v
		}
		out := make(map[string]interface{}, len(v))
		for k, inner := range v {
			out[k] = r.value(normalizeKey(k), inner)
		}
		return out
	case []interface{}:
		if v == nil {
			return v
		}
		out := make([]interface{}, len(v))
		for i, inner := range v {
			out[i] = r.value("", inner)
		}
		return out
	case string:
		if isJWTShaped(v) {
			return redacted
		}
		return personalNumberPattern.ReplaceAllString(v, redacted)
	default:
		return val
	}
}

func (r redactor) digest(val interface{}) string {
	raw := stringify(val)
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(r.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:6])
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

func containsAny(s string, parts []string) bool {
	for _, p := range parts {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func isJWTShaped(s string) bool {
	segs := strings.Split(s, ".")
	return len(segs) == 3 && len(segs[0]) > 10 && len(segs[1]) > 10
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
