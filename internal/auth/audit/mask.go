package audit

import (
	"encoding/json"
	"strings"
)

// MaskEmail keeps the first two characters of the local part and the full
// domain: "patricia@example.com" -> "pa***@example.com".
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return local + "***" + domain
	}
	return local[:2] + "***" + domain
}

// MaskPhone keeps the first three and last two digits:
// "0412345678" -> "041*****78".
func MaskPhone(phone string) string {
	if len(phone) <= 5 {
		return "***"
	}
	return phone[:3] + strings.Repeat("*", len(phone)-5) + phone[len(phone)-2:]
}

// maskedKeys maps metadata keys to their masking function. Anything not
// listed passes through untouched; credential material must never be put in
// metadata in the first place.
var maskedKeys = map[string]func(string) string{
	"email": MaskEmail,
	"phone": MaskPhone,
}

// MaskMetadata masks known PII fields and serializes the result to JSON.
// A nil map serializes to "{}". Serialization failures degrade to "{}"
// rather than erroring: audit writes are best-effort by contract.
func MaskMetadata(meta map[string]any) string {
	if len(meta) == 0 {
		return "{}"
	}

	out := make(map[string]any, len(meta))
	for k, v := range meta {
		if maskFn, ok := maskedKeys[k]; ok {
			if s, ok := v.(string); ok {
				out[k] = maskFn(s)
				continue
			}
		}
		out[k] = v
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
