package stream

import (
	"encoding/json"
	"testing"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("bad fixture %q: %v", raw, err)
	}
	return v
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{"response", `{"response":"r"}`, "r", true},
		{"message", `{"message":"m"}`, "m", true},
		{"answer", `{"answer":"a"}`, "a", true},
		{"text", `{"text":"t"}`, "t", true},
		{"content", `{"content":"c"}`, "c", true},
		{"precedence follows list order", `{"content":"c","message":"m","answer":"a"}`, "m", true},
		{"empty string falls through", `{"response":"","text":"t"}`, "t", true},
		{"null falls through", `{"response":null,"answer":"a"}`, "a", true},
		{"false falls through", `{"response":false,"content":"c"}`, "c", true},
		{"zero falls through", `{"response":0,"content":"c"}`, "c", true},
		{"number formatted", `{"response":12.5}`, "12.5", true},
		{"object formatted", `{"response":{"a":1}}`, `{"a":1}`, true},
		{"no keys", `{"other":"x"}`, "", false},
		{"not an object", `"just a string"`, "", false},
		{"array", `[1,2]`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractText(decode(t, tt.raw))
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ExtractText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractSessionID(t *testing.T) {
	if id, ok := ExtractSessionID(decode(t, `{"session_id":"abc"}`)); !ok || id != "abc" {
		t.Errorf("ExtractSessionID() = %q, %v", id, ok)
	}
	if _, ok := ExtractSessionID(decode(t, `{"session_id":""}`)); ok {
		t.Error("expected empty session_id to be absent")
	}
	if _, ok := ExtractSessionID(decode(t, `{"response":"x"}`)); ok {
		t.Error("expected missing session_id to be absent")
	}
}
