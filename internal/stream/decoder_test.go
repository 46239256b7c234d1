package stream

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"testing/iotest"
)

func collectAll(t *testing.T, d *Decoder) []string {
	t.Helper()
	var frags []string
	for {
		frag, err := d.Next()
		if errors.Is(err, io.EOF) {
			return frags
		}
		if err != nil {
			t.Fatalf("Next() error: %v", err)
		}
		frags = append(frags, frag)
	}
}

func response(status int, contentType, body string) *http.Response {
	header := http.Header{}
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// =============================================================================
// Single JSON replies
// =============================================================================

func TestDecoder_JSON_EachFallbackKey(t *testing.T) {
	for _, key := range fallbackKeys {
		t.Run(key, func(t *testing.T) {
			body := `{"` + key + `": "  hello world \n"}`
			d := NewDecoder(strings.NewReader(body), true, "")

			frags := collectAll(t, d)
			if len(frags) != 1 {
				t.Fatalf("expected 1 fragment, got %d (%v)", len(frags), frags)
			}
			if frags[0] != "hello world" {
				t.Errorf("fragment = %q, want %q", frags[0], "hello world")
			}
		})
	}
}

func TestDecoder_JSON_ContentTypeSelectsMode(t *testing.T) {
	resp := response(http.StatusOK, "application/json; charset=utf-8", `{"answer":"42","session_id":"s-2"}`)

	d, err := FromResponse(resp, false, "s-1")
	if err != nil {
		t.Fatalf("FromResponse() error: %v", err)
	}
	frags := collectAll(t, d)
	if len(frags) != 1 || frags[0] != "42" {
		t.Errorf("fragments = %v, want [42]", frags)
	}
	if d.SessionID() != "s-2" {
		t.Errorf("SessionID() = %q, want %q", d.SessionID(), "s-2")
	}
}

func TestDecoder_JSON_NoTextYieldsNothing(t *testing.T) {
	d := NewDecoder(strings.NewReader(`{"session_id":"abc","response":""}`), true, "")

	frags := collectAll(t, d)
	if len(frags) != 0 {
		t.Errorf("expected no fragments, got %v", frags)
	}
	if d.SessionID() != "abc" {
		t.Errorf("SessionID() = %q, want abc", d.SessionID())
	}
}

func TestDecoder_JSON_Malformed(t *testing.T) {
	d := NewDecoder(strings.NewReader(`{not json`), true, "")

	_, err := d.Next()
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}

// =============================================================================
// Event streams
// =============================================================================

func TestDecoder_Stream_BasicEvents(t *testing.T) {
	body := ": keep-alive\n" +
		"\n" +
		"data: {\"response\":\"Hello\"}\n" +
		"event: ping\n" +
		"data: {\"message\":\", world\"}\n" +
		"data: [DONE]\n" +
		"data: {\"response\":\"after done\"}\n"

	d := NewDecoder(strings.NewReader(body), false, "")
	frags := collectAll(t, d)

	want := []string{"Hello", ", world"}
	if len(frags) != len(want) {
		t.Fatalf("fragments = %v, want %v", frags, want)
	}
	for i := range want {
		if frags[i] != want[i] {
			t.Errorf("fragment[%d] = %q, want %q", i, frags[i], want[i])
		}
	}
}

func TestDecoder_Stream_DoneYieldsNothing(t *testing.T) {
	d := NewDecoder(strings.NewReader("data: [DONE]\n"), false, "")
	if frags := collectAll(t, d); len(frags) != 0 {
		t.Errorf("expected no fragments, got %v", frags)
	}
}

func TestDecoder_Stream_MalformedEventSkipped(t *testing.T) {
	body := "data: {\"response\":\"one\"}\n" +
		"data: {broken\n" +
		"data: {\"response\":\"two\"}\n" +
		"data: [DONE]\n"

	d := NewDecoder(strings.NewReader(body), false, "")
	frags := collectAll(t, d)
	if strings.Join(frags, "|") != "one|two" {
		t.Errorf("fragments = %v, want [one two]", frags)
	}
	if d.Skipped() != 1 {
		t.Errorf("Skipped() = %d, want 1", d.Skipped())
	}
}

func TestDecoder_Stream_TrailingPartialLineFlushed(t *testing.T) {
	body := "data: {\"text\":\"first\"}\r\ndata: {\"text\":\"last\"}"

	d := NewDecoder(strings.NewReader(body), false, "")
	frags := collectAll(t, d)
	if strings.Join(frags, "|") != "first|last" {
		t.Errorf("fragments = %v, want [first last]", frags)
	}
}

func TestDecoder_Stream_UnquotesAndUnescapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"newline", `{"response":"line one\\nline two"}`, "line one\nline two"},
		{"tab", `{"response":"a\\tb"}`, "a\tb"},
		{"quote", `{"response":"say \\\"hi\\\""}`, `say "hi"`},
		{"backslash", `{"response":"C:\\\\temp"}`, `C:\temp`},
		{"wrapped in quotes", `{"response":"\"quoted\""}`, "quoted"},
		{"literal backslash n stays", `{"response":"a\\\\nb"}`, `a\nb`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(strings.NewReader("data: "+tt.payload+"\n"), false, "")
			frags := collectAll(t, d)
			if len(frags) != 1 {
				t.Fatalf("expected 1 fragment, got %v", frags)
			}
			if frags[0] != tt.want {
				t.Errorf("fragment = %q, want %q", frags[0], tt.want)
			}
		})
	}
}

func TestDecoder_Stream_BlankFragmentsDropped(t *testing.T) {
	body := "data: {\"response\":\"   \"}\ndata: {\"response\":\" next\"}\n"

	d := NewDecoder(strings.NewReader(body), false, "")
	frags := collectAll(t, d)
	if len(frags) != 1 || frags[0] != " next" {
		t.Errorf("fragments = %q, want [\" next\"]", frags)
	}
}

func TestDecoder_Stream_PrefixWithoutSpace(t *testing.T) {
	body := "data:{\"response\":\"tight\"}\n" +
		"data:   {\"response\":\"  padded  \"}\n" +
		"data:[DONE]\n"

	d := NewDecoder(strings.NewReader(body), false, "")
	frags := collectAll(t, d)
	want := []string{"tight", "  padded  "}
	if len(frags) != len(want) {
		t.Fatalf("fragments = %q, want %q", frags, want)
	}
	for i := range want {
		if frags[i] != want[i] {
			t.Errorf("fragment[%d] = %q, want %q", i, frags[i], want[i])
		}
	}
}

func TestDecoder_Stream_ChunkBoundaryIndependence(t *testing.T) {
	body := "data: {\"response\":\"The \"}\n" +
		"data: {\"response\":\"quick \"}\r\n" +
		": comment\n" +
		"data: {\"response\":\"brown fox\"}\n" +
		"data: {\"response\":\"é ü\"}\n" +
		"data: [DONE]\n"

	whole := strings.Join(collectAll(t, NewDecoder(strings.NewReader(body), false, "")), "")
	oneByte := strings.Join(collectAll(t, NewDecoder(iotest.OneByteReader(strings.NewReader(body)), false, "")), "")
	half := strings.Join(collectAll(t, NewDecoder(iotest.HalfReader(strings.NewReader(body)), false, "")), "")

	if whole != "The quick brown foxé ü" {
		t.Errorf("whole = %q", whole)
	}
	if oneByte != whole {
		t.Errorf("one-byte reads = %q, want %q", oneByte, whole)
	}
	if half != whole {
		t.Errorf("half reads = %q, want %q", half, whole)
	}
}

func TestDecoder_Stream_SessionTracking(t *testing.T) {
	body := "data: {\"response\":\"a\"}\n" +
		"data: {\"response\":\"b\",\"session_id\":\"new-session\"}\n"

	d := NewDecoder(strings.NewReader(body), false, "old-session")
	if d.SessionID() != "old-session" {
		t.Fatalf("initial SessionID() = %q", d.SessionID())
	}
	collectAll(t, d)
	if d.SessionID() != "new-session" {
		t.Errorf("SessionID() = %q, want new-session", d.SessionID())
	}
}

// =============================================================================
// Errors
// =============================================================================

func TestFromResponse_RemoteError(t *testing.T) {
	resp := response(http.StatusBadGateway, "text/plain", "upstream down")

	_, err := FromResponse(resp, false, "")
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected *RemoteError, got %v", err)
	}
	if remote.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want %d", remote.StatusCode, http.StatusBadGateway)
	}
	if remote.Body != "upstream down" {
		t.Errorf("Body = %q, want %q", remote.Body, "upstream down")
	}
}

func TestFromResponse_NilBody(t *testing.T) {
	_, err := FromResponse(&http.Response{StatusCode: http.StatusOK}, false, "")
	if !errors.Is(err, ErrStreamUnavailable) {
		t.Errorf("expected ErrStreamUnavailable, got %v", err)
	}
	_, err = FromResponse(nil, false, "")
	if !errors.Is(err, ErrStreamUnavailable) {
		t.Errorf("expected ErrStreamUnavailable for nil response, got %v", err)
	}
}

func TestDecoder_ReadErrorIsUnavailable(t *testing.T) {
	readErr := errors.New("connection reset")
	r := io.MultiReader(strings.NewReader("data: {\"response\":\"partial\"}\n"), iotest.ErrReader(readErr))

	d := NewDecoder(r, false, "")
	frag, err := d.Next()
	if err != nil || frag != "partial" {
		t.Fatalf("first Next() = %q, %v", frag, err)
	}
	_, err = d.Next()
	if !errors.Is(err, ErrStreamUnavailable) {
		t.Errorf("expected ErrStreamUnavailable, got %v", err)
	}
	if !errors.Is(err, readErr) {
		t.Errorf("expected wrapped read error, got %v", err)
	}
}

func TestNewDecoder_NilBody(t *testing.T) {
	d := NewDecoder(nil, false, "")
	if _, err := d.Next(); !errors.Is(err, ErrStreamUnavailable) {
		t.Errorf("expected ErrStreamUnavailable, got %v", err)
	}
}
