// Package stream decodes chat replies into ordered text fragments.
//
// A reply is either one JSON object or an event stream of `data: <json>` lines
// ending with `data: [DONE]`. Fragments are pulled one at a time with Next, so
// the caller controls pacing. Closing the body or cancelling the request
// context is the only way to abort a decode.
package stream

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/buker/brdesk/internal/logging"
)

const (
	dataPrefix   = "data:"
	doneSentinel = "[DONE]"
	commentStart = ":"
	jsonType     = "application/json"
)

var log = logging.New("STREAM")

var unescaper = strings.NewReplacer(
	`\\`, `\`,
	`\"`, `"`,
	`\n`, "\n",
	`\t`, "\t",
	`\r`, "\r",
)

// Decoder pulls fragments out of a reply body.
type Decoder struct {
	body     io.Reader
	reader   *bufio.Reader
	jsonMode bool
	session  string
	skipped  int
	done     bool
	err      error
}

// NewDecoder returns a decoder over body. jsonMode selects single-object
// interpretation. session is the identifier known before the call; it is
// replaced whenever a decoded payload carries a newer one.
func NewDecoder(body io.Reader, jsonMode bool, session string) *Decoder {
	d := &Decoder{
		body:     body,
		jsonMode: jsonMode,
		session:  session,
	}
	if body == nil {
		d.err = ErrStreamUnavailable
		return d
	}
	d.reader = bufio.NewReader(body)
	return d
}

// FromResponse validates an HTTP response and returns a decoder over its body.
// Non-2xx responses are drained and returned as *RemoteError. forceJSON selects
// single-object interpretation regardless of the declared content type.
func FromResponse(resp *http.Response, forceJSON bool, session string) (*Decoder, error) {
	if resp == nil || resp.Body == nil {
		return nil, ErrStreamUnavailable
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			body = []byte("unable to read error response")
		}
		return nil, &RemoteError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	jsonMode := forceJSON || strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), jsonType)
	return NewDecoder(resp.Body, jsonMode, session), nil
}

// Next returns the next fragment. It returns io.EOF once the reply is exhausted
// or the [DONE] sentinel is seen.
func (d *Decoder) Next() (string, error) {
	if d.err != nil {
		return "", d.err
	}
	if d.done {
		return "", io.EOF
	}
	if d.jsonMode {
		return d.nextObject()
	}

	for !d.done {
		line, err := d.reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				d.err = fmt.Errorf("%w: %w", ErrStreamUnavailable, err)
				return "", d.err
			}
			// flush the trailing partial line before finishing
			d.done = true
		}
		if frag, ok := d.processLine(line); ok {
			return frag, nil
		}
	}
	return "", io.EOF
}

// nextObject reads the whole body as one JSON object and yields its text once.
func (d *Decoder) nextObject() (string, error) {
	d.done = true

	raw, err := io.ReadAll(d.reader)
	if err != nil {
		d.err = fmt.Errorf("%w: %w", ErrStreamUnavailable, err)
		return "", d.err
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		d.err = fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		return "", d.err
	}
	if id, ok := ExtractSessionID(payload); ok {
		d.session = id
	}

	text, _ := ExtractText(payload)
	text = strings.TrimSpace(text)
	if text == "" {
		return "", io.EOF
	}
	return text, nil
}

// processLine applies the event rules to one line. It reports false for lines
// that produce no fragment.
func (d *Decoder) processLine(line string) (string, bool) {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")

	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, commentStart) {
		return "", false
	}
	if !strings.HasPrefix(line, dataPrefix) {
		return "", false
	}

	data := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
	if data == doneSentinel {
		d.done = true
		return "", false
	}

	var payload any
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		d.skip(DecodeSkipped{Payload: data, Err: err})
		return "", false
	}
	if id, ok := ExtractSessionID(payload); ok {
		d.session = id
	}

	text, ok := ExtractText(payload)
	if !ok {
		return "", false
	}
	text = clean(text)
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}

func (d *Decoder) skip(s DecodeSkipped) {
	d.skipped++
	log.Debugf("%s", s)
}

// clean strips one pair of wrapping double quotes and unescapes common
// backslash sequences in a single pass.
func clean(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) > 1 && strings.HasPrefix(trimmed, `"`) && strings.HasSuffix(trimmed, `"`) {
		text = trimmed[1 : len(trimmed)-1]
	}
	if strings.Contains(text, `\`) {
		text = unescaper.Replace(text)
	}
	return text
}

// SessionID returns the latest session identifier seen, or the initial one.
func (d *Decoder) SessionID() string {
	return d.session
}

// Skipped returns the number of events dropped as undecodable.
func (d *Decoder) Skipped() int {
	return d.skipped
}

// Close closes the underlying body when it is closable.
func (d *Decoder) Close() error {
	if c, ok := d.body.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
