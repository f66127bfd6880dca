package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"fizzbuzz-server/game"
)

const (
	mediaStreamJSON = "application/stream+json"
	mediaNDJSON     = "application/x-ndjson"
	mediaJSON       = "application/json"
)

// answerEncoder frames a sequence of answers on the wire.
type answerEncoder interface {
	contentType() string
	begin(w io.Writer) error
	encode(w io.Writer, a game.Answer) error
	end(w io.Writer) error
}

// negotiate picks array framing only when the client asks for plain JSON and
// not for a streaming type. Everything else gets one JSON object per line.
func negotiate(accept string) answerEncoder {
	wantsJSON := false
	for _, part := range strings.Split(accept, ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mediaType {
		case mediaStreamJSON, mediaNDJSON:
			return &lineEncoder{}
		case mediaJSON:
			wantsJSON = true
		}
	}
	if wantsJSON {
		return &arrayEncoder{}
	}
	return &lineEncoder{}
}

type lineEncoder struct{}

func (lineEncoder) contentType() string { return mediaStreamJSON + ";charset=UTF-8" }

func (lineEncoder) begin(io.Writer) error { return nil }

func (lineEncoder) encode(w io.Writer, a game.Answer) error {
	return json.NewEncoder(w).Encode(a)
}

func (lineEncoder) end(io.Writer) error { return nil }

type arrayEncoder struct {
	n int
}

func (*arrayEncoder) contentType() string { return mediaJSON + ";charset=UTF-8" }

func (*arrayEncoder) begin(w io.Writer) error {
	_, err := io.WriteString(w, "[")
	return err
}

func (e *arrayEncoder) encode(w io.Writer, a game.Answer) error {
	b, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}
	if e.n > 0 {
		if _, err := io.WriteString(w, ","); err != nil {
			return err
		}
	}
	e.n++
	_, err = w.Write(b)
	return err
}

func (*arrayEncoder) end(w io.Writer) error {
	_, err := io.WriteString(w, "]")
	return err
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
