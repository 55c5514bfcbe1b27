package transcriber

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/audio-scribe/model"
)

func TestInstruction(t *testing.T) {
	got := Instruction(Prompt{Language: "Hindi", Script: "Devanagari", Placeholder: "[अस्पष्ट]"})
	for _, want := range []string{"Hindi", "Devanagari script", "Do not translate", "preamble", "output exactly: [अस्पष्ट]"} {
		if !strings.Contains(got, want) {
			t.Fatalf("instruction %q is missing %q", got, want)
		}
	}
}

func TestNewRequest(t *testing.T) {
	if _, err := NewRequest(model.AudioPayload{}, "x"); !errors.Is(err, model.ErrNoPayload) {
		t.Fatalf("expected ErrNoPayload, got %v", err)
	}
	p := model.NewAudioPayload([]byte("abc"), "audio/webm", "rec")
	req, err := NewRequest(p, "inst")
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if req.MimeType != "audio/webm" || req.Data != "YWJj" || req.Instruction != "inst" {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestGeminiBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-test:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "key" {
			t.Errorf("missing api key header")
		}
		var body struct {
			Contents []struct {
				Role  string `json:"role"`
				Parts []struct {
					Text       string `json:"text"`
					InlineData *struct {
						MimeType string `json:"mimeType"`
						Data     string `json:"data"`
					} `json:"inlineData"`
				} `json:"parts"`
			} `json:"contents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		if len(body.Contents) != 1 || len(body.Contents[0].Parts) != 2 {
			t.Errorf("unexpected contents %+v", body.Contents)
			return
		}
		parts := body.Contents[0].Parts
		if parts[0].InlineData == nil || parts[0].InlineData.MimeType != "audio/mp4" || parts[0].InlineData.Data != "YWJj" {
			t.Errorf("unexpected inline data %+v", parts[0].InlineData)
		}
		if parts[1].Text != "inst" {
			t.Errorf("unexpected instruction %q", parts[1].Text)
		}
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":" नमस्ते दुनिया \n"}]}}]}`)
	}))
	defer srv.Close()

	g, err := NewGeminiBackend("key", "gemini-test", srv.URL)
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	text, err := g.Transcribe(context.Background(), Request{MimeType: "audio/mp4", Data: "YWJj", Instruction: "inst"})
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if text != "नमस्ते दुनिया" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestGeminiBackendFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota", http.StatusTooManyRequests)
		},
		"empty": func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"candidates":[]}`)
		},
		"garbage": func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `not json`)
		},
		"blank": func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"  "}]}}]}`)
		},
	}
	for name, h := range cases {
		srv := httptest.NewServer(h)
		g, _ := NewGeminiBackend("key", "m", srv.URL)
		_, err := g.Transcribe(context.Background(), Request{MimeType: "audio/webm", Data: "YWJj"})
		srv.Close()
		if !errors.Is(err, model.ErrService) {
			t.Fatalf("%s: expected ErrService, got %v", name, err)
		}
	}
}

func TestNewGeminiBackendValidation(t *testing.T) {
	if _, err := NewGeminiBackend("", "m", ""); err == nil {
		t.Fatalf("expected error without key")
	}
	if _, err := NewGeminiBackend("k", "", ""); err == nil {
		t.Fatalf("expected error without model")
	}
}

func TestOpenAIBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/audio/transcriptions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse: %v", err)
		}
		if r.FormValue("prompt") != "inst" || r.FormValue("language") != "hi" {
			t.Errorf("unexpected form %v", r.MultipartForm.Value)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			data, _ := io.ReadAll(file)
			if header.Filename != "audio.m4a" || string(data) != "abc" {
				t.Errorf("unexpected upload %s %q", header.Filename, data)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"text":"नमस्ते"}`)
	}))
	defer srv.Close()

	o, err := NewOpenAIBackend("key", "", srv.URL+"/v1", "hi")
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	text, err := o.Transcribe(context.Background(), Request{MimeType: "audio/mp4", Data: "YWJj", Instruction: "inst"})
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if text != "नमस्ते" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestOpenAIBackendEmptyText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"text":"   "}`)
	}))
	defer srv.Close()

	o, _ := NewOpenAIBackend("key", "whisper-1", srv.URL+"/v1", "")
	if _, err := o.Transcribe(context.Background(), Request{MimeType: "audio/webm", Data: "YWJj"}); !errors.Is(err, model.ErrService) {
		t.Fatalf("expected ErrService, got %v", err)
	}
}

func TestExtensionFor(t *testing.T) {
	cases := map[string]string{
		"audio/webm;codecs=opus": ".webm",
		"audio/mp4":              ".m4a",
		"audio/mpeg":             ".mp3",
		"audio/x-wav":            ".wav",
		"audio/unknown":          ".webm",
	}
	for in, want := range cases {
		if got := extensionFor(in); got != want {
			t.Fatalf("extensionFor(%q) = %q, want %q", in, got, want)
		}
	}
}
