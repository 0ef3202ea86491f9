package preview

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mwantia/feedtree/data"
	"github.com/mwantia/feedtree/field"
)

type staticSource map[data.ID]map[string]string

func (s staticSource) GetItemFieldValues(ctx context.Context, id data.ID) (map[string]string, error) {
	values, ok := s[id]
	if !ok {
		return nil, data.ErrNotFound
	}
	return values, nil
}

type failingSource struct{}

func (failingSource) GetItemFieldValues(ctx context.Context, id data.ID) (map[string]string, error) {
	return nil, errors.New("store offline")
}

func TestPreview_Flash(t *testing.T) {
	id := data.NewID()
	h := NewHandler(staticSource{id: {
		field.URL:      "http://media/abc.swf?a=1&b=2",
		field.MimeType: "application/x-shockwave-flash",
	}}, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/preview?id="+id.String()+"&la=en&vs=1", nil))

	if rr.Code != 200 {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `<embed src="http://media/abc.swf?a=1&amp;b=2"`) {
		t.Errorf("expected escaped embed, got %s", body)
	}
	if !strings.Contains(body, `data-language="en"`) {
		t.Errorf("expected language attribute, got %s", body)
	}
}

func TestPreview_Video(t *testing.T) {
	id := data.NewID()
	h := NewHandler(staticSource{id: {field.URL: "http://media/abc.mp4", field.MimeType: "video/mp4"}}, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/preview?id="+id.String(), nil))

	if !strings.Contains(rr.Body.String(), `<source src="http://media/abc.mp4" type="video/mp4">`) {
		t.Errorf("expected video source, got %s", rr.Body.String())
	}
}

func TestPreview_NoMedia(t *testing.T) {
	id := data.NewID()
	h := NewHandler(staticSource{id: {}}, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/preview?id="+id.String(), nil))

	if rr.Code != 200 || !strings.Contains(rr.Body.String(), "No media available") {
		t.Errorf("expected placeholder, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestPreview_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source FieldSource
		target string
		code   int
	}{
		{"invalid id", staticSource{}, "/preview?id=nope", 400},
		{"unknown id", staticSource{}, "/preview?id=" + data.NewID().String(), 404},
		{"source failure", failingSource{}, "/preview?id=" + data.NewID().String(), 502},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			NewHandler(tt.source, nil).ServeHTTP(rr, httptest.NewRequest("GET", tt.target, nil))
			if rr.Code != tt.code {
				t.Errorf("expected status %d, got %d", tt.code, rr.Code)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	NewHandler(staticSource{}, nil).ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))

	if rr.Code != 200 || rr.Body.String() != `{"status":"ok"}` {
		t.Errorf("unexpected health response %d %q", rr.Code, rr.Body.String())
	}
}
