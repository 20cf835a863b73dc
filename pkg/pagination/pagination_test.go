package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	rec := httptest.NewRecorder()
	return FromContext(e.NewContext(req, rec))
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", DefaultLimit, 0},
		{"explicit", "limit=50&offset=10", 50, 10},
		{"capped", "limit=1000", MaxLimit, 0},
		{"negative offset", "limit=10&offset=-5", 10, 0},
		{"zero limit", "limit=0", DefaultLimit, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := paramsFor(t, tt.query)
			if p.Limit != tt.wantLimit {
				t.Errorf("limit: expected %d, got %d", tt.wantLimit, p.Limit)
			}
			if p.Offset != tt.wantOffset {
				t.Errorf("offset: expected %d, got %d", tt.wantOffset, p.Offset)
			}
		})
	}
}

func TestNewResponse_HasMore(t *testing.T) {
	resp := NewResponse(nil, 100, 20, 0)
	if !resp.HasMore {
		t.Error("expected has_more for first page of 100")
	}

	resp = NewResponse(nil, 100, 20, 90)
	if resp.HasMore {
		t.Error("expected no more results past offset 90")
	}
}

func TestParams_HasNext(t *testing.T) {
	p := Params{Limit: 20, Offset: 80}
	if p.HasNext(100) {
		t.Error("expected no next page at the end")
	}
	if !p.HasNext(101) {
		t.Error("expected a next page with one row remaining")
	}
}
