package web_test

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/weddingdb/internal/db"
	"github.com/vbonduro/weddingdb/internal/service"
	"github.com/vbonduro/weddingdb/internal/store"
	"github.com/vbonduro/weddingdb/internal/suggest"
	"github.com/vbonduro/weddingdb/internal/web"
	"github.com/vbonduro/weddingdb/internal/web/templates"
)

// stubSuggester returns a fixed text or error and records its inputs.
type stubSuggester struct {
	mu      sync.Mutex
	text    string
	err     error
	members int
	place   string
}

func (s *stubSuggester) Suggest(_ context.Context, members int, place string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = members
	s.place = place
	return s.text, s.err
}

func (s *stubSuggester) last() (int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.members, s.place
}

// newTestServer sets up a real web.Server backed by in-memory SQLite and the
// provided suggester stub.
func newTestServer(t *testing.T, sg *stubSuggester) (*httptest.Server, *sql.DB) {
	t.Helper()
	database, err := db.OpenForTesting()
	if err != nil {
		t.Fatalf("OpenForTesting: %v", err)
	}

	var suggester suggest.Suggester
	if sg != nil {
		suggester = sg
	}
	svc := service.NewGuestService(store.NewGuestStore(database), suggester, service.NewNotifier(), 5*time.Second, slog.Default())
	srv := httptest.NewServer(web.NewServer(svc, templates.FS, slog.Default()))
	t.Cleanup(func() {
		srv.Close()
		_ = database.Close()
	})
	return srv, database
}

func testFamilyForm() url.Values {
	return url.Values{
		"familyName":      {"Test Family"},
		"numberOfMembers": {"3"},
		"placeOfVisit":    {"Pune"},
		"giftAmount":      {"501"},
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func do(t *testing.T, method, target string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, target, body)
	if err != nil {
		t.Fatalf("new %s request: %v", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// apiCreate posts a guest through the JSON API and returns its id.
func apiCreate(t *testing.T, srv *httptest.Server, body string) string {
	t.Helper()
	resp := do(t, http.MethodPost, srv.URL+"/api/guests", strings.NewReader(body))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /api/guests status %d: %s", resp.StatusCode, readBody(t, resp))
	}
	var rec service.GuestRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	return rec.ID
}

type apiError struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
		Fields  []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"fields"`
	} `json:"error"`
}

func decodeAPIError(t *testing.T, resp *http.Response) apiError {
	t.Helper()
	var e apiError
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e
}

func TestIntegration_RootRedirects(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp := do(t, http.MethodGet, srv.URL+"/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/guests", resp.Request.URL.Path)
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestIntegration_CreateGuestForm(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv, _ := newTestServer(t, nil)

	resp, err := http.PostForm(srv.URL+"/guests", testFamilyForm())
	if err != nil {
		t.Fatalf("POST /guests: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	assert.Contains(t, body, "Test Family")
	assert.Contains(t, body, "₹501")
	assert.Contains(t, body, "Visit: Pune")

	page := do(t, http.MethodGet, srv.URL+"/guests", nil)
	require.Equal(t, http.StatusOK, page.StatusCode)
	pageBody := readBody(t, page)
	assert.Contains(t, pageBody, "Test Family")
	assert.Contains(t, pageBody, "1 families")
	assert.Contains(t, pageBody, "Add New Family")
}

func TestIntegration_CreateGuestFormInvalid(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	form := testFamilyForm()
	form.Set("numberOfMembers", "0")
	form.Set("familyName", "A")
	resp, err := http.PostForm(srv.URL+"/guests", form)
	if err != nil {
		t.Fatalf("POST /guests: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	body := readBody(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, `data-field="familyName"`)
	assert.Contains(t, body, `data-field="numberOfMembers"`)

	list := do(t, http.MethodGet, srv.URL+"/guests/list", nil)
	assert.Contains(t, readBody(t, list), "No families added yet")
}

func TestIntegration_DeleteGuest(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv, _ := newTestServer(t, nil)

	id := apiCreate(t, srv, `{"familyName":"Test Family","numberOfMembers":3,"placeOfVisit":"Pune","giftAmount":501}`)

	resp := do(t, http.MethodDelete, srv.URL+"/guests/"+id, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}

	// A second delete of the same id still succeeds.
	again := do(t, http.MethodDelete, srv.URL+"/guests/"+id, nil)
	assert.Equal(t, http.StatusOK, again.StatusCode)

	list := do(t, http.MethodGet, srv.URL+"/guests/list", nil)
	assert.NotContains(t, readBody(t, list), id)
}

func TestIntegration_DeleteGuestInvalidID(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp := do(t, http.MethodDelete, srv.URL+"/guests/not-a-valid-id", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	api := do(t, http.MethodDelete, srv.URL+"/api/guests/not-a-valid-id", nil)
	assert.Equal(t, http.StatusBadRequest, api.StatusCode)
	e := decodeAPIError(t, api)
	assert.Equal(t, "InvalidInput", e.Error.Kind)
	require.Len(t, e.Error.Fields, 1)
	assert.Equal(t, "id", e.Error.Fields[0].Field)
}

func TestIntegration_Suggestion(t *testing.T) {
	sg := &stubSuggester{text: "Book one Innova from Pune station for all 3."}
	srv, _ := newTestServer(t, sg)

	resp, err := http.PostForm(srv.URL+"/guests/abc/suggestion", url.Values{"members": {"3"}, "place": {"Pune"}})
	if err != nil {
		t.Fatalf("POST suggestion: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Book one Innova from Pune station for all 3.")
	members, place := sg.last()
	assert.Equal(t, 3, members)
	assert.Equal(t, "Pune", place)
}

func TestIntegration_SuggestionUnavailable(t *testing.T) {
	sg := &stubSuggester{err: errors.New("quota exceeded")}
	srv, _ := newTestServer(t, sg)

	resp, err := http.PostForm(srv.URL+"/guests/abc/suggestion", url.Values{"members": {"3"}, "place": {"Pune"}})
	if err != nil {
		t.Fatalf("POST suggestion: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "no suggestion is available right now")
	assert.NotContains(t, body, "quota exceeded")

	api := do(t, http.MethodPost, srv.URL+"/api/suggestions", strings.NewReader(`{"numberOfMembers":3,"placeOfVisit":"Pune"}`))
	assert.Equal(t, http.StatusServiceUnavailable, api.StatusCode)
	assert.Equal(t, "SuggestionUnavailable", decodeAPIError(t, api).Error.Kind)
}

func TestIntegration_SuggestionBadMembers(t *testing.T) {
	srv, _ := newTestServer(t, &stubSuggester{text: "ok"})

	resp, err := http.PostForm(srv.URL+"/guests/abc/suggestion", url.Values{"members": {"three"}, "place": {"Pune"}})
	if err != nil {
		t.Fatalf("POST suggestion: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIntegration_API(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	sg := &stubSuggester{text: "Two cars."}
	srv, _ := newTestServer(t, sg)

	first := apiCreate(t, srv, `{"familyName":"Joshi","numberOfMembers":"2","placeOfVisit":"indore","giftAmount":"1100.50"}`)
	second := apiCreate(t, srv, `{"familyName":"Patil","numberOfMembers":5,"placeOfVisit":"Pune-Indore","giftAmount":0,"phoneNumber":"9822012345"}`)

	resp := do(t, http.MethodGet, srv.URL+"/api/guests", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []struct {
		ID              string      `json:"id"`
		FamilyName      string      `json:"familyName"`
		NumberOfMembers int         `json:"numberOfMembers"`
		PlaceOfVisit    string      `json:"placeOfVisit"`
		GiftAmount      json.Number `json:"giftAmount"`
		PhoneNumber     string      `json:"phoneNumber"`
	}
	raw := readBody(t, resp)
	assert.Contains(t, raw, `"giftAmount":1100.5`)
	require.NoError(t, json.Unmarshal([]byte(raw), &list))
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID)
	assert.Equal(t, "9822012345", list[0].PhoneNumber)
	assert.Equal(t, first, list[1].ID)
	assert.Equal(t, "Indore", list[1].PlaceOfVisit)
	assert.Equal(t, json.Number("1100.5"), list[1].GiftAmount)

	del := do(t, http.MethodDelete, srv.URL+"/api/guests/"+first, nil)
	assert.Equal(t, http.StatusNoContent, del.StatusCode)

	sug := do(t, http.MethodPost, srv.URL+"/api/suggestions", strings.NewReader(`{"numberOfMembers":5,"placeOfVisit":"Pune-Indore"}`))
	require.Equal(t, http.StatusOK, sug.StatusCode)
	var out struct {
		SuggestionText string `json:"suggestionText"`
	}
	require.NoError(t, json.NewDecoder(sug.Body).Decode(&out))
	assert.Equal(t, "Two cars.", out.SuggestionText)
}

func TestIntegration_SuggestionOversizedForm(t *testing.T) {
	sg := &stubSuggester{text: "unused"}
	srv, _ := newTestServer(t, sg)

	form := url.Values{"members": {"3"}, "place": {strings.Repeat("Pune", 17*1024)}}
	resp, err := http.PostForm(srv.URL+"/guests/abc/suggestion", form)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	members, place := sg.last()
	assert.Zero(t, members)
	assert.Empty(t, place)
}

func TestIntegration_APIValidation(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp := do(t, http.MethodPost, srv.URL+"/api/guests",
		strings.NewReader(`{"familyName":"A","numberOfMembers":0,"placeOfVisit":"Pune","giftAmount":-1}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	e := decodeAPIError(t, resp)
	assert.Equal(t, "InvalidInput", e.Error.Kind)
	var fields []string
	for _, f := range e.Error.Fields {
		fields = append(fields, f.Field)
	}
	assert.Equal(t, []string{"familyName", "numberOfMembers", "giftAmount"}, fields)

	exponent := do(t, http.MethodPost, srv.URL+"/api/guests",
		strings.NewReader(`{"familyName":"Test Family","numberOfMembers":3,"placeOfVisit":"Pune","giftAmount":1e50000000}`))
	assert.Equal(t, http.StatusBadRequest, exponent.StatusCode)
	ee := decodeAPIError(t, exponent)
	require.Len(t, ee.Error.Fields, 1)
	assert.Equal(t, "giftAmount", ee.Error.Fields[0].Field)

	form := testFamilyForm()
	form.Set("giftAmount", "1e999999999")
	formResp, err := http.PostForm(srv.URL+"/guests", form)
	require.NoError(t, err)
	t.Cleanup(func() { _ = formResp.Body.Close() })
	assert.Equal(t, http.StatusBadRequest, formResp.StatusCode)
	assert.Contains(t, readBody(t, formResp), `data-field="giftAmount"`)

	list := do(t, http.MethodGet, srv.URL+"/api/guests", nil)
	assert.Equal(t, "[]\n", readBody(t, list))

	malformed := do(t, http.MethodPost, srv.URL+"/api/guests", bytes.NewBufferString(`{"familyName":`))
	assert.Equal(t, http.StatusBadRequest, malformed.StatusCode)
	assert.Equal(t, "InvalidInput", decodeAPIError(t, malformed).Error.Kind)
}

func TestIntegration_StoreUnavailable(t *testing.T) {
	srv, database := newTestServer(t, nil)
	require.NoError(t, database.Close())

	resp := do(t, http.MethodGet, srv.URL+"/api/guests", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "StoreUnavailable", decodeAPIError(t, resp).Error.Kind)

	create := do(t, http.MethodPost, srv.URL+"/api/guests",
		strings.NewReader(`{"familyName":"Test Family","numberOfMembers":3,"placeOfVisit":"Pune","giftAmount":501}`))
	assert.Equal(t, http.StatusServiceUnavailable, create.StatusCode)

	page := do(t, http.MethodGet, srv.URL+"/guests", nil)
	assert.Equal(t, http.StatusServiceUnavailable, page.StatusCode)
}

func TestIntegration_EventsRefresh(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv, _ := newTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	// The subscription is live once the preamble arrives.
	waitFor(t, lines, ": connected")

	id := apiCreate(t, srv, `{"familyName":"Test Family","numberOfMembers":3,"placeOfVisit":"Pune","giftAmount":501}`)
	waitFor(t, lines, "event: refresh")
	data := waitFor(t, lines, "data: ")
	assert.Contains(t, data, id)
	assert.Contains(t, data, `"reason":"added"`)
}

// waitFor returns the first line with the given prefix.
func waitFor(t *testing.T, lines <-chan string, prefix string) string {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatalf("stream closed before %q", prefix)
			}
			if strings.HasPrefix(line, prefix) {
				return line
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %q", prefix)
		}
	}
}
