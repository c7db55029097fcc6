package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/vistoria/internal/blobstore/local"
	"github.com/vbonduro/vistoria/internal/db"
	"github.com/vbonduro/vistoria/internal/domain"
	"github.com/vbonduro/vistoria/internal/logging"
	"github.com/vbonduro/vistoria/internal/report"
	"github.com/vbonduro/vistoria/internal/service"
	"github.com/vbonduro/vistoria/internal/store"
	"github.com/vbonduro/vistoria/internal/web"
)

const publicBase = "http://vistoria.test"

// recordingAnalyzer returns a fixed description and remembers the subjects
// it was asked about.
type recordingAnalyzer struct {
	mu       sync.Mutex
	text     string
	subjects []string
}

func (a *recordingAnalyzer) Describe(_ context.Context, r io.Reader, _ string, subject string) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.subjects = append(a.subjects, subject)
	return a.text, nil
}

func (a *recordingAnalyzer) Refine(_ context.Context, text string) (string, error) {
	return strings.ToUpper(text), nil
}

func (a *recordingAnalyzer) Subjects() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.subjects...)
}

// newTestServer sets up a real web.Server backed by in-memory SQLite, a
// temporary blob directory and the provided analyzer.
func newTestServer(t *testing.T, analyzer *recordingAnalyzer) *httptest.Server {
	t.Helper()
	database, err := db.OpenForTesting()
	require.NoError(t, err)

	blobs, err := local.New(t.TempDir(), publicBase)
	require.NoError(t, err)

	logger := logging.Discard()
	svc := service.NewInspectionService(
		store.NewInspectionStore(database),
		blobs,
		analyzer,
		report.NewRenderer(report.Options{InspectorName: "Carlos Lima"}),
		nil,
		t.TempDir(),
		logger,
	)
	srv := httptest.NewServer(web.NewServer(svc, blobs, logger))
	t.Cleanup(func() {
		srv.Close()
		_ = database.Close()
	})
	return srv
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for x := 0; x < 32; x++ {
		for y := 0; y < 24; y++ {
			img.Set(x, y, color.RGBA{200, 120, 40, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

// buildMultipartBody creates a multipart/form-data body with an "image" field.
func buildMultipartBody(t *testing.T, imageData []byte) (body *bytes.Buffer, contentType string) {
	t.Helper()
	body = &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("image", "photo.jpg")
	require.NoError(t, err)
	_, err = fw.Write(imageData)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

// do sends a request with an optional JSON body and returns the status and
// response body.
func do(t *testing.T, method, url string, payload any) (int, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return send(t, req)
}

func upload(t *testing.T, method, url string, data []byte) (int, []byte) {
	t.Helper()
	body, contentType := buildMultipartBody(t, data)
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	return send(t, req)
}

func send(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func errorMessage(t *testing.T, data []byte) string {
	t.Helper()
	return decode[map[string]string](t, data)["error"]
}

func schedule(t *testing.T, srv *httptest.Server, address string) *domain.Inspection {
	t.Helper()
	status, body := do(t, http.MethodPost, srv.URL+"/inspections", map[string]any{
		"address":      address,
		"client_name":  "Joana Silva",
		"client_email": "joana@example.com",
		"scheduled_at": time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC),
		"type":         "move_in",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	return decode[*domain.Inspection](t, body)
}

func TestIntegration_Health(t *testing.T) {
	srv := newTestServer(t, &recordingAnalyzer{})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "default-src 'none'")
}

func TestIntegration_ScheduleAndList(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, &recordingAnalyzer{})

	ins := schedule(t, srv, "Rua das Flores, 123")
	assert.Equal(t, domain.StatusScheduled, ins.Status)
	assert.NotEmpty(t, ins.ID)

	status, body := do(t, http.MethodGet, srv.URL+"/inspections", nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[[]*domain.Inspection](t, body)
	require.Len(t, list, 1)
	assert.Equal(t, ins.ID, list[0].ID)

	status, body = do(t, http.MethodGet, srv.URL+"/inspections/"+ins.ID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Rua das Flores, 123", decode[*domain.Inspection](t, body).Address)
}

func TestIntegration_ScheduleValidation(t *testing.T) {
	srv := newTestServer(t, &recordingAnalyzer{})

	status, body := do(t, http.MethodPost, srv.URL+"/inspections", map[string]any{
		"client_name":  "Joana",
		"scheduled_at": time.Now(),
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, errorMessage(t, body), "address")

	status, _ = do(t, http.MethodPost, srv.URL+"/inspections", map[string]any{"bogus": true})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestIntegration_UnknownInspection(t *testing.T) {
	srv := newTestServer(t, &recordingAnalyzer{})

	status, body := do(t, http.MethodGet, srv.URL+"/inspections/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, errorMessage(t, body))

	status, _ = do(t, http.MethodPost, srv.URL+"/inspections/missing/rooms", map[string]string{"name": "Hall"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestIntegration_UpdateAndDelete(t *testing.T) {
	srv := newTestServer(t, &recordingAnalyzer{})
	ins := schedule(t, srv, "Av. Paulista, 1000")

	status, body := do(t, http.MethodPatch, srv.URL+"/inspections/"+ins.ID, map[string]string{"notes": "Bring ladder."})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "Bring ladder.", decode[*domain.Inspection](t, body).Notes)

	status, _ = do(t, http.MethodDelete, srv.URL+"/inspections/"+ins.ID, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = do(t, http.MethodGet, srv.URL+"/inspections/"+ins.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestIntegration_Templates(t *testing.T) {
	srv := newTestServer(t, &recordingAnalyzer{})

	status, body := do(t, http.MethodGet, srv.URL+"/templates", nil)
	require.Equal(t, http.StatusOK, status)
	rooms := decode[[]struct {
		Name  string   `json:"name"`
		Items []string `json:"items"`
	}](t, body)
	require.NotEmpty(t, rooms)
	assert.Equal(t, "Living Room", rooms[0].Name)
}

func TestIntegration_FullInspection(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	analyzer := &recordingAnalyzer{text: "Stainless sink with a small scratch."}
	srv := newTestServer(t, analyzer)
	ins := schedule(t, srv, "Rua das Flores, 123")
	base := srv.URL + "/inspections/" + ins.ID

	// Room from template.
	status, body := do(t, http.MethodPost, base+"/rooms", map[string]string{"template": "kitchen"})
	require.Equal(t, http.StatusCreated, status, string(body))
	room := decode[domain.Room](t, body)
	assert.Equal(t, "Kitchen", room.Name)
	require.Len(t, room.Items, 6)
	item := room.Items[0]

	status, body = do(t, http.MethodPatch, base+"/rooms/"+room.ID+"/items/"+item.ID, map[string]string{"condition": "damaged"})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, domain.ConditionDamaged, decode[domain.Item](t, body).Condition)

	// Photo with analysis.
	status, body = upload(t, http.MethodPost, base+"/rooms/"+room.ID+"/items/"+item.ID+"/photos", testJPEG(t))
	require.Equal(t, http.StatusCreated, status, string(body))
	photo := decode[domain.Photo](t, body)
	assert.True(t, photo.Analyzed)
	assert.Equal(t, analyzer.text, photo.Description)
	assert.Equal(t, []string{item.Name}, analyzer.Subjects())

	resp, err := http.Get(base + "/rooms/" + room.ID + "/items/" + item.ID + "/photos/" + photo.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	_ = resp.Body.Close()

	// Meters, keys and signature.
	status, body = do(t, http.MethodPut, base+"/meters/water", map[string]string{"value": "00123"})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "00123", decode[domain.MeterReading](t, body).Value)

	status, body = upload(t, http.MethodPost, base+"/meters/water/photo", testJPEG(t))
	require.Equal(t, http.StatusOK, status, string(body))
	meter := decode[domain.MeterReading](t, body)
	assert.Equal(t, "00123", meter.Value)
	assert.NotNil(t, meter.Photo)

	status, body = do(t, http.MethodPost, base+"/keys", map[string]any{"description": "Front door", "quantity": 2, "location": "concierge"})
	require.Equal(t, http.StatusCreated, status, string(body))
	assert.Equal(t, domain.LocationConcierge, decode[domain.KeySet](t, body).Location)

	status, body = upload(t, http.MethodPut, base+"/signature", testJPEG(t))
	require.Equal(t, http.StatusOK, status, string(body))
	assert.NotEmpty(t, decode[*domain.Inspection](t, body).Signature)

	status, body = do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, status)
	current := decode[*domain.Inspection](t, body)
	assert.Equal(t, domain.StatusInProgress, current.Status)
	assert.Contains(t, current.Rooms[0].Items[0].Description, analyzer.text)

	// Finalize once.
	status, body = do(t, http.MethodPost, base+"/finalize", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	res := decode[service.FinalizeResult](t, body)
	assert.True(t, res.Uploaded)
	assert.Equal(t, "move_in_das.pdf", res.Filename)
	assert.Equal(t, domain.StatusCompleted, res.Inspection.Status)
	require.True(t, strings.HasPrefix(res.Inspection.ReportURL, publicBase+"/reports/"))

	status, _ = do(t, http.MethodPost, base+"/finalize", nil)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = do(t, http.MethodPost, base+"/rooms", map[string]string{"name": "Hall"})
	assert.Equal(t, http.StatusConflict, status)

	// Report download and published copy.
	resp, err = http.Get(base + "/report")
	require.NoError(t, err)
	pdf, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "move_in_das.pdf")
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	status, published := do(t, http.MethodGet, srv.URL+strings.TrimPrefix(res.Inspection.ReportURL, publicBase), nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, bytes.HasPrefix(published, []byte("%PDF")))

	status, body = do(t, http.MethodPost, base+"/sync", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, errorMessage(t, body), "already published")

	status, _ = do(t, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNoContent, status)
	status, _ = do(t, http.MethodGet, srv.URL+strings.TrimPrefix(res.Inspection.ReportURL, publicBase), nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestIntegration_PhotoRejected(t *testing.T) {
	srv := newTestServer(t, &recordingAnalyzer{text: "unused"})
	ins := schedule(t, srv, "Rua Augusta, 7")
	base := srv.URL + "/inspections/" + ins.ID

	status, body := do(t, http.MethodPost, base+"/rooms", map[string]string{"name": "Hall"})
	require.Equal(t, http.StatusCreated, status, string(body))
	room := decode[domain.Room](t, body)

	status, body = do(t, http.MethodPost, base+"/rooms/"+room.ID+"/items", map[string]string{"name": "Door"})
	require.Equal(t, http.StatusCreated, status, string(body))
	item := decode[domain.Item](t, body)
	photos := base + "/rooms/" + room.ID + "/items/" + item.ID + "/photos"

	status, body = upload(t, http.MethodPost, photos, []byte("%PDF-1.4 not an image"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, errorMessage(t, body), "unsupported image format")

	truncated := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
	status, _ = upload(t, http.MethodPost, photos, truncated)
	assert.Equal(t, http.StatusBadRequest, status)

	req, err := http.NewRequest(http.MethodPost, photos, strings.NewReader("no form"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/plain")
	status, _ = send(t, req)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestIntegration_UnknownMeterKind(t *testing.T) {
	srv := newTestServer(t, &recordingAnalyzer{})
	ins := schedule(t, srv, "Rua Augusta, 7")

	status, body := do(t, http.MethodPut, srv.URL+"/inspections/"+ins.ID+"/meters/steam", map[string]string{"value": "1"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, errorMessage(t, body), "steam")
}

func TestIntegration_KeysLifecycle(t *testing.T) {
	srv := newTestServer(t, &recordingAnalyzer{})
	ins := schedule(t, srv, "Rua Augusta, 7")
	base := srv.URL + "/inspections/" + ins.ID

	status, body := do(t, http.MethodPost, base+"/keys", map[string]any{})
	require.Equal(t, http.StatusCreated, status, string(body))
	key := decode[domain.KeySet](t, body)
	assert.Equal(t, "Main key", key.Description)
	assert.Equal(t, 1, key.Quantity)

	status, body = do(t, http.MethodPatch, base+"/keys/"+key.ID, map[string]any{"quantity": 3})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, 3, decode[domain.KeySet](t, body).Quantity)

	status, _ = do(t, http.MethodPatch, base+"/keys/"+key.ID, map[string]any{"location": "garage"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, http.MethodDelete, base+"/keys/"+key.ID, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = do(t, http.MethodDelete, base+"/keys/"+key.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestIntegration_Refine(t *testing.T) {
	srv := newTestServer(t, &recordingAnalyzer{})

	status, body := do(t, http.MethodPost, srv.URL+"/refine", map[string]string{"text": "wall has crack"})
	require.Equal(t, http.StatusOK, status, string(body))
	got := decode[struct {
		Text    string `json:"text"`
		Refined bool   `json:"refined"`
	}](t, body)
	assert.True(t, got.Refined)
	assert.Equal(t, "WALL HAS CRACK", got.Text)
}

func TestIntegration_StoredReportMissing(t *testing.T) {
	srv := newTestServer(t, &recordingAnalyzer{})

	status, _ := do(t, http.MethodGet, srv.URL+"/reports/nope/report.pdf", nil)
	assert.Equal(t, http.StatusNotFound, status)
}
