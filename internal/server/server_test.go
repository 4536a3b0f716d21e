package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/screenwiper/constants"
	"github.com/joseph-ayodele/screenwiper/internal/common"
	"github.com/joseph-ayodele/screenwiper/internal/entity"
)

type fakeBatch struct {
	calls [][]entity.ImageRef
}

func (f *fakeBatch) ProcessBatch(_ context.Context, refs []entity.ImageRef) []entity.ImageResult {
	f.calls = append(f.calls, refs)
	out := make([]entity.ImageResult, len(refs))
	for i, ref := range refs {
		if strings.Contains(ref.String(), "fail") {
			out[i] = entity.ImageResult{Ref: ref, Err: common.NewAcquisitionError(ref.String(), errors.New("404"))}
			continue
		}
		out[i] = entity.ImageResult{Ref: ref, Record: &entity.MiscRecord{
			CategoryID: constants.CategoryMiscellaneous,
			Title:      constants.MiscellaneousTitle,
			Summary:    "ok",
			PhotoRef:   ref.PhotoRef(),
		}}
	}
	return out
}

func newTestHTTP(t *testing.T, gatherer prometheus.Gatherer) (*HTTPServer, *fakeBatch) {
	t.Helper()
	fb := &fakeBatch{}
	svc := NewAnalyzeService(fb, Limits{MaxBatchSize: 3}, nil)
	return NewHTTPServer(svc, HTTPConfig{Gatherer: gatherer, MaxUploadBytes: 1 << 10}, nil), fb
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestWelcome(t *testing.T) {
	s, _ := newTestHTTP(t, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode(t, rec)["message"]; got != WelcomeMessage {
		t.Errorf("message = %v", got)
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Error("missing request id header")
	}
}

func TestAnalyzeImages(t *testing.T) {
	s, fb := newTestHTTP(t, nil)
	body := `{"imageUrls":["https://cdn.example.com/a.png","https://cdn.example.com/fail.png"]}`
	req := httptest.NewRequest(http.MethodPost, "/analyze_images", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	data, ok := decode(t, rec)["data"].([]any)
	if !ok || len(data) != 2 {
		t.Fatalf("data = %v", data)
	}
	first := data[0].(map[string]any)
	want := map[string]any{
		"categoryId": float64(3),
		"title":      constants.MiscellaneousTitle,
		"summary":    "ok",
		"photoName":  "a.png",
		"photoUrl":   "https://cdn.example.com/a.png",
	}
	if diff := cmp.Diff(want, first); diff != "" {
		t.Errorf("first result mismatch (-want +got):\n%s", diff)
	}
	second := data[1].(map[string]any)
	if second["imageUrl"] != "https://cdn.example.com/fail.png" || second["error"] == "" {
		t.Errorf("second result = %v", second)
	}
	if len(fb.calls) != 1 || len(fb.calls[0]) != 2 {
		t.Errorf("processor calls = %v", fb.calls)
	}
}

func TestAnalyzeImagesRejectsInvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty list", `{"imageUrls":[]}`},
		{"missing field", `{}`},
		{"bad scheme", `{"imageUrls":["ftp://example.com/a.png"]}`},
		{"too many", `{"imageUrls":["https://a/1.png","https://a/2.png","https://a/3.png","https://a/4.png"]}`},
		{"not json", `imageUrls=1`},
		{"url too long", `{"imageUrls":["https://cdn.example.com/` + strings.Repeat("a", 3000) + `.png"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, fb := newTestHTTP(t, nil)
			req := httptest.NewRequest(http.MethodPost, "/analyze_images", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
			}
			if msg, _ := decode(t, rec)["error"].(string); msg == "" {
				t.Error("expected error message")
			}
			if len(fb.calls) != 0 {
				t.Error("processor must not run for invalid requests")
			}
		})
	}
}

func TestAnalyzeLocal(t *testing.T) {
	s, _ := newTestHTTP(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range map[string]string{"shot.png": "png-bytes", "big.png": strings.Repeat("x", 2<<10)} {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/analyze_images_local", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	data := decode(t, rec)["data"].([]any)
	if len(data) != 2 {
		t.Fatalf("got %d results", len(data))
	}
	byName := map[string]map[string]any{}
	for _, d := range data {
		m := d.(map[string]any)
		if n, ok := m["photoName"].(string); ok {
			byName[n] = m
		} else {
			byName[m["filename"].(string)] = m
		}
	}
	if byName["shot.png"]["categoryId"] != float64(3) {
		t.Errorf("shot.png = %v", byName["shot.png"])
	}
	if byName["big.png"]["error"] == nil {
		t.Errorf("big.png should fail: %v", byName["big.png"])
	}
}

func TestAnalyzeLocalRequiresFiles(t *testing.T) {
	s, _ := newTestHTTP(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/analyze_images_local", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "screenwiper_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	s, _ := newTestHTTP(t, reg)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "screenwiper_test_total 1") {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
}

func startGRPC(t *testing.T) *ScreenshotServiceClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	svc := NewAnalyzeService(&fakeBatch{}, Limits{MaxBatchSize: 3}, nil)
	gs, _ := NewGRPCServer(svc, nil)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewScreenshotServiceClient(conn)
}

func TestGRPCAnalyzeImages(t *testing.T) {
	client := startGRPC(t)
	req, err := structpb.NewStruct(map[string]any{
		"imageUrls": []any{"https://cdn.example.com/a.png", "s3://bucket/fail.png"},
	})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := client.AnalyzeImages(context.Background(), req)
	if err != nil {
		t.Fatalf("AnalyzeImages: %v", err)
	}
	data := resp.GetFields()["data"].GetListValue().GetValues()
	if len(data) != 2 {
		t.Fatalf("got %d results", len(data))
	}
	first := data[0].GetStructValue().AsMap()
	if first["categoryId"] != float64(3) || first["photoName"] != "a.png" {
		t.Errorf("first = %v", first)
	}
	second := data[1].GetStructValue().AsMap()
	if second["imageUrl"] != "s3://bucket/fail.png" || second["error"] == nil {
		t.Errorf("second = %v", second)
	}
}

func TestGRPCAnalyzeImagesInvalid(t *testing.T) {
	client := startGRPC(t)
	tests := map[string]map[string]any{
		"empty":      {"imageUrls": []any{}},
		"not a list": {"imageUrls": "https://a/b.png"},
		"non string": {"imageUrls": []any{1.0}},
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			req, err := structpb.NewStruct(body)
			if err != nil {
				t.Fatal(err)
			}
			_, err = client.AnalyzeImages(context.Background(), req)
			if status.Code(err) != codes.InvalidArgument {
				t.Fatalf("code = %v, want InvalidArgument (err=%v)", status.Code(err), err)
			}
		})
	}
}

func TestGRPCAnalyzeImagesNamesBadItem(t *testing.T) {
	client := startGRPC(t)
	req, err := structpb.NewStruct(map[string]any{"imageUrls": []any{"https://a/b.png", true}})
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.AnalyzeImages(context.Background(), req)
	if got := status.Convert(err).Message(); got != "imageUrls[1] must be a string" {
		t.Fatalf("message = %q", got)
	}
}
