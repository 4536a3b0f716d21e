package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/joseph-ayodele/screenwiper/constants"
	"github.com/joseph-ayodele/screenwiper/internal/common"
	"github.com/joseph-ayodele/screenwiper/internal/core/ocr"
	"github.com/joseph-ayodele/screenwiper/internal/entity"
	"github.com/joseph-ayodele/screenwiper/internal/metrics"
)

// fixtures keyed by image ref: the fake acquirer returns the ref itself as bytes,
// the fake OCR maps those bytes to text, the fake NER maps text to entities.
type fakeAcquirer struct{ fail map[string]bool }

func (f fakeAcquirer) Acquire(_ context.Context, ref entity.ImageRef) ([]byte, error) {
	if f.fail[ref.String()] {
		return nil, common.NewAcquisitionError(ref.String(), errors.New("status 404"))
	}
	if ref.IsUpload() {
		return ref.Data, nil
	}
	return []byte(ref.URL), nil
}

type fakeOCR struct {
	texts map[string]string
	calls atomic.Int32
}

func (f *fakeOCR) RecognizeText(_ context.Context, image []byte) (string, error) {
	f.calls.Add(1)
	text, ok := f.texts[string(image)]
	if !ok {
		return "", errors.New("tesseract: exit status 1")
	}
	return text, nil
}

type confOCR struct{ fakeOCR }

func (c *confOCR) Recognize(ctx context.Context, image []byte) (ocr.Result, error) {
	text, err := c.RecognizeText(ctx, image)
	return ocr.Result{Text: text, Confidence: 0.9}, err
}

type fakeNER map[string][]entity.RecognizedEntity

func (f fakeNER) ExtractEntities(_ context.Context, text string) ([]entity.RecognizedEntity, error) {
	if strings.Contains(text, "quota") {
		return nil, errors.New("quota exceeded")
	}
	return f[text], nil
}

const (
	placeURL = "https://img.example/cafe.png?sig=1"
	eventURL = "https://img.example/event.png"
	miscURL  = "https://img.example/memo.png"
	deadURL  = "https://img.example/gone.png"
	badOCR   = "https://img.example/corrupt.png"
	quotaURL = "https://img.example/quota.png"
)

func newTestProcessor(t *testing.T, m *metrics.Metrics) (*Processor, *fakeOCR) {
	t.Helper()
	o := &fakeOCR{texts: map[string]string{
		placeURL: "Cafe X\n123 Main St\n09:00-18:00\nwifi",
		eventURL: "박람회\n2024.05.01~2024.05.03",
		miscURL:  "buy milk",
		quotaURL: "quota",
	}}
	n := fakeNER{
		"Cafe X\n123 Main St\n09:00-18:00\nwifi": {
			{Name: "Cafe X", Type: constants.EntityOrganization},
			{Name: "123 Main St", Type: constants.EntityAddress},
			{Name: "wifi", Type: constants.EntityOther},
		},
		"박람회\n2024.05.01~2024.05.03": {{Name: "박람회", Type: constants.EntityOther}},
		"buy milk":                     {{Name: "milk", Type: constants.EntityOther}},
	}
	p := NewProcessor(nil, fakeAcquirer{fail: map[string]bool{deadURL: true}}, o, n, nil,
		WithWorkers(2), WithMetrics(m))
	return p, o
}

func TestProcessImagePlace(t *testing.T) {
	p, _ := newTestProcessor(t, nil)
	rec, err := p.ProcessImage(context.Background(), entity.ImageRef{URL: placeURL})
	if err != nil {
		t.Fatalf("ProcessImage: %v", err)
	}
	want := &entity.PlaceRecord{
		CategoryID:     constants.CategoryPlace,
		Title:          "Cafe X",
		Address:        "123 Main St",
		OperatingHours: []string{"09:00 - 18:00"},
		Summary:        "wifi",
		PhotoRef:       entity.PhotoRef{Name: "cafe.png", URL: placeURL},
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessImageErrors(t *testing.T) {
	p, _ := newTestProcessor(t, nil)
	tests := []struct {
		url  string
		want error
	}{
		{url: deadURL, want: common.ErrAcquisition},
		{url: badOCR, want: common.ErrRecognition},
		{url: quotaURL, want: common.ErrRecognition},
	}
	for _, tt := range tests {
		_, err := p.ProcessImage(context.Background(), entity.ImageRef{URL: tt.url})
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.url, err, tt.want)
		}
	}
}

func TestProcessBatchKeepsOrderAndIsolatesFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	p, o := newTestProcessor(t, m)

	refs := []entity.ImageRef{
		{URL: deadURL},
		{URL: placeURL},
		{URL: badOCR},
		{URL: eventURL},
		{Filename: "memo.png", Data: []byte(miscURL)},
	}
	results := p.ProcessBatch(context.Background(), refs)
	if len(results) != len(refs) {
		t.Fatalf("got %d results, want %d", len(results), len(refs))
	}
	for i, r := range results {
		if r.Ref.String() != refs[i].String() {
			t.Errorf("result %d is for %q, want %q", i, r.Ref.String(), refs[i].String())
		}
	}

	wantCategories := map[int]constants.CategoryID{
		1: constants.CategoryPlace,
		3: constants.CategoryEvent,
		4: constants.CategoryMiscellaneous,
	}
	for i, r := range results {
		cat, ok := wantCategories[i]
		if !ok {
			if r.Err == nil {
				t.Errorf("result %d: expected error", i)
			}
			continue
		}
		if r.Err != nil {
			t.Errorf("result %d: unexpected error %v", i, r.Err)
			continue
		}
		if r.Record.Category() != cat {
			t.Errorf("result %d: category %v, want %v", i, r.Record.Category(), cat)
		}
	}
	if got := results[4].Record.Photo(); got.Name != "memo.png" || got.URL != "" {
		t.Errorf("upload photo ref = %+v", got)
	}
	if n := o.calls.Load(); n != 4 {
		t.Errorf("ocr called %d times, want 4", n)
	}

	for stage, want := range map[string]float64{"acquire": 1, "ocr": 1} {
		if got := failureCount(t, reg, stage); got != want {
			t.Errorf("%s failures = %v, want %v", stage, got, want)
		}
	}
	if n, err := testutil.GatherAndCount(reg, "screenwiper_images_processed_total"); err != nil || n != 3 {
		t.Errorf("processed series = %d, err %v; want one per category", n, err)
	}
}

func failureCount(t *testing.T, reg *prometheus.Registry, stage string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range mfs {
		if mf.GetName() != "screenwiper_image_failures_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "stage" && l.GetValue() == stage {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestOCRStageUsesConfidenceWhenAvailable(t *testing.T) {
	c := &confOCR{fakeOCR{texts: map[string]string{"img": "hello"}}}
	text, conf, err := (&OCRStage{Recognizer: c}).Run(context.Background(), []byte("img"))
	if err != nil || text != "hello" || conf != 0.9 {
		t.Fatalf("got %q, %v, %v", text, conf, err)
	}
	_, conf, _ = (&OCRStage{Recognizer: &c.fakeOCR}).Run(context.Background(), []byte("img"))
	if conf != -1 {
		t.Errorf("plain recognizer confidence = %v, want -1", conf)
	}
}

func TestProcessBatchEmpty(t *testing.T) {
	p, _ := newTestProcessor(t, nil)
	if got := p.ProcessBatch(context.Background(), nil); len(got) != 0 {
		t.Fatalf("got %d results", len(got))
	}
}
