package entity

import (
	"encoding/json"
	"path"
	"strings"
)

// ImageRef points at one screenshot to analyze: a URL (http, https, s3, file)
// or an uploaded blob carried inline in Data.
type ImageRef struct {
	URL      string
	Filename string
	Data     []byte
}

// IsUpload reports whether the image bytes were supplied by the caller.
func (r ImageRef) IsUpload() bool { return r.Data != nil }

// String is the reference reported back in error entries and logs.
func (r ImageRef) String() string {
	if r.URL != "" {
		return r.URL
	}
	return r.Filename
}

// PhotoRef derives the record's photo fields from the reference.
func (r ImageRef) PhotoRef() PhotoRef {
	name := r.Filename
	if name == "" && r.URL != "" {
		u := r.URL
		if i := strings.IndexAny(u, "?#"); i >= 0 {
			u = u[:i]
		}
		name = path.Base(u)
	}
	return PhotoRef{Name: name, URL: r.URL}
}

// ImageResult is the per-image outcome of a batch: exactly one of Record or Err is set.
type ImageResult struct {
	Ref    ImageRef
	Record Record
	Err    error
}

// MarshalJSON renders a success as the record itself and a failure as
// {"imageUrl"|"filename": ref, "error": message}.
func (r ImageResult) MarshalJSON() ([]byte, error) {
	if r.Err == nil {
		return json.Marshal(r.Record)
	}
	out := map[string]string{"error": r.Err.Error()}
	if r.Ref.URL != "" {
		out["imageUrl"] = r.Ref.URL
	} else {
		out["filename"] = r.Ref.Filename
	}
	return json.Marshal(out)
}
