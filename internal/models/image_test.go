package models

import (
	"testing"
	"time"
)

func TestParseImageSource(t *testing.T) {
	tests := []struct {
		raw     string
		want    ImageSource
		wantErr bool
	}{
		{raw: "", want: SourceLibrary},
		{raw: " CAMERA ", want: SourceCamera},
		{raw: "library", want: SourceLibrary},
		{raw: "scanner", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseImageSource(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%q: expected invalid source error", tt.raw)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("%q: expected %q, got %q (err: %v)", tt.raw, tt.want, got, err)
		}
	}
}

func TestImageRecordDigest(t *testing.T) {
	a := ImageRecord{Data: []byte("pixels")}
	b := ImageRecord{Data: []byte("pixels"), CreatedAt: time.Now()}
	c := ImageRecord{Data: []byte("pixelz")}

	if len(a.Digest()) != 64 {
		t.Fatalf("expected 64 hex chars, got %q", a.Digest())
	}
	if a.Digest() != b.Digest() {
		t.Fatal("digest must depend on data only")
	}
	if a.Digest() == c.Digest() {
		t.Fatal("expected different digests for different data")
	}
}

func TestImageRecordEqual(t *testing.T) {
	at := time.Date(2024, 2, 29, 23, 59, 59, 999999999, time.UTC)
	rec := ImageRecord{Data: []byte{1, 2, 3}, CreatedAt: at}

	if !rec.Equal(ImageRecord{Data: []byte{1, 2, 3}, CreatedAt: at.In(time.FixedZone("X", -7200))}) {
		t.Fatal("expected same instant in another zone to be equal")
	}
	if rec.Equal(ImageRecord{Data: []byte{1, 2, 3}, CreatedAt: at.Add(time.Nanosecond)}) {
		t.Fatal("expected nanosecond difference to matter")
	}
	if rec.Equal(ImageRecord{Data: []byte{1, 2}, CreatedAt: at}) {
		t.Fatal("expected data difference to matter")
	}
}

func TestImageRecordMediaType(t *testing.T) {
	jpeg := ImageRecord{Data: []byte("\xff\xd8\xff\xe0\x00\x10JFIF")}
	if got := jpeg.MediaType(); got != "image/jpeg" {
		t.Fatalf("expected image/jpeg, got %q", got)
	}
}
