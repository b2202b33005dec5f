package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
)

func TestMaterializeBodyRandom(t *testing.T) {
	body, err := MaterializeBody("random://16")
	if err != nil {
		t.Fatalf("MaterializeBody: %v", err)
	}
	if len(body) != 16 {
		t.Fatalf("len(body) = %d, want 16", len(body))
	}
}

func TestMaterializeBodyBase64(t *testing.T) {
	want := []byte("hello, perfgauge")
	spec := "base64://" + base64.StdEncoding.EncodeToString(want)

	body, err := MaterializeBody(spec)
	if err != nil {
		t.Fatalf("MaterializeBody: %v", err)
	}
	if string(body) != string(want) {
		t.Fatalf("body = %q, want %q", body, want)
	}
}

func TestMaterializeBodyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "body.bin")
	want := []byte("payload from disk")
	if err := os.WriteFile(path, want, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	body, err := MaterializeBody("file://" + path)
	if err != nil {
		t.Fatalf("MaterializeBody: %v", err)
	}
	if string(body) != string(want) {
		t.Fatalf("body = %q, want %q", body, want)
	}
}

func TestMaterializeBodyEmpty(t *testing.T) {
	body, err := MaterializeBody("")
	if err != nil {
		t.Fatalf("MaterializeBody: %v", err)
	}
	if body != nil {
		t.Fatalf("body = %v, want nil", body)
	}
}

func TestMaterializeBodyInvalidRandomSize(t *testing.T) {
	if _, err := MaterializeBody("random://not-a-number"); err == nil {
		t.Fatal("expected an error for a non-numeric random:// size")
	}
}
