package dictionary

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDictionary_LocalCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jmdict-test.json")
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	// The file exists, so nothing is downloaded.
	if err := EnsureDictionary(context.Background(), path); err != nil {
		t.Fatalf("EnsureDictionary failed with local file: %v", err)
	}
}

func tgz(t *testing.T, name string, body []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0644, Size: int64(len(body)), Typeflag: tar.TypeReg}); err != nil {
		t.Fatalf("tar header: %v", err)
	}
	if _, err := tw.Write(body); err != nil {
		t.Fatalf("tar write: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func TestDownloaderFetchesLatestRelease(t *testing.T) {
	archive := tgz(t, "jmdict-eng-common-3.6.1.json", []byte(dictContent))

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/scriptin/jmdict-simplified/releases/latest":
			if r.Header.Get("User-Agent") == "" {
				http.Error(w, "missing user agent", http.StatusForbidden)
				return
			}
			fmt.Fprintf(w, `{"assets":[{"name":"jmdict-eng-3.6.1.json.tgz","browser_download_url":"%[1]s/full.json.tgz"},{"name":"jmdict-eng-common-3.6.1.json.tgz","browser_download_url":"%[1]s/common.json.tgz"}]}`, srv.URL)
		case "/common.json.tgz":
			w.Write(archive)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "dict", "jmdict.json")
	d := &Downloader{Client: srv.Client(), APIBase: srv.URL}
	if err := d.Ensure(context.Background(), path); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	entries, err := LoadJMdictSimplified(path)
	if err != nil {
		t.Fatalf("load downloaded dictionary: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
}

func TestDownloaderNoAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"assets":[{"name":"kanjidic.json.tgz","browser_download_url":"x"}]}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "jmdict.json")
	d := &Downloader{Client: srv.Client(), APIBase: srv.URL}
	if err := d.Ensure(context.Background(), path); err == nil {
		t.Fatal("expected error when no asset matches")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no dictionary file, stat err = %v", err)
	}
}
