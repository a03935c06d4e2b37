package asset

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestLocalResource(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	res, err := NewResource(thisFile, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	if res.IsRemote() {
		t.Fatal("expected local file not to be remote")
	}
	if res.Name() != "resource_test.go" || res.Ext() != ".go" {
		t.Fatalf("expected name resource_test.go with ext .go; got %s, %s", res.Name(), res.Ext())
	}

	ra, size, err := res.ReaderAt()
	if err != nil {
		t.Fatal(err)
	}
	info, _ := os.Stat(thisFile)
	if size != info.Size() || ra == nil {
		t.Fatalf("expected reader for %d bytes; got %d", info.Size(), size)
	}
}

func TestHttpResource(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	thisDir := filepath.Dir(thisFile)

	server := httptest.NewServer(http.FileServer(http.Dir(thisDir)))
	defer server.Close()

	fetchUrl := server.URL + "/" + filepath.Base(thisFile)
	res, err := NewResource(fetchUrl, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()
	if !res.IsRemote() || res.Name() != filepath.Base(thisFile) {
		t.Fatalf("expected remote resource named %s; got %s", filepath.Base(thisFile), res.Name())
	}

	fetchUrl = server.URL + "/file-not-found.foo"
	expError := fmt.Sprintf("resource: could not fetch '%s': status %d", fetchUrl, 404)
	_, err = NewResource(fetchUrl, nil)
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get: %s; got %v", expError, err)
	}
}

func TestRelativeResources(t *testing.T) {
	var paths []string
	serverFn := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/foo/scene.obj", "/foo/scene.mtl":
			w.Write([]byte("OK"))
		default:
			http.NotFound(w, r)
		}
	})
	server := httptest.NewServer(serverFn)
	defer server.Close()

	res1, err := NewResource(server.URL+"/foo/scene.obj", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res1.Close()
	res2, err := NewResource("scene.mtl", res1)
	if err != nil {
		t.Fatal(err)
	}
	defer res2.Close()

	if len(paths) != 2 || paths[1] != "/foo/scene.mtl" {
		t.Fatalf("expected server to receive requests for the scene and its material library; got %v", paths)
	}
}

func TestRelativeLocalResource(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "lib.mtl"), []byte("newmtl foo\n"), 0644); err != nil {
		t.Fatal(err)
	}

	parent := NewResourceFromStream(filepath.Join(dir, "scene.obj"), strings.NewReader(""))
	res, err := NewResource("lib.mtl", parent)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	data, err := io.ReadAll(res)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "newmtl foo\n" {
		t.Fatalf("expected to read material library contents; got %q", data)
	}
}

func TestUnsupportedResourceScheme(t *testing.T) {
	expError := "resource: unsupported scheme 'gopher'"
	_, err := NewResource("gopher://digging.go", nil)
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get: %s; got %v", expError, err)
	}
}

func TestResourceConnectionRefusedError(t *testing.T) {
	_, err := NewResource("http://localhost:12345/foo.go", nil)
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected to get 'connection refused error'; got %v", err)
	}
}

func mockResource(name, payload string) *Resource {
	return NewResourceFromStream(name, strings.NewReader(payload))
}
