package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func itemJSON(name, id, parentPath string, folder bool) map[string]any {
	item := map[string]any{
		"name":                 name,
		"id":                   id,
		"size":                 1024,
		"createdDateTime":      "2025-03-01T10:00:00Z",
		"lastModifiedDateTime": "2025-03-02T11:30:00Z",
		"parentReference":      map[string]any{"id": "parent-1", "path": parentPath},
	}
	if folder {
		item["folder"] = map[string]any{"childCount": 2}
	} else {
		item["file"] = map[string]any{"mimeType": "application/pdf"}
	}
	return item
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.Client(), srv.URL)
}

func TestGetFileByPath(t *testing.T) {
	var gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(itemJSON("report.pdf", "item-1", "/drive/root:/public", false))
	}))

	f, err := c.GetFileByPath(context.Background(), "/public/report.pdf")
	if err != nil {
		t.Fatalf("GetFileByPath: %v", err)
	}
	if gotPath != "/me/drive/root:/public/report.pdf" {
		t.Errorf("request path = %q", gotPath)
	}
	if f.Path != "/public/report.pdf" {
		t.Errorf("Path = %q, want drive prefix stripped", f.Path)
	}
	if f.IsFolder {
		t.Error("file flagged as folder")
	}
	if f.MIMEType != "application/pdf" {
		t.Errorf("MIMEType = %q", f.MIMEType)
	}
	if f.Size != 1024 || f.ParentID != "parent-1" {
		t.Errorf("Size/ParentID = %d/%q", f.Size, f.ParentID)
	}
	wantMod := time.Date(2025, 3, 2, 11, 30, 0, 0, time.UTC)
	if !f.ModifiedAt.Equal(wantMod) {
		t.Errorf("ModifiedAt = %v, want %v", f.ModifiedAt, wantMod)
	}
}

func TestGetFileByPathEscapesSegments(t *testing.T) {
	var gotRequestURI string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestURI = r.RequestURI
		json.NewEncoder(w).Encode(itemJSON("a b.pdf", "item-1", "/drive/root:", false))
	}))

	if _, err := c.GetFileByPath(context.Background(), "/docs/a b.pdf"); err != nil {
		t.Fatalf("GetFileByPath: %v", err)
	}
	if gotRequestURI != "/me/drive/root:/docs/a%20b.pdf" {
		t.Errorf("request URI = %q", gotRequestURI)
	}
}

func TestGetFileByPathRootFallback(t *testing.T) {
	var gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(itemJSON("root", "root-id", "", true))
	}))

	f, err := c.GetFileByPath(context.Background(), "/")
	if err != nil {
		t.Fatalf("GetFileByPath(/): %v", err)
	}
	if gotPath != "/me/drive/root" {
		t.Errorf("request path = %q, want the root endpoint", gotPath)
	}
	if !f.IsFolder {
		t.Error("root must be a folder")
	}
}

func TestGetChildrenPagination(t *testing.T) {
	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/me/drive/items/folder-1/children", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"value":           []any{itemJSON("a.pdf", "id-a", "/drive/root:/docs", false)},
			"@odata.nextLink": srvURL + "/page2",
		})
	})
	mux.HandleFunc("/page2", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"value": []any{itemJSON("b", "id-b", "/drive/root:/docs", true)},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	srvURL = srv.URL

	c := NewClient(srv.Client(), srv.URL)
	files, err := c.GetChildren(context.Background(), "folder-1")
	if err != nil {
		t.Fatalf("GetChildren: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2 across pages", len(files))
	}
	if files[0].Path != "/docs/a.pdf" || files[1].Path != "/docs/b" {
		t.Errorf("paths = %q, %q", files[0].Path, files[1].Path)
	}
	if !files[1].IsFolder {
		t.Error("second item must be a folder")
	}
	if files[1].MIMEType != "" {
		t.Errorf("folder MIMEType = %q, want empty", files[1].MIMEType)
	}
}

func TestGetChildrenRootAlias(t *testing.T) {
	for _, id := range []string{"", "root"} {
		var gotPath string
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			json.NewEncoder(w).Encode(map[string]any{"value": []any{}})
		}))
		if _, err := c.GetChildren(context.Background(), id); err != nil {
			t.Fatalf("GetChildren(%q): %v", id, err)
		}
		if gotPath != "/me/drive/root/children" {
			t.Errorf("GetChildren(%q) hit %q", id, gotPath)
		}
	}
}

func TestMIMETypeDefault(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		item := itemJSON("blob.bin", "id-1", "/drive/root:", false)
		item["file"] = map[string]any{} // no mimeType declared
		json.NewEncoder(w).Encode(item)
	}))

	f, err := c.GetFileByID(context.Background(), "id-1")
	if err != nil {
		t.Fatalf("GetFileByID: %v", err)
	}
	if f.MIMEType != DefaultMIMEType {
		t.Errorf("MIMEType = %q, want %q", f.MIMEType, DefaultMIMEType)
	}
}

func TestGetContent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me/drive/items/id-1/content", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "file-bytes")
	})
	c := newTestClient(t, mux)

	body, size, err := c.GetContent(context.Background(), "id-1")
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	defer body.Close()
	data, _ := io.ReadAll(body)
	if string(data) != "file-bytes" {
		t.Errorf("content = %q", data)
	}
	if size != int64(len("file-bytes")) {
		t.Errorf("size = %d", size)
	}
}

func TestNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"code":"itemNotFound","message":"not found"}}`)
	}))

	if _, err := c.GetFileByPath(context.Background(), "/missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAPIError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error":{"code":"serviceNotAvailable","message":"try later"}}`)
	}))

	_, err := c.GetRoot(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable || apiErr.Code != "serviceNotAvailable" {
		t.Errorf("APIError = %+v", apiErr)
	}
}
