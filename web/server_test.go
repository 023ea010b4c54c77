package web

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"drivegate"
	"drivegate/acl"
	"drivegate/graph"
	"drivegate/password"
)

func testHash(t *testing.T, secret string) string {
	t.Helper()
	hash, err := password.Hash(secret, password.Params{
		MemoryKB:    8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return hash
}

type fakeItem struct {
	id       string
	name     string
	size     int64
	folder   bool
	mime     string
	parentID string
	content  string
}

func (fi fakeItem) json(parentPath string) map[string]any {
	item := map[string]any{
		"id":   fi.id,
		"name": fi.name,
		"size": fi.size,
		"lastModifiedDateTime": time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC),
		"parentReference": map[string]any{
			"id":   fi.parentID,
			"path": "/drive/root:" + parentPath,
		},
	}
	if fi.folder {
		item["folder"] = map[string]any{"childCount": 0}
	} else {
		item["file"] = map[string]any{"mimeType": fi.mime}
	}
	return item
}

// fakeDrive serves a two-level tree: /public/report.pdf and /readme.txt.
func fakeDrive(t *testing.T) *httptest.Server {
	t.Helper()

	root := fakeItem{id: "root-id", name: "root", folder: true}
	public := fakeItem{id: "pub-id", name: "public", folder: true, parentID: "root-id"}
	readme := fakeItem{id: "rd-id", name: "readme.txt", size: 5, mime: "text/plain", parentID: "root-id", content: "hello"}
	report := fakeItem{id: "rp-id", name: "report.pdf", size: 2048, mime: "application/pdf", parentID: "pub-id", content: strings.Repeat("x", 2048)}

	write := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}
	notFound := func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusNotFound)
		write(w, map[string]any{"error": map[string]any{"code": "itemNotFound"}})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/me/drive/root", func(w http.ResponseWriter, r *http.Request) {
		write(w, root.json(""))
	})
	mux.HandleFunc("/me/drive/root:/", func(w http.ResponseWriter, r *http.Request) {
		switch strings.TrimPrefix(r.URL.Path, "/me/drive/root:/") {
		case "public":
			write(w, public.json("/"))
		case "readme.txt":
			write(w, readme.json("/"))
		case "public/report.pdf":
			write(w, report.json("/public"))
		default:
			notFound(w)
		}
	})
	mux.HandleFunc("/me/drive/items/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/me/drive/items/")
		switch rest {
		case "pub-id/children":
			write(w, map[string]any{"value": []map[string]any{report.json("/public")}})
		case "root-id/children":
			write(w, map[string]any{"value": []map[string]any{public.json("/"), readme.json("/")}})
		case "rd-id/content":
			io.WriteString(w, readme.content)
		case "rp-id/content":
			w.Header().Set("Content-Type", report.mime)
			io.WriteString(w, report.content)
		default:
			notFound(w)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// newTestServer wires the front end to a fake drive. Everyone may browse
// /public; only alice may reach the rest of the tree.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	policy := acl.New()
	alice := policy.CreateUser("alice", testHash(t, "wonderland"))
	if _, err := policy.AddRule(acl.Allow, policy.Everyone(), `/public(/.*)?`); err != nil {
		t.Fatal(err)
	}
	if _, err := policy.AddRule(acl.Allow, alice, `.*`); err != nil {
		t.Fatal(err)
	}

	engine, err := drivegate.New().
		WithACL(policy).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	drive := fakeDrive(t)
	srv, err := NewServer(Options{
		Engine: engine,
		Drive:  graph.NewClient(drive.Client(), drive.URL),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func get(t *testing.T, s *Server, path string, configure func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if configure != nil {
		configure(req)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpointNeedsNoAuth(t *testing.T) {
	rec := get(t, newTestServer(t), "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAnonymousListingOfPublicFolder(t *testing.T) {
	rec := get(t, newTestServer(t), "/public", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "report.pdf") {
		t.Error("listing does not name the child file")
	}
	if !strings.Contains(body, "2.0 KiB") {
		t.Error("listing does not show the formatted size")
	}
	if !strings.Contains(body, "01-May-2024 12:30") {
		t.Error("listing does not show the formatted timestamp")
	}
}

func TestAnonymousDeniedGetsBasicChallenge(t *testing.T) {
	rec := get(t, newTestServer(t), "/readme.txt", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("WWW-Authenticate"); !strings.Contains(got, "Basic") {
		t.Errorf("WWW-Authenticate = %q", got)
	}
}

func TestBasicAuthDownloadSetsSession(t *testing.T) {
	rec := get(t, newTestServer(t), "/readme.txt", func(r *http.Request) {
		r.SetBasicAuth("alice", "wonderland")
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "hello" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "readme.txt") {
		t.Errorf("Content-Disposition = %q", got)
	}
	if !strings.Contains(rec.Header().Get("Set-Cookie"), SessionCookie) {
		t.Error("no session cookie issued after Basic verification")
	}
}

func TestWrongSecretStaysAnonymous(t *testing.T) {
	rec := get(t, newTestServer(t), "/readme.txt", func(r *http.Request) {
		r.SetBasicAuth("alice", "rabbit")
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want the anonymous challenge", rec.Code)
	}
}

func TestSessionCookieReplacesBasicAuth(t *testing.T) {
	s := newTestServer(t)
	front := httptest.NewServer(s.Handler())
	defer front.Close()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	client := &http.Client{Jar: jar}

	req, _ := http.NewRequest(http.MethodGet, front.URL+"/readme.txt", nil)
	req.SetBasicAuth("alice", "wonderland")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}

	// Second request rides the cookie alone.
	resp, err = client.Get(front.URL + "/readme.txt")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "hello" {
		t.Fatalf("cookie request: status = %d body = %q", resp.StatusCode, body)
	}

	// Logout invalidates the cookie for the next request.
	resp, err = client.Get(front.URL + "/logout")
	if err != nil {
		t.Fatal(err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	resp, err = client.Get(front.URL + "/readme.txt")
	if err != nil {
		t.Fatal(err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("post-logout status = %d, want 401", resp.StatusCode)
	}
}

func TestMissingFileRendersNotFound(t *testing.T) {
	rec := get(t, newTestServer(t), "/public/missing.pdf", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestNonGetRejected(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/public", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}
