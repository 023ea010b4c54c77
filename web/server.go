// Package web serves the access-controlled directory listings and file
// downloads for a remote drive. Authorization is delegated to the engine;
// content comes from the drive client.
package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"

	"drivegate"
	"drivegate/acl"
	"drivegate/graph"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Options configures a Server.
type Options struct {
	Engine *drivegate.Engine
	// Drive overrides the engine's drive client. Required when the engine
	// was built without credentials.
	Drive *graph.Client
	Logger *slog.Logger
	// SessionSecret signs browser session cookies. Empty means a random
	// per-process secret.
	SessionSecret []byte
	SessionTTL    time.Duration
	Realm         string
}

// Server is the HTTP front end.
type Server struct {
	engine   *drivegate.Engine
	drive    *graph.Client
	logger   *slog.Logger
	sessions *sessions
	realm    string
	router   *gin.Engine
}

// NewServer builds the front end and its routes.
func NewServer(opts Options) (*Server, error) {
	if opts.Engine == nil {
		return nil, errors.New("web: engine is required")
	}
	drive := opts.Drive
	if drive == nil {
		drive = opts.Engine.Drive()
	}
	if drive == nil {
		return nil, errors.New("web: drive client is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	realm := opts.Realm
	if realm == "" {
		realm = "drivegate"
	}
	sess, err := newSessions(opts.SessionSecret, opts.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("web: session setup: %w", err)
	}

	s := &Server{
		engine:   opts.Engine,
		drive:    drive,
		logger:   logger,
		sessions: sess,
		realm:    realm,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestID(), sloggin.New(logger), gin.Recovery())

	tmpl := template.Must(template.New("").ParseFS(templateFS, "templates/*.tmpl"))
	router.SetHTMLTemplate(tmpl)

	router.GET("/healthz", s.handleHealth)
	router.GET("/logout", s.handleLogout)
	// Everything else is a drive path; a catch-all route would clash with
	// the fixed ones above.
	router.NoRoute(s.authenticate(), s.handleBrowse)

	s.router = router
	return s, nil
}

// Handler exposes the router for an http.Server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleLogout(c *gin.Context) {
	s.clearSession(c)
	c.Redirect(http.StatusFound, "/")
}

func (s *Server) handleBrowse(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.Header("Allow", "GET, HEAD")
		s.renderError(c, http.StatusMethodNotAllowed, "Only GET is supported.")
		return
	}

	// "/public/" and "/public" are the same folder.
	path := acl.NormalizePath(strings.TrimRight(c.Request.URL.Path, "/"))
	principal := currentPrincipal(c)
	if principal == nil {
		principal = s.engine.Anonymous()
	}
	if !s.engine.CanAccess(principal, path) {
		s.challenge(c, principal)
		return
	}

	ctx := c.Request.Context()
	file, err := s.drive.GetFileByPath(ctx, path)
	if err != nil {
		s.renderDriveError(c, path, err)
		return
	}

	if file.IsFolder {
		s.renderListing(c, path, principal, file)
		return
	}
	s.sendFile(c, file)
}

type listingEntry struct {
	Name     string
	Href     string
	IsFolder bool
	Size     string
	Modified string
}

func (s *Server) renderListing(c *gin.Context, path string, principal acl.Principal, folder *graph.File) {
	children, err := s.drive.GetChildren(c.Request.Context(), folder.ID)
	if err != nil {
		s.renderDriveError(c, path, err)
		return
	}

	// Folders first, then case-insensitive by name.
	sort.SliceStable(children, func(i, j int) bool {
		if children[i].IsFolder != children[j].IsFolder {
			return children[i].IsFolder
		}
		return strings.ToLower(children[i].Name) < strings.ToLower(children[j].Name)
	})

	entries := make([]listingEntry, 0, len(children))
	for _, child := range children {
		entry := listingEntry{
			Name:     child.Name,
			Href:     pathHref(joinPath(path, child.Name)),
			IsFolder: child.IsFolder,
			Modified: HumanTime(child.ModifiedAt),
		}
		if !child.IsFolder {
			entry.Size = HumanSize(child.Size)
		}
		entries = append(entries, entry)
	}

	user := ""
	if u, ok := principal.(*acl.User); ok {
		user = u.Name()
	}

	c.HTML(http.StatusOK, "listing.html.tmpl", gin.H{
		"Path":      path,
		"HasParent": path != "/",
		"Parent":    pathHref(parentPath(path)),
		"Entries":   entries,
		"User":      user,
	})
}

func (s *Server) sendFile(c *gin.Context, file *graph.File) {
	body, size, err := s.drive.GetContent(c.Request.Context(), file.ID)
	if err != nil {
		s.renderDriveError(c, file.Path, err)
		return
	}
	defer body.Close()

	disposition := fmt.Sprintf("inline; filename=%q", file.Name)
	if c.Request.Method == http.MethodHead {
		c.Header("Content-Type", file.MIMEType)
		c.Header("Content-Disposition", disposition)
		if size >= 0 {
			c.Header("Content-Length", fmt.Sprintf("%d", size))
		}
		c.Status(http.StatusOK)
		return
	}
	c.DataFromReader(http.StatusOK, size, file.MIMEType, body, map[string]string{
		"Content-Disposition": disposition,
	})
}

func (s *Server) renderDriveError(c *gin.Context, path string, err error) {
	if errors.Is(err, graph.ErrNotFound) {
		s.renderError(c, http.StatusNotFound, "No such file or folder: "+path)
		return
	}
	s.logger.Error("drive request failed", "path", path, "error", err)
	s.renderError(c, http.StatusBadGateway, "The remote drive did not answer.")
}

func (s *Server) renderError(c *gin.Context, status int, message string) {
	c.HTML(status, "error.html.tmpl", gin.H{
		"Status":     status,
		"StatusText": http.StatusText(status),
		"Message":    message,
	})
	c.Abort()
}

func joinPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

func parentPath(path string) string {
	if i := strings.LastIndex(path, "/"); i > 0 {
		return path[:i]
	}
	return "/"
}

func pathHref(path string) string {
	return (&url.URL{Path: path}).EscapedPath()
}
