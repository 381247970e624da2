// Package mockestat serves the two e-Stat surfaces the fetchers use, the code
// list download and the per-class example pages, from in-memory fixtures.
package mockestat

import (
	"fmt"
	"html"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/text/encoding/japanese"
)

// Call records a request made to the mock service.
type Call struct {
	Method string
	Path   string
	Query  string
}

// Example is the content of one example page. Nil fields omit the row.
type Example struct {
	Example           *string
	UnsuitableExample *string
}

type key struct {
	classificationType string
	revision           string
}

type failure struct {
	status    int
	remaining int
}

// Server implements a minimal "e-Stat-like" classification surface.
type Server struct {
	mu       sync.Mutex
	calls    []Call
	masters  map[key][]byte
	examples map[key]map[string]Example
	failures map[string]*failure

	// pages are example pages loaded verbatim by LoadDir.
	pages map[string]string
}

// New constructs an empty mock server.
func New() *Server {
	return &Server{
		masters:  make(map[key][]byte),
		examples: make(map[key]map[string]Example),
		failures: make(map[string]*failure),
		pages:    make(map[string]string),
	}
}

// SetMaster registers the UTF-8 code list download for one revision,
// including its three preamble lines.
func (s *Server) SetMaster(classificationType, revision string, csv []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.masters[key{classificationType, revision}] = csv
}

// SetExample registers the example page of one class code.
func (s *Server) SetExample(classificationType, revision, code string, ex Example) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{classificationType, revision}
	if s.examples[k] == nil {
		s.examples[k] = make(map[string]Example)
	}
	s.examples[k][code] = ex
}

// FailExample makes the next times requests for code answer with status.
func (s *Server) FailExample(code string, status, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[code] = &failure{status: status, remaining: times}
}

// LoadDir registers fixtures laid out as
// <dir>/<type>/<revision>/master.csv and
// <dir>/<type>/<revision>/examples/<code>.html. Example pages are served as-is.
func (s *Server) LoadDir(dir string) error {
	masters, err := filepath.Glob(filepath.Join(dir, "*", "*", "master.csv"))
	if err != nil {
		return err
	}
	if len(masters) == 0 {
		return fmt.Errorf("no */*/master.csv fixtures under %s", dir)
	}
	for _, path := range masters {
		revDir := filepath.Dir(path)
		rev := filepath.Base(revDir)
		typ := filepath.Base(filepath.Dir(revDir))
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		s.SetMaster(typ, rev, b)

		pages, err := filepath.Glob(filepath.Join(revDir, "examples", "*.html"))
		if err != nil {
			return err
		}
		for _, page := range pages {
			b, err := os.ReadFile(page)
			if err != nil {
				return err
			}
			code := strings.TrimSuffix(filepath.Base(page), ".html")
			s.setRawExample(typ, rev, code, string(b))
		}
	}
	return nil
}

// Handler returns an http.Handler that serves the mock API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /term/download", s.handleDownload)
	mux.HandleFunc("GET /classifications/terms/{type}/{revision}/{code}", s.handleExample)
	return mux
}

// Calls returns a snapshot of calls made to the server.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *Server) recordCall(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	s.recordCall(r)
	q := r.URL.Query()
	k := key{q.Get("bKbn"), q.Get("kaiteiCode")}

	s.mu.Lock()
	body, ok := s.masters[k]
	s.mu.Unlock()
	if !ok {
		// e-Stat answers unknown revisions with an empty 200.
		w.Header().Set("Content-Type", "text/csv")
		return
	}

	charset := q.Get("charset")
	if strings.EqualFold(charset, "Shift_JIS") {
		encoded, err := japanese.ShiftJIS.NewEncoder().Bytes(body)
		if err != nil {
			http.Error(w, "encode shift_jis", http.StatusInternalServerError)
			return
		}
		body = encoded
	} else {
		charset = "UTF-8"
	}
	w.Header().Set("Content-Type", "text/csv; charset="+charset)
	_, _ = w.Write(body)
}

func (s *Server) handleExample(w http.ResponseWriter, r *http.Request) {
	s.recordCall(r)
	k := key{r.PathValue("type"), r.PathValue("revision")}
	code := r.PathValue("code")

	s.mu.Lock()
	if f, ok := s.failures[code]; ok && f.remaining > 0 {
		f.remaining--
		s.mu.Unlock()
		http.Error(w, http.StatusText(f.status), f.status)
		return
	}
	ex, ok := s.examples[k][code]
	raw, rawOK := s.pages[pageKey(k, code)]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	switch {
	case rawOK:
		_, _ = w.Write([]byte(raw))
	case ok:
		_, _ = w.Write([]byte(renderExample(code, ex)))
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) setRawExample(typ, rev, code, page string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[pageKey(key{typ, rev}, code)] = page
}

func pageKey(k key, code string) string {
	return k.classificationType + "/" + k.revision + "/" + code
}

func renderExample(code string, ex Example) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><title>")
	b.WriteString(html.EscapeString(code))
	b.WriteString("</title></head><body>\n<table class=\"classification-detail\">\n")
	row := func(heading, value string) {
		fmt.Fprintf(&b, "  <tr><th>%s</th><td>%s</td></tr>\n", html.EscapeString(heading), html.EscapeString(value))
	}
	row("分類コード", code)
	if ex.Example != nil {
		row("事例", *ex.Example)
	}
	if ex.UnsuitableExample != nil {
		row("不適合事例", *ex.UnsuitableExample)
	}
	b.WriteString("</table>\n</body></html>\n")
	return b.String()
}
