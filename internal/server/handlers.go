package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	lverrors "github.com/matzehuels/lineageview/pkg/errors"
	"github.com/matzehuels/lineageview/pkg/layout"
	"github.com/matzehuels/lineageview/pkg/lineage"
	"github.com/matzehuels/lineageview/pkg/pipeline"
	"github.com/matzehuels/lineageview/pkg/scene"
)

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatHTML: "text/html; charset=utf-8",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
}

// swapScript replaces the placeholder with the fetched scene and re-runs the
// scene's pan/zoom script, which innerHTML leaves inert.
const swapScript = `
(function () {
  var root = document.getElementById("lineage-root");
  fetch(%s)
    .then(function (r) {
      if (!r.ok) { throw new Error(r.status + " " + r.statusText); }
      return r.text();
    })
    .then(function (svg) {
      root.innerHTML = svg;
      root.querySelectorAll("script").forEach(function (old) {
        var s = document.createElement("script");
        s.textContent = old.textContent;
        old.replaceWith(s);
      });
    })
    .catch(function (err) {
      root.textContent = "Failed to load lineage: " + err.message;
    });
})();`

// =============================================================================
// Pages
// =============================================================================

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var body bytes.Buffer
	body.WriteString(`<ul class="lineage-index">` + "\n")
	for _, key := range s.store.Keys() {
		ds, _, ok := s.store.Get(key)
		if !ok {
			continue
		}
		fmt.Fprintf(&body, `  <li><a href="/lineage/%s">%s</a> (%d entities)</li>`+"\n",
			url.PathEscape(key), html.EscapeString(key), ds.Len())
	}
	body.WriteString("</ul>\n")

	w.Header().Set("Content-Type", contentTypes[pipeline.FormatHTML])
	scene.WritePage(w, "Lineage", body.Bytes())
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	key, err := keyParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, _, ok := s.store.Get(key); !ok {
		writeError(w, lverrors.New(lverrors.ErrCodeNotFound, "no dataset %q", key))
		return
	}

	src := "/lineage/" + url.PathEscape(key) + "/scene.svg"
	if r.URL.RawQuery != "" {
		src += "?" + r.URL.RawQuery
	}
	quoted, _ := json.Marshal(src)

	var body bytes.Buffer
	body.WriteString(`<div id="lineage-root">` + scene.Placeholder + "</div>\n")
	fmt.Fprintf(&body, "<script>%s\n</script>\n", fmt.Sprintf(swapScript, quoted))

	w.Header().Set("Content-Type", contentTypes[pipeline.FormatHTML])
	scene.WritePage(w, key, body.Bytes())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"datasets": s.store.Len(),
	})
}

// =============================================================================
// Stored datasets
// =============================================================================

func (s *Server) handleSceneSVG(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.mountScene(w, r)
	if !ok {
		return
	}
	opts, err := s.requestOptions(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	opts.Formats = []string{pipeline.FormatSVG}

	artifacts, err := s.runner.Render(r.Context(), sc, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeArtifact(w, pipeline.FormatSVG, artifacts[pipeline.FormatSVG])
}

func (s *Server) handleSceneJSON(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.mountScene(w, r)
	if !ok {
		return
	}
	data, err := pipeline.MarshalScene(sc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeArtifact(w, pipeline.FormatJSON, data)
}

// mountScene resolves the {key} dataset and mounts it on its view. It writes
// the error response itself and reports whether the handler may continue.
func (s *Server) mountScene(w http.ResponseWriter, r *http.Request) (*layout.Scene, bool) {
	key, err := keyParam(r)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	ds, view, ok := s.store.Get(key)
	if !ok {
		writeError(w, lverrors.New(lverrors.ErrCodeNotFound, "no dataset %q", key))
		return nil, false
	}
	sc, err := view.Mount(r.Context(), ds)
	if err != nil {
		writeError(w, lverrors.Wrap(lverrors.ErrCodeLayoutFailed, err, "layout %s", key))
		return nil, false
	}
	return sc, true
}

// =============================================================================
// API
// =============================================================================

func (s *Server) handleAPIScene(w http.ResponseWriter, r *http.Request) {
	ds, err := readDataset(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	opts, err := s.requestOptions(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	sc, err := s.runner.ComputeScene(r.Context(), ds, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := pipeline.MarshalScene(sc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeArtifact(w, pipeline.FormatJSON, data)
}

func (s *Server) handleAPIRender(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, err)
		return
	}
	ds, err := readDataset(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	opts, err := s.requestOptions(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	opts.Formats = []string{format}

	res, err := s.runner.Execute(r.Context(), ds, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeArtifact(w, format, res.Artifacts[format])
}

// =============================================================================
// Helpers
// =============================================================================

// requestOptions applies query parameters to the server's base options.
func (s *Server) requestOptions(q url.Values) (pipeline.Options, error) {
	opts := s.opts
	opts.Formats = nil
	opts.Selected = nil

	for _, v := range q["select"] {
		for _, key := range strings.Split(v, ",") {
			if key = strings.TrimSpace(key); key != "" {
				opts.Selected = append(opts.Selected, key)
			}
		}
	}
	if v := q.Get("root"); v != "" {
		opts.Root = v
	}
	if v := q.Get("title"); v != "" {
		opts.Title = v
	}

	floats := map[string]*float64{"width": &opts.Width, "height": &opts.Height, "scale": &opts.Scale}
	for name, dst := range floats {
		v := q.Get(name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, lverrors.New(lverrors.ErrCodeInvalidInput, "invalid %s: %q", name, v)
		}
		*dst = f
	}

	bools := map[string]*bool{"fit": &opts.Fit, "static": &opts.Static, "refresh": &opts.Refresh}
	for name, dst := range bools {
		v := q.Get(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, lverrors.New(lverrors.ErrCodeInvalidInput, "invalid %s: %q", name, v)
		}
		*dst = b
	}

	return opts, opts.ValidateForRender()
}

// keyParam returns the path-unescaped {key} URL parameter.
func keyParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "key")
	key, err := url.PathUnescape(raw)
	if err != nil {
		return "", lverrors.New(lverrors.ErrCodeInvalidInput, "malformed key %q", raw)
	}
	if err := lverrors.ValidateEntityKey(key); err != nil {
		return "", err
	}
	return key, nil
}

func readDataset(w http.ResponseWriter, r *http.Request) (*lineage.Dataset, error) {
	ds, err := lineage.ReadDataset(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, lverrors.Wrap(lverrors.ErrCodeInvalidDataset, err, "read dataset")
	}
	return ds, nil
}

func writeArtifact(w http.ResponseWriter, format string, data []byte) {
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, lverrors.HTTPStatus(err), map[string]string{
		"error": lverrors.UserMessage(err),
		"code":  string(lverrors.GetCode(err)),
	})
}
