package server

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"gcode-toolpath/pkg/engine"
	"gcode-toolpath/pkg/errors"
	"gcode-toolpath/pkg/report"
	"gcode-toolpath/pkg/templates"
)

// readText reads the G-code of a request. JSON bodies carry it in "text";
// anything else is taken as the file itself, named by ?name=.
func readText(r *http.Request) (textParams, error) {
	p := textParams{Name: r.URL.Query().Get("name"), Format: r.URL.Query().Get("format")}
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		var body textParams
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return p, errors.Wrap(err, errors.ErrServiceRequest, "invalid request body")
		}
		if body.Name != "" {
			p.Name = body.Name
		}
		if body.Format != "" {
			p.Format = body.Format
		}
		p.Text = body.Text
		return p, nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return p, errors.Wrap(err, errors.ErrServiceRequest, "unable to read request body")
	}
	p.Text = string(data)
	return p, nil
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	p, err := readText(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResult(w, s.engine.Analyze(p.Text))
}

func (s *Server) handleMutate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req engine.MutateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(err, errors.ErrServiceRequest, "invalid request body"))
		return
	}

	res, err := s.engine.Mutate(req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResult(w, newMutateResponse(res))
}

// handleReport answers with the rendered report itself, not a JSON
// envelope, so a browser can open it directly.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	p, err := readText(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	body, ct, err := s.engine.Report(p.Text, p.Format, report.Source{Name: p.Name})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, body); err != nil {
		s.logger.WithError(err).Warn("unable to write report")
	}
}

func (s *Server) handlePrinters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeResult(w, map[string]any{"printers": s.printers()})
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.engine.ListTemplates()
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeResult(w, map[string]any{"templates": nonNil(list)})

	case http.MethodPost:
		var t templates.Template
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			s.writeError(w, errors.Wrap(err, errors.ErrServiceRequest, "invalid template"))
			return
		}
		stored, err := s.engine.PutTemplate(t)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.broadcast("notify_templates_changed", map[string]any{"action": "put", "id": stored.ID})
		s.writeResult(w, stored)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleTemplate serves /api/templates/{id}.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/templates/"), "/")
	if id == "" {
		s.handleTemplates(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		t, err := s.engine.GetTemplate(id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeResult(w, t)

	case http.MethodDelete:
		if err := s.engine.DeleteTemplate(id); err != nil {
			s.writeError(w, err)
			return
		}
		s.broadcast("notify_templates_changed", map[string]any{"action": "delete", "id": id})
		s.writeResult(w, map[string]any{"deleted": id})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
