package server

import (
	"encoding/json"
	"net/http"
	"time"

	"gcode-toolpath/pkg/eject"
	"gcode-toolpath/pkg/engine"
	"gcode-toolpath/pkg/errors"
	"gcode-toolpath/pkg/mutate"
	"gcode-toolpath/pkg/report"
	"gcode-toolpath/pkg/templates"
)

// JSON-RPC 2.0 structures

type jsonRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

type jsonRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	Result  any           `json:"result,omitempty"`
	Error   *jsonRPCError `json:"error,omitempty"`
	ID      any           `json:"id,omitempty"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

const (
	rpcParseError     = -32700
	rpcMethodNotFound = -32601
	rpcInvalidParams  = -32602
	rpcServerError    = -32000
)

// Request and response bodies shared by REST and JSON-RPC.

type textParams struct {
	Text   string `json:"text"`
	Name   string `json:"name,omitempty"`
	Format string `json:"format,omitempty"`
}

type idParams struct {
	ID string `json:"id"`
}

type mutateResponse struct {
	*mutate.Result
	Applied int `json:"applied"`
}

func newMutateResponse(res *mutate.Result) mutateResponse {
	return mutateResponse{Result: res, Applied: res.Applied()}
}

type reportResponse struct {
	Body        string `json:"body"`
	ContentType string `json:"contentType"`
}

// decodeParams unmarshals params into v; absent params leave v zero.
func decodeParams(params json.RawMessage, v any) *jsonRPCError {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return &jsonRPCError{Code: rpcInvalidParams, Message: "invalid params: " + err.Error()}
	}
	return nil
}

func engineError(err error) *jsonRPCError {
	return &jsonRPCError{
		Code:    rpcServerError,
		Message: err.Error(),
		Data:    map[string]any{"code": string(errors.CodeOf(err))},
	}
}

// dispatchMethod routes a method call to the appropriate handler.
func (s *Server) dispatchMethod(method string, params json.RawMessage) (any, *jsonRPCError) {
	start := time.Now()
	result, rpcErr := s.callMethod(method, params)
	status := http.StatusOK
	if rpcErr != nil {
		status = http.StatusBadRequest
	}
	s.engine.Metrics().ObserveRequest(method, status, time.Since(start))
	return result, rpcErr
}

func (s *Server) callMethod(method string, params json.RawMessage) (any, *jsonRPCError) {
	switch method {
	case "server.info":
		return s.methodServerInfo(), nil

	case "toolpath.analyze":
		var p textParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return s.engine.Analyze(p.Text), nil

	case "toolpath.mutate":
		var req engine.MutateRequest
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		res, err := s.engine.Mutate(req)
		if err != nil {
			return nil, engineError(err)
		}
		return newMutateResponse(res), nil

	case "toolpath.report":
		var p textParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		body, ct, err := s.engine.Report(p.Text, p.Format, report.Source{Name: p.Name})
		if err != nil {
			return nil, engineError(err)
		}
		return reportResponse{Body: body, ContentType: ct}, nil

	case "templates.list":
		list, err := s.engine.ListTemplates()
		if err != nil {
			return nil, engineError(err)
		}
		return map[string]any{"templates": nonNil(list)}, nil

	case "templates.get":
		var p idParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		t, err := s.engine.GetTemplate(p.ID)
		if err != nil {
			return nil, engineError(err)
		}
		return t, nil

	case "printers.list":
		return map[string]any{"printers": s.printers()}, nil
	}
	return nil, &jsonRPCError{Code: rpcMethodNotFound, Message: "method not found: " + method}
}

func nonNil(list []templates.Template) []templates.Template {
	if list == nil {
		return []templates.Template{}
	}
	return list
}

func (s *Server) methodServerInfo() map[string]any {
	s.sessionsMu.RLock()
	wsCount := len(s.sessions)
	s.sessionsMu.RUnlock()

	return map[string]any{
		"version":         Version,
		"running":         s.running.Load(),
		"uptime":          time.Since(s.startTime).Seconds(),
		"websocket_count": wsCount,
		"templates":       s.engine.Templates() != nil,
		"methods": []string{
			"server.info", "toolpath.analyze", "toolpath.mutate", "toolpath.report",
			"templates.list", "templates.get", "printers.list",
		},
	}
}

// printers returns the known printer profiles by name.
func (s *Server) printers() []eject.Profile {
	settings := s.engine.Settings()
	names := settings.ProfileNames()
	out := make([]eject.Profile, 0, len(names))
	for _, name := range names {
		out = append(out, settings.Profiles[name])
	}
	return out
}

// handleJSONRPC handles JSON-RPC 2.0 requests over plain HTTP.
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req jsonRPCRequest
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusOK, jsonRPCResponse{
			JSONRPC: "2.0",
			Error:   &jsonRPCError{Code: rpcParseError, Message: "Parse error"},
		})
		return
	}

	result, rpcErr := s.dispatchMethod(req.Method, req.Params)
	s.writeJSON(w, http.StatusOK, jsonRPCResponse{
		JSONRPC: "2.0",
		Result:  result,
		Error:   rpcErr,
		ID:      req.ID,
	})
}
