package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Kush-Singh-26/aksara/builder/models"
	"github.com/Kush-Singh-26/aksara/builder/services"
)

type transliterateRequest struct {
	Text      string `json:"text"`
	Variant   string `json:"variant"`
	Direction string `json:"direction"`
	Stem      bool   `json:"stem"`
}

type stemRequest struct {
	Word    string `json:"word"`
	Variant string `json:"variant"`
}

type imeRequest struct {
	Text    string `json:"text"`
	Variant string `json:"variant"`
}

type resultResponse struct {
	Result    string           `json:"result"`
	Variant   models.Variant   `json:"variant"`
	Direction models.Direction `json:"direction,omitempty"`
}

type healthResponse struct {
	Status string `json:"status"`
	services.EngineInfo
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decode reads a JSON body of at most MaxRequestBytes. It writes the error
// response itself and reports whether the handler should continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

// variant normalizes a requested variant; empty selects the configured
// default.
func (s *Server) variant(w http.ResponseWriter, name string) (models.Variant, bool) {
	if name == "" {
		return s.cfg.DefaultVariant, true
	}
	v, err := models.ParseVariant(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return v, true
}

func (s *Server) engineError(w http.ResponseWriter, err error) {
	if errors.Is(err, models.ErrUnknownVariant) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Error("Engine failure", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) handleTransliterate(w http.ResponseWriter, r *http.Request) {
	var req transliterateRequest
	if !s.decode(w, r, &req) {
		return
	}
	v, ok := s.variant(w, req.Variant)
	if !ok {
		return
	}
	d, err := models.ParseDirection(req.Direction)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.Engine().Transliterate(req.Text, v, d, req.Stem)
	if err != nil {
		s.engineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{Result: out, Variant: v, Direction: d})
}

func (s *Server) handleStem(w http.ResponseWriter, r *http.Request) {
	var req stemRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Word == "" {
		writeError(w, http.StatusBadRequest, "word is required")
		return
	}
	v, ok := s.variant(w, req.Variant)
	if !ok {
		return
	}

	res, err := s.Engine().Stem(req.Word, v)
	if err != nil {
		s.engineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleIME(w http.ResponseWriter, r *http.Request) {
	var req imeRequest
	if !s.decode(w, r, &req) {
		return
	}
	v, ok := s.variant(w, req.Variant)
	if !ok {
		return
	}

	out, err := s.Engine().InputEdit(req.Text, v)
	if err != nil {
		s.engineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{Result: out, Variant: v})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", EngineInfo: s.Engine().Info()})
}
