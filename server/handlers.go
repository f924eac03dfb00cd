package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/veilchat/zkregistry/loaders"
	"github.com/veilchat/zkregistry/registry"
)

type registerRequest struct {
	Commitment string `json:"commitment"`
}

type verifyRequest struct {
	Circuit       string          `json:"circuit,omitempty"`
	Proof         json.RawMessage `json:"proof"`
	PublicSignals json.RawMessage `json:"public_signals"`
}

type verifyResponse struct {
	Valid bool `json:"valid"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.Wrap(err, "decode request"))
		return
	}

	res, err := s.reg.RegisterIdentity(r.Context(), req.Commitment)
	if err != nil {
		s.writeClassified(w, err)
		return
	}
	s.roots.Delete(rootCacheKey)
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleMembershipPath(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("leaf index must be a non-negative integer"))
		return
	}

	path, err := s.reg.MembershipPath(index)
	if err != nil {
		s.writeClassified(w, err)
		return
	}
	writeJSON(w, http.StatusOK, path)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	if info, ok := s.roots.Get(rootCacheKey); ok {
		writeJSON(w, http.StatusOK, info)
		return
	}
	info := s.reg.CurrentRoot()
	s.roots.Set(rootCacheKey, info)
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.Wrap(err, "decode request"))
		return
	}
	if len(req.Proof) == 0 || len(req.PublicSignals) == 0 {
		s.writeError(w, http.StatusBadRequest, errors.New("proof and public_signals are required"))
		return
	}

	circuit := loaders.MembershipCircuit
	if req.Circuit != "" {
		circuit = loaders.CircuitID(req.Circuit)
	}
	vk, err := s.keys.Load(circuit)
	if errors.Is(err, loaders.ErrKeyNotFound) {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.writeClassified(w, err)
		return
	}

	valid, err := s.reg.VerifyMembershipProof(vk, req.Proof, req.PublicSignals)
	if err != nil {
		s.writeClassified(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{Valid: valid})
}

// writeClassified maps a registry error to its HTTP status class.
func (s *Server) writeClassified(w http.ResponseWriter, err error) {
	s.writeError(w, registry.Classify(err).HTTPStatus(), err)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
