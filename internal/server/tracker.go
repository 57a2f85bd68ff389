package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"ptcg-tracker/internal/service"

	"github.com/rs/zerolog"
)

type TrackerServer struct {
	matchSvc   *service.MatchService
	homeSvc    *service.HomeService
	speciesSvc *service.SpeciesService
	logger     zerolog.Logger
}

func NewTrackerServer(matchSvc *service.MatchService, homeSvc *service.HomeService, speciesSvc *service.SpeciesService, logger zerolog.Logger) *TrackerServer {
	return &TrackerServer{matchSvc: matchSvc, homeSvc: homeSvc, speciesSvc: speciesSvc, logger: logger}
}

// Routes registers every endpoint on the mux.
func (s *TrackerServer) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/home", s.handleHome)
	mux.HandleFunc("POST /api/logs/parse", s.handleParseLog)
	mux.HandleFunc("GET /api/logs/{id}", s.handleGetRawLog)
	mux.HandleFunc("GET /api/species/search", s.handleSpeciesSearch)

	mux.HandleFunc("POST /api/matches/live", s.handleCreateLive)
	mux.HandleFunc("GET /api/matches/live/{eventId}", s.handleGetLive)
	mux.HandleFunc("PUT /api/matches/live/{eventId}", s.handleUpdateLive)
	mux.HandleFunc("DELETE /api/matches/live/{eventId}", s.handleDeleteLive)

	mux.HandleFunc("POST /api/matches/physical", s.handleCreatePhysical)
	mux.HandleFunc("GET /api/matches/physical/{eventId}", s.handleGetPhysical)
	mux.HandleFunc("PUT /api/matches/physical/{eventId}", s.handleUpdatePhysical)
	mux.HandleFunc("DELETE /api/matches/physical/{eventId}", s.handleDeletePhysical)
}

func (s *TrackerServer) handleHome(w http.ResponseWriter, r *http.Request) {
	summary, err := s.homeSvc.Overview(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *TrackerServer) handleParseLog(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RawLog string `json:"rawLog"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.matchSvc.Preview(r.Context(), body.RawLog))
}

func (s *TrackerServer) handleGetRawLog(w http.ResponseWriter, r *http.Request) {
	log, err := s.matchSvc.RawLog(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, log)
}

func (s *TrackerServer) handleSpeciesSearch(w http.ResponseWriter, r *http.Request) {
	names, err := s.speciesSvc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"results": names})
}

func (s *TrackerServer) handleCreateLive(w http.ResponseWriter, r *http.Request) {
	var in service.LiveMatchInput
	if err := decodeBody(r, &in); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	rec, err := s.matchSvc.CreateLive(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, rec)
}

func (s *TrackerServer) handleGetLive(w http.ResponseWriter, r *http.Request) {
	rec, err := s.matchSvc.GetLive(r.Context(), r.PathValue("eventId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *TrackerServer) handleUpdateLive(w http.ResponseWriter, r *http.Request) {
	var in service.LiveMatchInput
	if err := decodeBody(r, &in); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	rec, err := s.matchSvc.UpdateLive(r.Context(), r.PathValue("eventId"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *TrackerServer) handleDeleteLive(w http.ResponseWriter, r *http.Request) {
	if err := s.matchSvc.DeleteLive(r.Context(), r.PathValue("eventId")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *TrackerServer) handleCreatePhysical(w http.ResponseWriter, r *http.Request) {
	var in service.PhysicalMatchInput
	if err := decodeBody(r, &in); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	rec, err := s.matchSvc.CreatePhysical(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, rec)
}

func (s *TrackerServer) handleGetPhysical(w http.ResponseWriter, r *http.Request) {
	rec, err := s.matchSvc.GetPhysical(r.Context(), r.PathValue("eventId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *TrackerServer) handleUpdatePhysical(w http.ResponseWriter, r *http.Request) {
	var in service.PhysicalMatchInput
	if err := decodeBody(r, &in); err != nil {
		s.writeBadRequest(w, err)
		return
	}
	rec, err := s.matchSvc.UpdatePhysical(r.Context(), r.PathValue("eventId"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *TrackerServer) handleDeletePhysical(w http.ResponseWriter, r *http.Request) {
	if err := s.matchSvc.DeletePhysical(r.Context(), r.PathValue("eventId")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeBody(r *http.Request, v any) error {
	defer io.Copy(io.Discard, r.Body)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (s *TrackerServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *TrackerServer) writeBadRequest(w http.ResponseWriter, err error) {
	s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

func (s *TrackerServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrMatchNotFound) {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
