package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xtding233/spiral-backend/internal/progress"
	"github.com/xtding233/spiral-backend/internal/sim"
)

const defaultSimTrials = 1000

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.View())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, ErrTypeValidation, "invalid body: "+err.Error())
		return
	}
	s.session.StartRun(req.Seed)
	s.writeJSON(w, http.StatusCreated, s.session.View())
}

func (s *Server) handleAttempt(w http.ResponseWriter, r *http.Request) {
	res, out, err := s.session.AttemptDoor(chi.URLParam(r, "doorID"))
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, DoorResponse{Result: res, Outcome: out})
}

func (s *Server) handleFortune(w http.ResponseWriter, r *http.Request) {
	res, err := s.session.HandleFortune()
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleBank(w http.ResponseWriter, r *http.Request) {
	out := s.session.BankAndExit()
	s.writeJSON(w, http.StatusOK, BankResponse{Banked: out != nil, Outcome: out})
}

func (s *Server) handleAutoBank(w http.ResponseWriter, r *http.Request) {
	var req AutoBankRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, ErrTypeValidation, "invalid body: "+err.Error())
		return
	}
	if err := s.session.SetAutoBankFloor(req.Floor); err != nil {
		s.writeRunError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.session.View())
}

func (s *Server) handleDrain(w http.ResponseWriter, r *http.Request) {
	s.session.Drain()
	s.writeJSON(w, http.StatusOK, s.session.View())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	since := 0
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, ErrTypeValidation, "invalid since")
			return
		}
		since = n
	}
	s.writeJSON(w, http.StatusOK, s.session.Events(since))
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.app.Summary())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.app.Progress.Reset()
	s.logger.Info().Msg("progression reset")
	s.writeJSON(w, http.StatusOK, s.app.Summary())
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.app.Progress.Catalog())
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "upgradeID")
	if _, ok := s.app.Tables().Upgrade(id); !ok {
		s.writeError(w, http.StatusNotFound, ErrTypeNotFound, "unknown upgrade "+id)
		return
	}
	p := s.app.Progress
	resp := PurchaseResponse{Purchased: p.Purchase(id)}
	resp.Level, resp.Currency = p.Level(id), p.Currency()
	status := http.StatusOK
	if !resp.Purchased {
		status = http.StatusConflict
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	p := s.app.Progress
	s.writeJSON(w, http.StatusOK, DailyResponse{Available: p.DailyRewardAvailable(), Currency: p.Currency()})
}

func (s *Server) handleClaimDaily(w http.ResponseWriter, r *http.Request) {
	p := s.app.Progress
	reward, ok := p.ClaimDailyReward()
	resp := DailyResponse{Claimed: ok, Reward: reward, Currency: p.Currency()}
	status := http.StatusOK
	if !ok {
		status = http.StatusConflict
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) handleMissions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.app.Progress.RollDailyMissions())
}

func (s *Server) handleSaveMissions(w http.ResponseWriter, r *http.Request) {
	var list []progress.Mission
	if err := decode(w, r, &list); err != nil {
		s.writeError(w, http.StatusBadRequest, ErrTypeValidation, "invalid body: "+err.Error())
		return
	}
	s.app.Progress.SaveMissions(list)
	s.writeJSON(w, http.StatusOK, s.app.Progress.DailyMissions())
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.app.Tables())
}

func (s *Server) handleSim(w http.ResponseWriter, r *http.Request) {
	req := SimRequest{Trials: defaultSimTrials}
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, ErrTypeValidation, "invalid body: "+err.Error())
		return
	}
	rep, err := sim.Run(s.app.Tables(), req.Params, req.Trials, req.Seed)
	if errors.Is(err, sim.ErrInvalidParams) {
		s.writeError(w, http.StatusBadRequest, ErrTypeValidation, err.Error())
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, ErrTypeInternal, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}
