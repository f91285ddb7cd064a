package api

import (
	"github.com/xtding233/spiral-backend/internal/app"
	"github.com/xtding233/spiral-backend/internal/run"
	"github.com/xtding233/spiral-backend/internal/sim"
)

type HealthResponse struct {
	Status        string `json:"status"`
	Uptime        string `json:"uptime"`
	TablesVersion string `json:"tablesVersion"`
}

type StartRequest struct {
	Seed *uint32 `json:"seed,omitempty"`
}

type DoorResponse struct {
	Result  run.DoorResult `json:"result"`
	Outcome *app.Outcome   `json:"outcome,omitempty"`
}

type AutoBankRequest struct {
	Floor int `json:"floor"`
}

type BankResponse struct {
	Banked  bool         `json:"banked"`
	Outcome *app.Outcome `json:"outcome,omitempty"`
}

type PurchaseResponse struct {
	Purchased bool `json:"purchased"`
	Level     int  `json:"level"`
	Currency  int  `json:"currency"`
}

type DailyResponse struct {
	Available bool `json:"available"`
	Claimed   bool `json:"claimed,omitempty"`
	Reward    int  `json:"reward,omitempty"`
	Currency  int  `json:"currency"`
}

type SimRequest struct {
	sim.Params
	Trials int    `json:"trials"`
	Seed   uint32 `json:"seed"`
}
