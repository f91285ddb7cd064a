package app

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/xtding233/spiral-backend/internal/bus"
	"github.com/xtding233/spiral-backend/internal/progress"
	"github.com/xtding233/spiral-backend/internal/run"
	"github.com/xtding233/spiral-backend/internal/store"
	"github.com/xtding233/spiral-backend/internal/tables"
	"github.com/xtding233/spiral-backend/internal/tower"
)

type constRNG float64

func (c constRNG) Float64() float64 { return float64(c) }

var day = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newContext(t *testing.T, opts ...Option) *Context {
	t.Helper()
	base := []Option{
		WithSeed(1),
		WithCoin(constRNG(0.1)),
		WithManualTransitions(),
		WithProgressOptions(progress.WithClock(func() time.Time { return day })),
	}
	return New(tables.MustDefault(), store.NewMemory(), append(base, opts...)...)
}

func riskiest(fd *tower.FloorData) string {
	for _, d := range fd.Doors {
		if d.IsHighRisk {
			return d.ID
		}
	}
	return fd.Doors[0].ID
}

func TestIdleView(t *testing.T) {
	s := newContext(t).NewSession()
	defer s.Close()

	v := s.View()
	if v.State.Phase != "idle" || v.Floor != nil || v.State.RunActive {
		t.Fatalf("idle view = %+v", v)
	}
	if _, _, err := s.AttemptDoor("A"); !errors.Is(err, run.ErrRunNotActive) {
		t.Fatalf("err = %v", err)
	}
	if out := s.BankAndExit(); out != nil {
		t.Fatalf("bank without run = %+v", out)
	}
	if err := s.SetAutoBankFloor(5); !errors.Is(err, run.ErrRunNotActive) {
		t.Fatalf("err = %v", err)
	}
}

func TestBankSettlesMissionsAndAchievements(t *testing.T) {
	c := newContext(t)
	c.Progress.AddCurrency(250)
	if !c.Progress.Purchase("starting_spark") || !c.Progress.Purchase("starting_spark") {
		t.Fatal("purchase failed")
	}
	c.Progress.SaveMissions([]progress.Mission{
		{ID: "bank_50", Type: "bank", Target: 50, Reward: 30},
		{ID: "reach_15", Type: "floor", Target: 15, Reward: 75},
	})

	s := c.NewSession()
	defer s.Close()
	st := s.StartRun(nil)
	if st.UnbankedScore != 100 || st.Seed != 1 {
		t.Fatalf("start = %+v", st)
	}

	out := s.BankAndExit()
	if out == nil || out.Kind != OutcomeBanked || out.Bank == nil {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Bank.BankedScore != 100 || out.Bank.CurrencyEarned != 1 || !out.Bank.IsNewRecord {
		t.Fatalf("bank = %+v", out.Bank)
	}
	if out.MissionReward != 30 || !out.Missions[0].Completed || out.Missions[1].Completed {
		t.Fatalf("missions = %+v reward %d", out.Missions, out.MissionReward)
	}
	if got := c.Progress.Currency(); got != 1+30 {
		t.Fatalf("currency = %d, want 31", got)
	}
	if got := c.Progress.TotalBanked(); got != 100 {
		t.Fatalf("total banked = %d", got)
	}
	if saved := c.Progress.DailyMissions(); !saved[0].Completed {
		t.Fatalf("missions not saved: %+v", saved)
	}
	if s.BankAndExit() != nil {
		t.Fatal("second bank should be a no-op")
	}
	if v := s.View(); v.Last != out || v.Floor != nil || v.State.Phase != "banked" {
		t.Fatalf("view = %+v", v)
	}
}

func TestFailureIsFinalized(t *testing.T) {
	c := newContext(t)
	s := c.NewSession()
	defer s.Close()
	s.StartRun(nil)

	var out *Outcome
	for i := 0; i < 500 && out == nil; i++ {
		v := s.View()
		if v.Floor == nil {
			t.Fatalf("active run without a floor: %+v", v.State)
		}
		if v.Floor.SpecialEvent == tower.EventFortune {
			if _, err := s.HandleFortune(); err != nil {
				t.Fatal(err)
			}
			continue
		}
		var err error
		_, out, err = s.AttemptDoor(riskiest(v.Floor))
		if err != nil {
			t.Fatal(err)
		}
	}
	if out == nil || out.Kind != OutcomeFailed || out.Failure == nil || out.Settlement == nil {
		t.Fatalf("outcome = %+v", out)
	}
	if c.Progress.BestFloor() != out.Failure.FloorReached {
		t.Fatalf("best floor = %d, reached %d", c.Progress.BestFloor(), out.Failure.FloorReached)
	}
	if c.Progress.Currency() != 0 {
		t.Fatalf("failed run with nothing banked earned %d", c.Progress.Currency())
	}
}

func TestEventsAndClose(t *testing.T) {
	c := newContext(t)
	s := c.NewSession()
	s.StartRun(nil)

	evs := s.Events(0)
	if len(evs) != 2 || evs[0].Signal != bus.FloorGenerated || evs[1].Signal != bus.RunStarted {
		t.Fatalf("events = %+v", evs)
	}
	if later := s.Events(evs[1].Seq); len(later) != 0 {
		t.Fatalf("events after last seq = %+v", later)
	}

	s.Close()
	for _, sig := range bus.Signals {
		if n := c.Bus.Count(sig); n != 0 {
			t.Fatalf("%s still has %d subscribers", sig, n)
		}
	}
	s.Close()
}

func TestTransitionsFireOnTimer(t *testing.T) {
	var armed []time.Duration
	var fire func()
	orig := transitionTimer
	transitionTimer = func(d time.Duration, fn func()) func() bool {
		armed = append(armed, d)
		fire = fn
		return func() bool { return true }
	}
	defer func() { transitionTimer = orig }()

	c := New(tables.MustDefault(), store.NewMemory(), WithSeed(1))
	c.Progress.AddCurrency(150)
	if !c.Progress.Purchase("iron_will") {
		t.Fatal("purchase failed")
	}
	s := c.NewSession()
	defer s.Close()
	s.StartRun(nil)

	// five shields: the attempt either advances or is absorbed; both queue a transition
	res, out, err := s.AttemptDoor("A")
	if err != nil || out != nil || res.Failure != nil {
		t.Fatalf("attempt = %+v %+v %v", res, out, err)
	}
	if len(armed) != 1 || fire == nil {
		t.Fatalf("timers armed = %v", armed)
	}
	if p := s.View().Pending; len(p) != 1 || p[0].Delay != armed[0] {
		t.Fatalf("pending = %+v armed %v", p, armed)
	}

	fire()
	if p := s.View().Pending; len(p) != 0 {
		t.Fatalf("pending after fire = %+v", p)
	}

	// a callback from before the next command is stale and must not step
	stale := fire
	if _, _, err := s.AttemptDoor("A"); err != nil {
		t.Fatal(err)
	}
	before := s.View().Pending
	stale()
	if after := s.View().Pending; len(after) != len(before) {
		t.Fatalf("stale timer stepped the queue: %v -> %v", before, after)
	}
}

func TestSetTablesAffectsNextRun(t *testing.T) {
	c := newContext(t)
	next := *tables.MustDefault()
	next.Version = "reloaded"
	next.Rules.AutoBankFloor = 3
	c.SetTables(&next)
	if c.Tables().Version != "reloaded" {
		t.Fatal("tables not swapped")
	}
	c.Progress.AddCurrency(600)
	if !c.Progress.Purchase("auto_bank") {
		t.Fatal("purchase failed")
	}
	s := c.NewSession()
	defer s.Close()
	if st := s.StartRun(nil); st.AutoBankFloor != 3 {
		t.Fatalf("auto-bank floor = %d, want 3 from reloaded rules", st.AutoBankFloor)
	}
}

func TestSetTablesLogsSwap(t *testing.T) {
	var buf bytes.Buffer
	c := newContext(t, WithLogger(zerolog.New(&buf)))
	next := *tables.MustDefault()
	next.Version = "v7"
	c.SetTables(&next)

	out := buf.String()
	if !strings.Contains(out, `"component":"tables"`) || !strings.Contains(out, `"version":"v7"`) {
		t.Fatalf("log = %s", out)
	}
}

func TestBankWhileAutoBankPending(t *testing.T) {
	c := newContext(t)
	next := *tables.MustDefault()
	next.Rules.AutoBankFloor = 1
	c.SetTables(&next)
	c.Progress.AddCurrency(700)
	if !c.Progress.Purchase("auto_bank") || !c.Progress.Purchase("starting_spark") {
		t.Fatal("purchase failed")
	}
	c.Progress.SaveMissions([]progress.Mission{{ID: "bank_50", Type: "bank", Target: 50, Reward: 30}})

	s := c.NewSession()
	defer s.Close()
	s.StartRun(nil)

	v := s.View()
	if len(v.Pending) != 1 || v.Pending[0].Name != "auto-bank" {
		t.Fatalf("pending = %+v", v.Pending)
	}
	if v.Floor == nil || len(v.Floor.Doors) != 0 {
		t.Fatalf("doors shown while auto-bank is pending: %+v", v.Floor)
	}

	out := s.BankAndExit()
	if out == nil || out.Kind != OutcomeBanked || out.Bank == nil || out.Bank.BankedScore != 50 {
		t.Fatalf("outcome = %+v", out)
	}
	if out.MissionReward != 30 || !out.Missions[0].Completed {
		t.Fatalf("missions = %+v reward %d", out.Missions, out.MissionReward)
	}
	if got := c.Progress.Currency(); got != run.CurrencyFor(50, 1)+30 {
		t.Fatalf("currency = %d", got)
	}
	if v := s.View(); v.Last != out || v.State.Phase != "banked" {
		t.Fatalf("view = %+v", v)
	}

	s.StartRun(nil)
	if c.Progress.TotalBanked() != 50 {
		t.Fatalf("total banked = %d", c.Progress.TotalBanked())
	}
}
