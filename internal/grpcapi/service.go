// Package grpcapi exposes the session over gRPC. Messages are google.protobuf.Struct values
// carrying the same JSON shapes as the HTTP API, so no generated code is needed.
package grpcapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/spiral-backend/internal/app"
	"github.com/xtding233/spiral-backend/internal/run"
	"github.com/xtding233/spiral-backend/internal/sim"
)

const defaultSimTrials = 1000

// Commands is the gRPC handler type of the spiral service.
type Commands interface {
	StartRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AttemptDoor(context.Context, *structpb.Struct) (*structpb.Struct, error)
	HandleFortune(context.Context, *structpb.Struct) (*structpb.Struct, error)
	BankAndExit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetAutoBankFloor(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProgress(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PurchaseUpgrade(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ClaimDailyReward(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Simulate(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// Service implements Commands over an application context and its session.
type Service struct {
	app     *app.Context
	session *app.Session
}

func NewService(c *app.Context, s *app.Session) *Service {
	return &Service{app: c, session: s}
}

type startRequest struct {
	Seed *uint32 `json:"seed,omitempty"`
}

type doorRequest struct {
	DoorID string `json:"doorId"`
}

type autoBankRequest struct {
	Floor int `json:"floor"`
}

type purchaseRequest struct {
	UpgradeID string `json:"upgradeId"`
}

type simRequest struct {
	sim.Params
	Trials int    `json:"trials"`
	Seed   uint32 `json:"seed"`
}

func (s *Service) StartRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req startRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	s.session.StartRun(req.Seed)
	return toStruct(s.session.View())
}

func (s *Service) GetRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(s.session.View())
}

func (s *Service) AttemptDoor(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req doorRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	if req.DoorID == "" {
		return nil, status.Error(codes.InvalidArgument, "doorId is required")
	}
	res, out, err := s.session.AttemptDoor(req.DoorID)
	if err != nil {
		return nil, runStatus(err)
	}
	return toStruct(map[string]any{"result": res, "outcome": out})
}

func (s *Service) HandleFortune(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	res, err := s.session.HandleFortune()
	if err != nil {
		return nil, runStatus(err)
	}
	return toStruct(res)
}

func (s *Service) BankAndExit(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	out := s.session.BankAndExit()
	return toStruct(map[string]any{"banked": out != nil, "outcome": out})
}

func (s *Service) SetAutoBankFloor(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req autoBankRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	if err := s.session.SetAutoBankFloor(req.Floor); err != nil {
		return nil, runStatus(err)
	}
	return toStruct(s.session.View())
}

func (s *Service) GetProgress(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(s.app.Summary())
}

func (s *Service) PurchaseUpgrade(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req purchaseRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	if _, ok := s.app.Tables().Upgrade(req.UpgradeID); !ok {
		return nil, status.Errorf(codes.NotFound, "unknown upgrade %q", req.UpgradeID)
	}
	p := s.app.Progress
	if !p.Purchase(req.UpgradeID) {
		return nil, status.Errorf(codes.FailedPrecondition, "cannot purchase %s", req.UpgradeID)
	}
	return toStruct(map[string]any{"level": p.Level(req.UpgradeID), "currency": p.Currency()})
}

func (s *Service) ClaimDailyReward(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	p := s.app.Progress
	reward, ok := p.ClaimDailyReward()
	if !ok {
		return nil, status.Error(codes.FailedPrecondition, "daily reward already claimed")
	}
	return toStruct(map[string]any{"reward": reward, "currency": p.Currency()})
}

func (s *Service) Simulate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := simRequest{Trials: defaultSimTrials}
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	rep, err := sim.Run(s.app.Tables(), req.Params, req.Trials, req.Seed)
	if errors.Is(err, sim.ErrInvalidParams) {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return toStruct(rep)
}

// runStatus maps refused run commands onto gRPC codes.
func runStatus(err error) error {
	var runErr *run.Error
	if !errors.As(err, &runErr) {
		return status.Error(codes.Internal, err.Error())
	}
	code := codes.FailedPrecondition
	if runErr.Code == run.CodeDoorNotFound {
		code = codes.NotFound
	}
	return status.Error(code, string(runErr.Code))
}

// toStruct converts v through its JSON form.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(payload)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// fromStruct decodes in into dst, rejecting unknown fields. A nil message leaves dst untouched.
func fromStruct(in *structpb.Struct, dst any) error {
	if in == nil || len(in.GetFields()) == 0 {
		return nil
	}
	data, err := protojson.Marshal(in)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	if err := decodeStrict(data, dst); err != nil {
		return status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	return nil
}

func decodeStrict(data []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}
