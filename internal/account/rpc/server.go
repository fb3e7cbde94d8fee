// Package rpc exposes the account operations over gRPC.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/aussiebroadwan/accountd/internal/account/domain"
	"github.com/aussiebroadwan/accountd/internal/account/service"
	"github.com/aussiebroadwan/accountd/internal/account/store"
	"github.com/aussiebroadwan/accountd/pkg/accountsdk"
	"github.com/aussiebroadwan/accountd/pkg/metricsx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// HealthInterval is how often the store is probed for the health service.
const HealthInterval = 10 * time.Second

type Server struct {
	AccountService    *service.AccountService
	SessionService    *service.SessionService
	ActivationService *service.ActivationService

	store   store.Store
	metrics *metricsx.Metrics
	logger  *slog.Logger
	health  *health.Server
}

func NewServer(st store.Store, metrics *metricsx.Metrics, logger *slog.Logger) *Server {
	return &Server{
		store:   st,
		metrics: metrics,
		logger:  logger.With("module", "grpc_server"),
		health:  health.NewServer(),
	}
}

// NewGRPCServer builds a grpc.Server with the account and health services
// registered.
func (s *Server) NewGRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(loggingInterceptor(s.logger)))
	srv := grpc.NewServer(opts...)
	srv.RegisterService(&serviceDesc, s)
	healthpb.RegisterHealthServer(srv, s.health)
	return srv
}

// Run serves on address until ctx is cancelled, then stops gracefully.
func (s *Server) Run(ctx context.Context, address string) error {
	listen, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := s.NewGRPCServer()

	s.RefreshHealth(ctx)
	go func() {
		ticker := time.NewTicker(HealthInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.health.Shutdown()
				s.logger.Info("stopping gRPC server")
				srv.GracefulStop()
				return
			case <-ticker.C:
				s.RefreshHealth(ctx)
			}
		}
	}()

	s.logger.Info("starting gRPC server", "address", listen.Addr().String())
	if err := srv.Serve(listen); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// RefreshHealth pings the store and publishes the result on the health
// service, both for the empty service name and for ServiceName.
func (s *Server) RefreshHealth(ctx context.Context) {
	st := healthpb.HealthCheckResponse_SERVING
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("store ping failed", "err", err)
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

func (s *Server) NewAccount(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	summary, err := s.AccountService.NewAccount(ctx, &service.NewAccountRequest{
		Email:    stringField(in, "email"),
		Password: stringField(in, "pwd"),
		Mobile:   stringField(in, "mobile"),
	})
	if err != nil {
		return s.fault(ctx, "new_account", err)
	}
	return ok(accountsdk.Account{
		ID:     summary.ID,
		Email:  summary.Email,
		Mobile: summary.Mobile,
		Status: int(summary.Status),
	})
}

func (s *Server) Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	cred, err := s.AccountService.Login(ctx, &service.LoginRequest{
		Email:       stringField(in, "email"),
		Mobile:      stringField(in, "mobile"),
		Password:    stringField(in, "pwd"),
		DeviceClass: stringField(in, "device"),
	})
	if err != nil {
		return s.fault(ctx, "login", err)
	}
	return ok(accountsdk.Credential{
		UserID:    cred.AccountID,
		TokenID:   cred.TokenID,
		TokenSign: cred.Signature,
		Timestamp: cred.Timestamp,
	})
}

func (s *Server) Authentication(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	err := s.SessionService.Authenticate(ctx, domain.Credential{
		AccountID: stringField(in, "user_id", "userId"),
		TokenID:   stringField(in, "token_id", "tokenId"),
		Signature: stringField(in, "token_sign", "tokenSign"),
		Timestamp: int64Field(in, "timestamp"),
	})
	if err != nil {
		return s.fault(ctx, "authenticate", err)
	}
	return ok(nil)
}

func (s *Server) ActiveByEmail(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	err := s.ActivationService.Verify(ctx,
		stringField(in, "accountId"),
		stringField(in, "sign"),
		int64Field(in, "timestamp"),
	)
	if err != nil {
		return s.fault(ctx, "activate", err)
	}
	return ok(nil)
}

func (s *Server) SendActiveEmail(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ActivationService.Resend(ctx, stringField(in, "email")); err != nil {
		return s.fault(ctx, "resend_activation", err)
	}
	return ok(nil)
}

func (s *Server) Logout(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	err := s.SessionService.Logout(ctx, stringField(in, "accountId"), stringField(in, "tokenId"))
	if err != nil {
		return s.fault(ctx, "logout", err)
	}
	return ok(nil)
}

// fault renders err as an envelope reply. Unexpected errors are logged by
// AsFault and reach the caller only as the generic system fault.
func (s *Server) fault(ctx context.Context, op string, err error) (*structpb.Struct, error) {
	f := service.AsFault(ctx, err)
	s.metrics.Fault(op, f.Kind.String())
	return envelope(f.Code, f.Msg, nil)
}

func ok(data any) (*structpb.Struct, error) {
	return envelope(accountsdk.CodeOK, "ok", data)
}

func envelope(code int, msg string, data any) (*structpb.Struct, error) {
	fields := map[string]any{
		"code": code,
		"msg":  msg,
	}
	if data != nil {
		m, err := toMap(data)
		if err != nil {
			return nil, status.Error(codes.Internal, "encode reply")
		}
		fields["data"] = m
	}

	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode reply")
	}
	return out, nil
}

func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// stringField returns the first non-empty string among keys.
func stringField(in *structpb.Struct, keys ...string) string {
	for _, k := range keys {
		if v := in.GetFields()[k].GetStringValue(); v != "" {
			return v
		}
	}
	return ""
}

// int64Field reads a number or a decimal string. Anything else is 0.
func int64Field(in *structpb.Struct, key string) int64 {
	v, found := in.GetFields()[key]
	if !found {
		return 0
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return int64(k.NumberValue)
	case *structpb.Value_StringValue:
		n, err := strconv.ParseInt(k.StringValue, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
