package rpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/aussiebroadwan/accountd/internal/account/domain"
	"github.com/aussiebroadwan/accountd/internal/account/mail"
	"github.com/aussiebroadwan/accountd/internal/account/service"
	"github.com/aussiebroadwan/accountd/internal/account/store/drivers/sqlite"
	"github.com/aussiebroadwan/accountd/pkg/metricsx"
	"github.com/aussiebroadwan/accountd/pkg/slogx"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

const bufSize = 1024 * 1024

type fixture struct {
	server *Server
	store  *sqlite.Store
	conn   *grpc.ClientConn
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	m := metricsx.New()
	srv := NewServer(st, m, slogx.Discard())
	srv.SessionService = &service.SessionService{Store: st, Metrics: m}
	srv.ActivationService = &service.ActivationService{Store: st, Mail: mail.LogSender{}, Metrics: m}
	srv.AccountService = &service.AccountService{
		Store:      st,
		Sessions:   srv.SessionService,
		Activation: srv.ActivationService,
	}
	srv.RefreshHealth(context.Background())

	listener := bufconn.Listen(bufSize)
	gs := srv.NewGRPCServer()
	go func() {
		if err := gs.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			t.Logf("grpc serve error: %v", err)
		}
	}()

	dialer := func(ctx context.Context, _ string) (net.Conn, error) {
		return listener.DialContext(ctx)
	}
	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		gs.GracefulStop()
		_ = listener.Close()
	})
	return &fixture{server: srv, store: st, conn: conn}
}

func (f *fixture) call(t *testing.T, method string, fields map[string]any) *structpb.Struct {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	in, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	out := new(structpb.Struct)
	require.NoError(t, f.conn.Invoke(ctx, FullMethod(method), in, out))
	return out
}

func code(out *structpb.Struct) int {
	return int(out.GetFields()["code"].GetNumberValue())
}

func data(out *structpb.Struct) map[string]*structpb.Value {
	return out.GetFields()["data"].GetStructValue().GetFields()
}

func TestRegisterLoginAuthenticate(t *testing.T) {
	f := newFixture(t)

	out := f.call(t, "NewAccount", map[string]any{"email": "alice@example.com", "pwd": "123456"})
	require.Equal(t, 0, code(out))
	id := data(out)["id"].GetStringValue()
	require.NotEmpty(t, id)

	out = f.call(t, "NewAccount", map[string]any{"email": "alice@example.com", "pwd": "123456"})
	require.Equal(t, service.ErrEmailRegistered.Code, code(out))

	out = f.call(t, "Login", map[string]any{"email": "alice@example.com", "pwd": "123456"})
	require.Equal(t, service.ErrAccountNotActive.Code, code(out))

	require.NoError(t, f.store.Accounts().UpdateStatus(context.Background(), id, domain.StatusActive))

	out = f.call(t, "Login", map[string]any{"email": "alice@example.com", "pwd": "123456", "device": "mobile"})
	require.Equal(t, 0, code(out))
	cred := data(out)
	require.Equal(t, id, cred["user_id"].GetStringValue())

	auth := map[string]any{
		"user_id":    cred["user_id"].GetStringValue(),
		"token_id":   cred["token_id"].GetStringValue(),
		"token_sign": cred["token_sign"].GetStringValue(),
		"timestamp":  cred["timestamp"].GetNumberValue(),
	}
	out = f.call(t, "Authentication", auth)
	require.Equal(t, 0, code(out))

	auth["timestamp"] = "1"
	out = f.call(t, "Authentication", auth)
	require.Equal(t, service.TokenExpiredCode, code(out))
	require.Equal(t, "token expire", out.GetFields()["msg"].GetStringValue())

	out = f.call(t, "Logout", map[string]any{"accountId": id, "tokenId": cred["token_id"].GetStringValue()})
	require.Equal(t, 0, code(out))
	out = f.call(t, "Logout", map[string]any{})
	require.Equal(t, 0, code(out))
}

func TestActivation(t *testing.T) {
	f := newFixture(t)

	out := f.call(t, "NewAccount", map[string]any{"email": "bob@example.com", "pwd": "pw"})
	id := data(out)["id"].GetStringValue()

	link, err := f.server.ActivationService.Issue(context.Background(), id)
	require.NoError(t, err)

	out = f.call(t, "ActiveByEmail", map[string]any{"accountId": id, "sign": "nope", "timestamp": float64(link.ExpiresAt)})
	require.Equal(t, service.ErrLinkInvalid.Code, code(out))

	out = f.call(t, "ActiveByEmail", map[string]any{"accountId": id, "sign": link.Signature, "timestamp": float64(link.ExpiresAt)})
	require.Equal(t, 0, code(out))

	out = f.call(t, "SendActiveEmail", map[string]any{"email": "ghost@example.com"})
	require.Equal(t, service.ErrEmailNotRegistered.Code, code(out))
}

func TestSystemFaultIsEnvelope(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Close())

	out := f.call(t, "NewAccount", map[string]any{"email": "carol@example.com", "pwd": "pw"})
	require.Equal(t, service.ErrSystem.Code, code(out))
	require.Equal(t, service.ErrSystem.Msg, out.GetFields()["msg"].GetStringValue())

	out = f.call(t, "Authentication", map[string]any{
		"userId":    "acc",
		"tokenId":   "tok",
		"timestamp": "1700000000000",
		"tokenSign": "0123456789abcdef0123456789abcdef",
	})
	require.Equal(t, -500, code(out))
	require.NotContains(t, out.GetFields(), "data")
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	client := healthpb.NewHealthClient(f.conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	require.NoError(t, f.store.Close())
	f.server.RefreshHealth(ctx)

	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}

func TestInt64Field(t *testing.T) {
	in, err := structpb.NewStruct(map[string]any{
		"n":   float64(1700000000123),
		"s":   "1700000000123",
		"bad": "soon",
		"b":   true,
	})
	require.NoError(t, err)

	require.Equal(t, int64(1700000000123), int64Field(in, "n"))
	require.Equal(t, int64(1700000000123), int64Field(in, "s"))
	require.Zero(t, int64Field(in, "bad"))
	require.Zero(t, int64Field(in, "b"))
	require.Zero(t, int64Field(in, "missing"))
}
