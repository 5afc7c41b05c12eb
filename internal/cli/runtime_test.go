package cli_test

import (
	"context"
	"encoding/base64"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/cli"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/config"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/demo"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/adapters/memory"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/apptest"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/persistence/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.AnswerEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.AnswerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func open(t *testing.T, cfg config.Config, opts ...cli.Option) *cli.Runtime {
	t.Helper()
	rt, err := cli.Open(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestOpen_Memory(t *testing.T) {
	rt := open(t, config.Default())

	assert.IsType(t, &memory.Store{}, rt.Store)
	assert.ElementsMatch(t, demo.Names(), keys(rt.Scripts))

	app, err := rt.App(demo.VaccineScript)
	require.NoError(t, err)
	t.Cleanup(app.Close)
	assert.Equal(t, demo.VaccineScript, app.Script().Name)

	_, err = rt.App("nope")
	assert.ErrorContains(t, err, "unknown script")
}

func TestOpen_Bolt(t *testing.T) {
	cfg := config.Default()
	cfg.Store = "bolt"
	cfg.BoltPath = filepath.Join(t.TempDir(), "users.db")
	rt := open(t, cfg)

	require.NoError(t, rt.Sessions.Save(context.Background(), domain.NewUser("27820001001")))
	addrs, err := rt.Sessions.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"27820001001"}, addrs)
}

func TestOpen_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Store = "redis"
	cfg.RedisURL = "redis://" + mr.Addr()
	rt := open(t, cfg)

	require.NoError(t, rt.Sessions.Save(context.Background(), domain.NewUser("27820001001")))
	assert.True(t, mr.Exists(cfg.RedisPrefix+"27820001001"))
}

func TestOpen_InvalidMiddlewareConfig(t *testing.T) {
	tests := []struct {
		name string
		edit func(*config.Config)
		want string
	}{
		{"bad base64", func(c *config.Config) { c.EncryptionKey = "%%%" }, "base64"},
		{"short key", func(c *config.Config) { c.EncryptionKey = base64.StdEncoding.EncodeToString([]byte("short")) }, "32 bytes"},
		{"bad pattern", func(c *config.Config) { c.PIIKeys = []string{"("} }, "PII_KEYS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.edit(&cfg)
			_, err := cli.Open(cfg)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestRuntime_MasksAndEncrypts(t *testing.T) {
	backing := memory.NewStore()
	cfg := config.Default()
	cfg.PIIKeys = []string{"^state_first_name$"}
	cfg.EncryptionKey = base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
	rt := open(t, cfg, cli.WithStore(backing))

	user := domain.NewUser("27820001001")
	user.SetAnswer("state_first_name", "Jane")
	user.SetAnswer("state_gender", "female")
	require.NoError(t, rt.Sessions.Save(context.Background(), user))

	raw, err := backing.Load(context.Background(), "27820001001")
	require.NoError(t, err)
	_, readable := raw.Answer("state_gender")
	assert.False(t, readable)

	loaded, err := rt.Sessions.Load(context.Background(), "27820001001")
	require.NoError(t, err)
	name, _ := loaded.Answer("state_first_name")
	gender, _ := loaded.Answer("state_gender")
	assert.Equal(t, middleware.Mask, name)
	assert.Equal(t, "female", gender)
}

func TestRuntime_AppWiring(t *testing.T) {
	pub := &recordingPublisher{}
	rt := open(t, config.Default(), cli.WithPublisher(pub))

	app, err := rt.App(demo.VaccineScript)
	require.NoError(t, err)

	tester := apptest.New(t, app)
	tester.Start()
	tester.Send("1")
	app.Close()

	assert.Equal(t, 1, pub.count())
	assert.Equal(t, 2.0, testutil.ToFloat64(rt.Metrics.Turns.WithLabelValues(demo.VaccineScript, "ok")))
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
