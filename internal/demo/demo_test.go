package demo_test

import (
	"testing"
	"time"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/config"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/demo"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/apptest"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/dialogue"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func newTester(t *testing.T, script *dialogue.Script) *apptest.Tester {
	t.Helper()
	app := dialogue.New(script, dialogue.WithClock(func() time.Time { return now }))
	require.NoError(t, app.Validate())
	t.Cleanup(app.Close)
	return apptest.New(t, app)
}

// services points every configured collaborator at srv.
func services(cfg config.Config) demo.Services {
	return demo.NewServices(cfg, upstream.New(), nil)
}

func TestScripts_Validate(t *testing.T) {
	scripts := demo.Scripts(config.Default(), demo.Services{})
	require.Len(t, scripts, len(demo.Names()))
	for _, name := range demo.Names() {
		app := dialogue.New(scripts[name])
		assert.NoError(t, app.Validate(), name)
	}
}

func TestNewServices_OnlyConfiguredClients(t *testing.T) {
	cfg := config.Default()
	cfg.EVDSURL = "http://evds.example"
	cfg.AAQURL = "http://aaq.example"

	svc := services(cfg)
	assert.NotNil(t, svc.EVDS)
	assert.NotNil(t, svc.AAQ)
	assert.Nil(t, svc.EventStore)
	assert.Nil(t, svc.RapidPro)
	assert.Nil(t, svc.Places, "places needs a key")
	assert.Nil(t, svc.LoveLife)
}
