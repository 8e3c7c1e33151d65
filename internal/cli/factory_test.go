package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/lendflow/internal/config"
	"github.com/aretw0/lendflow/internal/logging"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Documents.Dir = t.TempDir()
	return cfg
}

func build(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	app, err := Build(cfg, logging.NewNop(), BuildOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })
	return app
}

func TestBuild_Drivers(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, cfg *config.Config)
	}{
		{"memory", func(t *testing.T, cfg *config.Config) {}},
		{"file", func(t *testing.T, cfg *config.Config) {
			cfg.Storage.Driver = config.DriverFile
			cfg.Storage.File.Path = filepath.Join(t.TempDir(), "sessions")
		}},
		{"sqlite", func(t *testing.T, cfg *config.Config) {
			cfg.Storage.Driver = config.DriverSQLite
			cfg.Storage.SQLite.Path = filepath.Join(t.TempDir(), "db", "lendflow.db")
		}},
		{"redis with lock", func(t *testing.T, cfg *config.Config) {
			mr := miniredis.RunT(t)
			cfg.Storage.Driver = config.DriverRedis
			cfg.Storage.Redis.Addr = mr.Addr()
			cfg.Lock.Enabled = true
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadConfig(t)
			tt.setup(t, cfg)
			app := build(t, cfg)
			ctx := context.Background()

			welcome, err := app.Assistant.Start(ctx, "cust_001")
			require.NoError(t, err)
			assert.Contains(t, welcome.Text, "Rahul")

			reply, err := app.Assistant.Send(ctx, welcome.SessionID, "I need a personal loan of 2 lakhs")
			require.NoError(t, err)
			assert.NotEmpty(t, reply.Text)

			ids, err := app.Assistant.Sessions(ctx)
			require.NoError(t, err)
			assert.Contains(t, ids, welcome.SessionID)

			history, err := app.Assistant.History(ctx, welcome.SessionID)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, len(history), 3)
		})
	}
}

func TestBuild_EncryptedFileStore(t *testing.T) {
	cfg := loadConfig(t)
	dir := filepath.Join(t.TempDir(), "sessions")
	cfg.Storage.Driver = config.DriverFile
	cfg.Storage.File.Path = dir
	cfg.Privacy.EncryptionKey = testKey
	cfg.Privacy.PIIKeys = []string{"^pan_number$"}
	app := build(t, cfg)
	ctx := context.Background()

	welcome, err := app.Assistant.Start(ctx, "cust_001")
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, welcome.SessionID+".json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "__encrypted__")
	assert.NotContains(t, string(raw), "Rahul")

	s, err := app.Assistant.Session(ctx, welcome.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Rahul Sharma", s.Profile.Name)
}

func TestBuild_Metrics(t *testing.T) {
	cfg := loadConfig(t)
	app := build(t, cfg)
	require.NotNil(t, app.Metrics)

	cfg.Telemetry.Metrics = false
	assert.Nil(t, build(t, cfg).Metrics)
}

func TestBuild_Tracing(t *testing.T) {
	cfg := loadConfig(t)
	cfg.Telemetry.Tracing = true
	var spans bytes.Buffer
	app, err := Build(cfg, logging.NewNop(), BuildOptions{TraceOutput: &spans})
	require.NoError(t, err)

	_, err = app.Assistant.Start(context.Background(), "guest")
	require.NoError(t, err)
	require.NoError(t, app.Close(context.Background()))
}

func TestBuild_MissingCustomers(t *testing.T) {
	cfg := loadConfig(t)
	cfg.CRM.Customers = filepath.Join(t.TempDir(), "nope.yaml")
	_, err := Build(cfg, logging.NewNop(), BuildOptions{})
	assert.Error(t, err)
}

func TestRunChat_Headless(t *testing.T) {
	app := build(t, loadConfig(t))
	var out bytes.Buffer

	id, err := RunChat(context.Background(), app, ChatOptions{
		Customer: "cust_001",
		Headless: true,
		In:       strings.NewReader("hi\nexit\n"),
		Out:      &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Welcome back")
	assert.NotContains(t, out.String(), "Session "+id+" saved", "headless output stays quiet")

	s, err := app.Assistant.Session(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.ConversationAbandoned, s.Status)
}

func TestRunChat_JSON(t *testing.T) {
	app := build(t, loadConfig(t))
	var out bytes.Buffer

	_, err := RunChat(context.Background(), app, ChatOptions{
		JSON: true,
		In:   strings.NewReader("\"Rahul\"\n"),
		Out:  &out,
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		var event map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &event), line)
		assert.Equal(t, "reply", event["type"])
	}
}

func TestRunChat_Banner(t *testing.T) {
	app := build(t, loadConfig(t))
	var out bytes.Buffer

	id, err := RunChat(context.Background(), app, ChatOptions{
		In:  strings.NewReader("quit\n"),
		Out: &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "personal loans")
	assert.Contains(t, out.String(), ">>> Session "+id+" saved")
}

func TestSessionCommands(t *testing.T) {
	app := build(t, loadConfig(t))
	ctx := context.Background()

	welcome, err := app.Assistant.Start(ctx, "cust_001")
	require.NoError(t, err)
	_, err = app.Assistant.Send(ctx, welcome.SessionID, "I need a personal loan of 2 lakhs")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, ListSessions(ctx, app, &out, ""))
	assert.Contains(t, out.String(), "SESSION")
	assert.Contains(t, out.String(), welcome.SessionID)
	assert.Contains(t, out.String(), "cust_001")

	out.Reset()
	require.NoError(t, InspectSession(ctx, app, &out, welcome.SessionID))
	var s domain.Session
	require.NoError(t, json.Unmarshal(out.Bytes(), &s))
	assert.Equal(t, welcome.SessionID, s.ID)

	out.Reset()
	require.NoError(t, PrintGraph(ctx, app, &out, welcome.SessionID))
	assert.Contains(t, out.String(), "graph TD")
	assert.Contains(t, out.String(), "classDef")

	out.Reset()
	require.NoError(t, RemoveSession(ctx, app, &out, welcome.SessionID))
	assert.Contains(t, out.String(), "deleted")

	err = InspectSession(ctx, app, &out, welcome.SessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	out.Reset()
	require.NoError(t, ListSessions(ctx, app, &out, ""))
	assert.Contains(t, out.String(), "No sessions found")
}

func TestListSessions_Status(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, cfg *config.Config)
	}{
		{"scanned", func(t *testing.T, cfg *config.Config) {}},
		{"indexed", func(t *testing.T, cfg *config.Config) {
			cfg.Storage.Driver = config.DriverSQLite
			cfg.Storage.SQLite.Path = filepath.Join(t.TempDir(), "lendflow.db")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadConfig(t)
			tt.setup(t, cfg)
			app := build(t, cfg)
			ctx := context.Background()

			kept, err := app.Assistant.Start(ctx, "cust_001")
			require.NoError(t, err)
			left, err := app.Assistant.Start(ctx, "cust_002")
			require.NoError(t, err)
			require.NoError(t, app.Assistant.Abandon(ctx, left.SessionID))

			var out bytes.Buffer
			require.NoError(t, ListSessions(ctx, app, &out, domain.ConversationAbandoned))
			assert.Contains(t, out.String(), left.SessionID)
			assert.NotContains(t, out.String(), kept.SessionID)

			out.Reset()
			require.NoError(t, ListSessions(ctx, app, &out, domain.ConversationCompleted))
			assert.Contains(t, out.String(), "No sessions found")
		})
	}
}
