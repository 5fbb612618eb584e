package main

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/sus-scheduling/internal/config"
)

func TestRequirePersistentBackend(t *testing.T) {
	tests := []struct {
		backend string
		wantErr bool
	}{
		{config.BackendMemory, true},
		{config.BackendRedis, false},
		{config.BackendPostgres, false},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			err := requirePersistentBackend(config.Config{StoreBackend: tt.backend}, "seed")
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "STORE_BACKEND")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOneShotCommandsRefuseMemoryBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")

	for name, args := range map[string][]string{
		"seed":           {"--doctors", "1", "--patients", "1"},
		"clear-patients": {"--yes"},
	} {
		t.Run(name, func(t *testing.T) {
			cmd := seedCmd()
			if name == "clear-patients" {
				cmd = clearPatientsCmd()
			}
			cmd.SetArgs(args)
			cmd.SetOut(io.Discard)
			cmd.SetErr(io.Discard)
			cmd.SilenceUsage = true

			err := cmd.ExecuteContext(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "memory backend")
		})
	}
}

func TestBuildAppMemory(t *testing.T) {
	cfg := config.Config{StoreBackend: config.BackendMemory, Timezone: "America/Sao_Paulo"}

	a, err := buildApp(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.identity)
	assert.NotNil(t, a.engine)
	assert.Contains(t, a.checks, "memory")
}
