package nbconfig

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAppReturnsDefaultsWithNoConfigFile(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	os.Unsetenv("NODEBRAIN_CONFIG")
	os.Unsetenv("NODEBRAIN_LOG_LEVEL")
	os.Unsetenv("NODEBRAIN_DEFAULT_HORIZON")
	os.Unsetenv("NODEBRAIN_MAX_ACTION_QUEUE_DEPTH")
	os.Unsetenv("NODEBRAIN_TIMER_COALESCE_WINDOW")

	c := App()
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, 24*time.Hour, c.DefaultHorizon)
	assert.Equal(t, 10000, c.MaxActionQueueDepth)
}

func TestAppIsASingleton(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	a := App()
	b := App()
	assert.Same(t, a, b)
}

func TestEnvOverridesApplyOverDefaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	t.Setenv("NODEBRAIN_LOG_LEVEL", "debug")
	t.Setenv("NODEBRAIN_MAX_ACTION_QUEUE_DEPTH", "42")
	t.Setenv("NODEBRAIN_DEFAULT_HORIZON", "2h")

	c := App()
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, 42, c.MaxActionQueueDepth)
	assert.Equal(t, 2*time.Hour, c.DefaultHorizon)
}
