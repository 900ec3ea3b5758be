package autotrade

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPausesWhenMarketCloses(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.controller.Start(validConfig()))

	f.clock.setOpen(false)
	NewHoursMonitor(f.controller, "@every 1m").Check()

	running, _, _ := f.controller.Status()
	assert.False(t, running)
	// the pause keeps the snapshot so the loop resumes at the next open
	require.NotNil(t, f.store.saved())
	assert.True(t, f.store.saved().Running)
}

func TestCheckResumesSavedConfig(t *testing.T) {
	f := newFixture()
	cfg := validConfig()
	require.NoError(t, f.store.Save(Snapshot{Config: cfg, Running: true}))

	NewHoursMonitor(f.controller, "@every 1m").Check()
	defer f.controller.Shutdown()

	running, gotCfg, _ := f.controller.Status()
	assert.True(t, running)
	assert.Equal(t, cfg, gotCfg)
	containsSubstring(t, messages(f.controller.Activity()), "resuming saved auto-trade config")
}

func TestCheckIgnoresSnapshotOfStoppedLoop(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.store.Save(Snapshot{Config: validConfig(), Running: false}))

	NewHoursMonitor(f.controller, "@every 1m").Check()

	running, _, _ := f.controller.Status()
	assert.False(t, running)
}

func TestCheckIgnoresMissingSnapshot(t *testing.T) {
	f := newFixture()

	NewHoursMonitor(f.controller, "@every 1m").Check()

	running, _, _ := f.controller.Status()
	assert.False(t, running)
	assert.Zero(t, f.controller.Activity().Len())
}

func TestCheckRejectsUnusableSavedConfig(t *testing.T) {
	f := newFixture()
	bad := validConfig()
	bad.Strategy = "astrology"
	require.NoError(t, f.store.Save(Snapshot{Config: bad, Running: true}))

	NewHoursMonitor(f.controller, "@every 1m").Check()

	running, _, _ := f.controller.Status()
	assert.False(t, running)
	containsSubstring(t, messages(f.controller.Activity()), "saved auto-trade config is unusable")
}

func TestCheckToleratesStoreFailure(t *testing.T) {
	f := newFixture()
	f.store.loadErr = errors.New("db locked")

	NewHoursMonitor(f.controller, "@every 1m").Check()

	running, _, _ := f.controller.Status()
	assert.False(t, running)
}

func TestCheckLeavesRunningLoopAloneWhileOpen(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.controller.Start(validConfig()))
	defer f.controller.Shutdown()

	before := f.controller.Activity().Len()
	NewHoursMonitor(f.controller, "@every 1m").Check()

	running, _, _ := f.controller.Status()
	assert.True(t, running)
	assert.Equal(t, before, f.controller.Activity().Len())
}

func TestMonitorRejectsBadCronSpec(t *testing.T) {
	f := newFixture()

	m := NewHoursMonitor(f.controller, "not a cron spec")
	assert.Error(t, m.Start())
}
