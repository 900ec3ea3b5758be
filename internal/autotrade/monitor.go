package autotrade

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// HoursMonitor reconciles the live run state with trading hours and the
// persisted snapshot on a coarse schedule, independent of the trading poll
// interval: it pauses a running loop when the market closes and resumes a
// saved one when it reopens. It never overrides user intent: a loop the
// user stopped has no snapshot and stays stopped.
type HoursMonitor struct {
	controller *Controller
	cron       *cron.Cron
	spec       string
}

func NewHoursMonitor(c *Controller, cronSpec string) *HoursMonitor {
	return &HoursMonitor{
		controller: c,
		cron:       cron.New(),
		spec:       cronSpec,
	}
}

func (m *HoursMonitor) Start() error {
	if _, err := m.cron.AddFunc(m.spec, m.Check); err != nil {
		return fmt.Errorf("register hours monitor: %w", err)
	}
	m.cron.Start()
	return nil
}

func (m *HoursMonitor) Stop() {
	m.cron.Stop()
}

// Check runs one reconciliation pass. Exported so startup can run it
// immediately instead of waiting for the first cron firing.
func (m *HoursMonitor) Check() {
	c := m.controller

	open := c.clock.IsOpen(c.now())
	running, _, _ := c.Status()

	switch {
	case !open && running:
		c.Pause("market closed")

	case open && !running:
		snap, err := c.store.Load()
		if err != nil {
			c.logger.Error("load auto-trade snapshot", "error", err)
			return
		}
		if snap == nil || !snap.Running {
			return
		}
		if err := snap.Config.Validate(); err != nil {
			c.activity.Appendf(SeverityWarning, "saved auto-trade config is unusable: %v", err)
			c.logger.Warn("saved auto-trade config invalid", "error", err)
			return
		}

		c.activity.Append(SeverityInfo, "market open, resuming saved auto-trade config")
		if err := c.Start(snap.Config); err != nil {
			c.activity.Appendf(SeverityError, "auto-resume failed: %v", err)
			c.logger.Error("auto-resume", "error", err)
		}
	}
}
