package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck represents a single health check
type HealthCheck struct {
	Name      string        `json:"name"`
	Status    HealthStatus  `json:"status"`
	LastCheck time.Time     `json:"last_check"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`

	// Degraded checks report HealthStatusDegraded instead of unhealthy on failure.
	Degraded bool `json:"-"`

	CheckFunc func(ctx context.Context) error `json:"-"`
}

// HealthMonitor monitors the health of various components
type HealthMonitor struct {
	checks   map[string]*HealthCheck
	mutex    sync.RWMutex
	logger   *logrus.Entry
	interval time.Duration
	timeout  time.Duration
	wg       sync.WaitGroup
}

// NewHealthMonitor creates a new health monitor
func NewHealthMonitor(logger *logrus.Logger, interval time.Duration) *HealthMonitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	return &HealthMonitor{
		checks:   make(map[string]*HealthCheck),
		logger:   logger.WithField("component", "health"),
		interval: interval,
		timeout:  10 * time.Second,
	}
}

// AddCheck registers a check that marks the service unhealthy when it fails.
func (hm *HealthMonitor) AddCheck(name string, checkFunc func(ctx context.Context) error) {
	hm.addCheck(name, checkFunc, false)
}

// AddDegradedCheck registers a check whose failure only degrades the service.
func (hm *HealthMonitor) AddDegradedCheck(name string, checkFunc func(ctx context.Context) error) {
	hm.addCheck(name, checkFunc, true)
}

func (hm *HealthMonitor) addCheck(name string, checkFunc func(ctx context.Context) error, degraded bool) {
	hm.mutex.Lock()
	defer hm.mutex.Unlock()

	hm.checks[name] = &HealthCheck{
		Name:      name,
		Status:    HealthStatusHealthy,
		Degraded:  degraded,
		CheckFunc: checkFunc,
	}
	hm.logger.Infof("Added health check: %s", name)
}

// Start runs the checks every interval until ctx is done. Wait blocks until the loop exits.
func (hm *HealthMonitor) Start(ctx context.Context) {
	hm.wg.Add(1)
	go hm.monitorLoop(ctx)
	hm.logger.Info("Health monitor started")
}

// Wait blocks until the monitor loop has exited.
func (hm *HealthMonitor) Wait() {
	hm.wg.Wait()
}

func (hm *HealthMonitor) monitorLoop(ctx context.Context) {
	defer hm.wg.Done()

	ticker := time.NewTicker(hm.interval)
	defer ticker.Stop()

	hm.RunChecks(ctx)

	for {
		select {
		case <-ctx.Done():
			hm.logger.Info("Health monitor stopped")
			return
		case <-ticker.C:
			hm.RunChecks(ctx)
		}
	}
}

// RunChecks runs every registered check once, concurrently.
func (hm *HealthMonitor) RunChecks(ctx context.Context) {
	hm.mutex.RLock()
	checks := make([]*HealthCheck, 0, len(hm.checks))
	for _, check := range hm.checks {
		checks = append(checks, check)
	}
	hm.mutex.RUnlock()

	var wg sync.WaitGroup
	for _, check := range checks {
		wg.Add(1)
		go func(check *HealthCheck) {
			defer wg.Done()
			hm.runCheck(ctx, check)
		}(check)
	}
	wg.Wait()
}

func (hm *HealthMonitor) runCheck(ctx context.Context, check *HealthCheck) {
	if check.CheckFunc == nil {
		return
	}

	start := time.Now()
	checkCtx, cancel := context.WithTimeout(ctx, hm.timeout)
	defer cancel()

	err := check.CheckFunc(checkCtx)
	duration := time.Since(start)

	hm.mutex.Lock()
	defer hm.mutex.Unlock()

	check.LastCheck = start
	check.Duration = duration
	oldStatus := check.Status

	if err != nil {
		check.Status = HealthStatusUnhealthy
		if check.Degraded {
			check.Status = HealthStatusDegraded
		}
		check.Error = err.Error()
		if oldStatus != check.Status {
			hm.logger.Errorf("Health check '%s' failed: %v", check.Name, err)
		}
		return
	}

	check.Status = HealthStatusHealthy
	check.Error = ""
	if oldStatus != HealthStatusHealthy {
		hm.logger.Infof("Health check '%s' recovered", check.Name)
	}
}

// GetHealth returns a copy of every check's last result.
func (hm *HealthMonitor) GetHealth() map[string]*HealthCheck {
	hm.mutex.RLock()
	defer hm.mutex.RUnlock()

	result := make(map[string]*HealthCheck, len(hm.checks))
	for name, check := range hm.checks {
		result[name] = &HealthCheck{
			Name:      check.Name,
			Status:    check.Status,
			LastCheck: check.LastCheck,
			Duration:  check.Duration,
			Error:     check.Error,
		}
	}
	return result
}

// GetOverallHealth returns the worst status across all checks.
func (hm *HealthMonitor) GetOverallHealth() HealthStatus {
	hm.mutex.RLock()
	defer hm.mutex.RUnlock()

	hasDegraded := false
	for _, check := range hm.checks {
		switch check.Status {
		case HealthStatusUnhealthy:
			return HealthStatusUnhealthy
		case HealthStatusDegraded:
			hasDegraded = true
		}
	}

	if hasDegraded {
		return HealthStatusDegraded
	}
	return HealthStatusHealthy
}
