package app

import (
	"context"
	"fmt"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	if s.app.Extractor != nil {
		status.Components["parser"] = "ok"
	} else {
		status.Status = "degraded"
		status.Components["parser"] = "missing"
	}

	if s.app.Lister != nil {
		status.Components["locality_cache"] = fmt.Sprintf("ok (%d listings)", s.app.Lister.Len())
	}

	if s.app.Config.DB.Enabled {
		st, err := s.app.Store()
		switch {
		case err != nil:
			status.Status = "degraded"
			status.Components["store"] = "error: " + err.Error()
		case st != nil:
			status.Components["store"] = "ok"
		}
	}

	if err := ctx.Err(); err != nil {
		status.Status = "degraded"
	}
	return status
}
