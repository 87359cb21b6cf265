package server

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// startReaper запускает по расписанию cfg.SessionReapSchedule закрытие простаивающих сессий.
// При нулевом SessionIdleTTL возвращает nil.
func (s *Server) startReaper() (*cron.Cron, error) {
	if s.cfg.SessionIdleTTL <= 0 {
		return nil, nil
	}
	dispatcher := cron.New(
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)
	ttl := s.cfg.SessionIdleTTL
	if _, err := dispatcher.AddFunc(s.cfg.SessionReapSchedule, func() { s.sessions.reap(ttl) }); err != nil {
		return nil, fmt.Errorf("schedule session reaper %q: %w", s.cfg.SessionReapSchedule, err)
	}
	dispatcher.Start()
	slog.Info("Session reaper started", "schedule", s.cfg.SessionReapSchedule, "ttl", ttl)
	return dispatcher, nil
}
