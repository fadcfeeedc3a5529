package unit

import (
	"context"
	"log/slog"
	"time"
)

// phaseLogger emits one structured record per Load phase transition —
// unit id, phase name, elapsed duration, outcome — through a
// standard-library slog.Logger. No third-party logging library appears
// anywhere in the example pack this module was grounded on, so log/slog
// (structured, leveled, zero-dependency) is the idiomatic choice rather
// than a hand-rolled formatter.
//
// A nil logger disables logging entirely: the zero-value Manager built
// via NewManager(out, nil) pays nothing for it.
type phaseLogger struct {
	logger *slog.Logger
}

func newPhaseLogger(logger *slog.Logger) *phaseLogger {
	return &phaseLogger{logger: logger}
}

// record logs one phase's outcome. err is the phase's result, not
// necessarily a fatal Load error — instantiate/compile/run phases both
// stop Load on a non-nil err, but the record is emitted either way.
func (p *phaseLogger) record(unitName string, id ID, phase string, start time.Time, err error) {
	if p == nil || p.logger == nil {
		return
	}
	level := slog.LevelInfo
	outcome := "ok"
	if err != nil {
		level = slog.LevelWarn
		outcome = "error"
	}
	p.logger.Log(context.Background(), level, "load phase",
		"unit", unitName,
		"unit_id", uint64(id),
		"phase", phase,
		"elapsed", time.Since(start),
		"outcome", outcome,
	)
}
