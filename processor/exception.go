package processor

import "go.uber.org/zap"

// ExceptionHandler is the sink for every failure a handler or its lifecycle
// hooks can throw, isolating the run loop from user code (§6, §7).
type ExceptionHandler interface {
	HandleEventException(err error, seq int64, event any)
	HandleOnBatchException(err error, seq int64, batch any)
	HandleOnTimeoutException(err error, seq int64)
	HandleOnStartException(err error)
	HandleOnShutdownException(err error)
}

// LoggingExceptionHandler is the default ExceptionHandler: it logs and
// continues, never aborting the run loop (§7 propagation policy). It is
// built on zap the way the teacher's cold-path debug package logs
// infrequent failures — structured fields instead of string concatenation,
// since this sits off the hot path entirely.
type LoggingExceptionHandler struct {
	name string
	log  *zap.SugaredLogger
}

// NewLoggingExceptionHandler builds a LoggingExceptionHandler tagged with
// name (typically the owning processor's diagnostic ID). A nil logger
// falls back to a production zap logger.
func NewLoggingExceptionHandler(name string, log *zap.Logger) *LoggingExceptionHandler {
	if log == nil {
		log, _ = zap.NewProduction()
	}
	return &LoggingExceptionHandler{name: name, log: log.Sugar()}
}

func (h *LoggingExceptionHandler) HandleEventException(err error, seq int64, event any) {
	h.log.Errorw("event handler failed", "processor", h.name, "sequence", seq, "error", err, "event", event)
}

func (h *LoggingExceptionHandler) HandleOnBatchException(err error, seq int64, batch any) {
	h.log.Errorw("batch handler failed", "processor", h.name, "sequence", seq, "error", err)
}

func (h *LoggingExceptionHandler) HandleOnTimeoutException(err error, seq int64) {
	h.log.Errorw("OnTimeout handler failed", "processor", h.name, "sequence", seq, "error", err)
}

func (h *LoggingExceptionHandler) HandleOnStartException(err error) {
	h.log.Errorw("OnStart handler failed", "processor", h.name, "error", err)
}

func (h *LoggingExceptionHandler) HandleOnShutdownException(err error) {
	h.log.Errorw("OnShutdown handler failed", "processor", h.name, "error", err)
}

var _ ExceptionHandler = (*LoggingExceptionHandler)(nil)
