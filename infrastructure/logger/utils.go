package logger

import (
	"time"
)

// slowOperationThreshold is the duration above which a measured operation is
// reported at warn level.
const slowOperationThreshold = 5 * time.Second

// LogAndMeasureExecutionTime traces the start of operation and returns a
// function that logs its end along with the elapsed time. Operations slower
// than slowOperationThreshold are reported as warnings.
func LogAndMeasureExecutionTime(log *Logger, operation string) (onEnd func()) {
	start := time.Now()
	log.Tracef("%s start", operation)
	return func() {
		elapsed := time.Since(start)
		if elapsed > slowOperationThreshold {
			log.Warnf("%s took %s", operation, elapsed)
			return
		}
		log.Debugf("%s end. Took: %s", operation, elapsed)
	}
}
