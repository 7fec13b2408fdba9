package utils

import (
	"log"
	"strings"
)

// LogEvent prints standardized log line with module/action/request_id.
// Avoid logging sensitive payload; message should be summarized.
func LogEvent(requestID, module, action, message string) {
	req := strings.TrimSpace(requestID)
	log.Printf("[%s] action=%s request_id=%s msg=%s", strings.ToUpper(module), action, req, message)
}

// LogFatalReconciliation flags a charge that could neither be booked nor refunded.
func LogFatalReconciliation(requestID, intentID, message string) {
	LogEvent(requestID, "payment", "reconcile_fatal", "MANUAL_INTERVENTION_REQUIRED intent="+intentID+" "+message)
}
