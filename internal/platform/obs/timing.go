package obs

import (
	"context"
	"log"
	"time"
)

type ctxKey string

// RequestIDKey carries the inbound API request id, when there is one.
const RequestIDKey ctxKey = "req_id"

// Time logs the duration of an operation and its error, if any.
//
//	defer obs.Time(ctx, "weatherapi.forecast")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	reqID, _ := ctx.Value(RequestIDKey).(string)

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			log.Printf("DEBUG: req_id=%s op=%s dur=%dms err=%v", reqID, name, dur.Milliseconds(), *errp)
			return
		}
		log.Printf("DEBUG: req_id=%s op=%s dur=%dms", reqID, name, dur.Milliseconds())
	}
}
