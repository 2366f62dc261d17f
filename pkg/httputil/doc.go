// Package httputil holds the retry policy used by the content-source HTTP
// clients.
//
// [Retry] runs an operation on a [Backoff] schedule. Only errors wrapped in
// [RetryableError] are retried: clients wrap connection failures, 429 and
// 5xx responses, while other 4xx responses and decode errors fail at once.
// A 429 or 503 may carry a Retry-After header; [RetryAfter] reads it and the
// client passes it on in RetryableError.After.
//
//	err := httputil.Retry(ctx, httputil.DefaultBackoff, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
//
// Cancelling ctx aborts the wait between attempts.
package httputil
