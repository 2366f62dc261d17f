package httputil_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matzehuels/artboard/pkg/httputil"
)

func ExampleRetry() {
	attempts := 0
	b := httputil.Backoff{Attempts: 3, Delay: time.Millisecond}
	err := httputil.Retry(context.Background(), b, func() error {
		attempts++
		if attempts < 3 {
			return &httputil.RetryableError{Err: errors.New("503 service unavailable")}
		}
		return nil
	})
	fmt.Println("attempts:", attempts)
	fmt.Println("error:", err)
	// Output:
	// attempts: 3
	// error: <nil>
}
