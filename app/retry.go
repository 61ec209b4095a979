package app

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.ntppool.org/common/logger"

	"github.com/mothmailer/mothmailer/record"
	"github.com/mothmailer/mothmailer/selector"
)

type selecter interface {
	Select(ctx context.Context) (*record.Selection, error)
}

func newBackOff() backoff.BackOff {
	expback := backoff.NewExponentialBackOff()
	expback.InitialInterval = time.Second * 3
	expback.MaxInterval = time.Second * 60
	return expback
}

// selectWithRetry runs the selection again when the candidate source
// failed, up to retries more times. Other errors are returned as is.
func selectWithRetry(ctx context.Context, sl selecter, retries int, bo backoff.BackOff) (*record.Selection, error) {
	log := logger.FromContext(ctx)

	for try := 0; ; try++ {
		sel, err := sl.Select(ctx)
		if err == nil {
			return sel, nil
		}

		var serr *selector.SourceCallError
		if !errors.As(err, &serr) || try >= retries {
			return nil, err
		}

		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			return nil, err
		}
		log.WarnContext(ctx, "candidate source failed, retrying", "err", err, "retry", try+1, "wait", wait)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}
