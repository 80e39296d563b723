package bot

import (
	"context"
	"errors"
	"net"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sethvargo/go-retry"
)

const (
	maxSendRetries = 1
	maxRetryAfter  = 5 * time.Second
	timeoutDelay   = 550 * time.Millisecond
	sendJitter     = 250 * time.Millisecond
)

// sendWithRetry sends c, retrying once on network timeouts and on rate
// limits short enough to wait out.
func (b *Bot) sendWithRetry(ctx context.Context, c tgbotapi.Chattable) error {
	var wait time.Duration
	backoff := retry.WithMaxRetries(maxSendRetries,
		retry.WithJitter(sendJitter, retry.BackoffFunc(func() (time.Duration, bool) {
			return wait, false
		})))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := b.api.Send(c)
		if err == nil {
			return nil
		}
		d, ok := retryDelay(err)
		if !ok {
			return err
		}
		wait = d
		b.logger.Warn(ctx, "send failed", "error", err, "retry_in", d)
		return retry.RetryableError(err)
	})
}

// retryDelay returns the base wait before resending after err, and whether
// err is worth a retry at all. Rate limit waits are padded by the jitter
// bound so the jittered wait never undercuts retry_after.
func retryDelay(err error) (time.Duration, bool) {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.RetryAfter <= 0 {
			return 0, false
		}
		wait := time.Duration(apiErr.RetryAfter) * time.Second
		return wait + sendJitter, wait <= maxRetryAfter
	}
	if isTimeout(err) {
		return timeoutDelay, true
	}
	return 0, false
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
