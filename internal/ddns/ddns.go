// Package ddns periodically refreshes a dynamic-DNS host record by GETing a
// configured update URL, so a self-hosted deployment behind a residential
// IP stays reachable at a stable hostname. Failures are logged and never
// propagate: a stale DNS record is not worth tearing down the server over.
package ddns

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Updater GETs updateURL on a fixed interval until its context is cancelled.
type Updater struct {
	updateURL string
	interval  time.Duration
	client    *http.Client
	logger    zerolog.Logger
}

// New returns an Updater for updateURL, polling every interval.
func New(updateURL string, interval time.Duration, logger zerolog.Logger) *Updater {
	return &Updater{
		updateURL: updateURL,
		interval:  interval,
		client:    &http.Client{Timeout: 10 * time.Second},
		logger:    logger,
	}
}

// Run refreshes the record once immediately, then on every tick, until ctx
// is cancelled.
func (u *Updater) Run(ctx context.Context) {
	u.update(ctx)

	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			u.update(ctx)
		}
	}
}

func (u *Updater) update(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.updateURL, nil)
	if err != nil {
		u.logger.Error().Err(err).Msg("failed to build ddns update request")
		return
	}

	resp, err := u.client.Do(req)
	if err != nil {
		u.logger.Warn().Err(err).Msg("ddns update request failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		u.logger.Warn().Int("status", resp.StatusCode).Msg("ddns update returned non-success status")
		return
	}
	u.logger.Debug().Msg("ddns record updated")
}
