package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/oksasatya/otomasyon-magazasi/internal/metrics"
	"github.com/oksasatya/otomasyon-magazasi/pkg/helpers"
	"github.com/oksasatya/otomasyon-magazasi/pkg/mailer"
)

const sendTimeout = 15 * time.Second

type outcome int

const (
	ack outcome = iota
	drop
	retry
)

type worker struct {
	sender  mailer.Sender
	limiter *rate.Limiter
	logger  *logrus.Logger
}

func newWorker(sender mailer.Sender, perSec float64, logger *logrus.Logger) *worker {
	limit := rate.Inf
	if perSec > 0 {
		limit = rate.Limit(perSec)
	}
	return &worker{sender: sender, limiter: rate.NewLimiter(limit, 1), logger: logger}
}

// handle renders and sends one queued job. Malformed or unrenderable jobs are
// dropped; provider failures are retried once.
func (w *worker) handle(ctx context.Context, body []byte, redelivered bool) outcome {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		helpers.LogWarn(w.logger, "bad message", err, nil)
		return drop
	}
	if job.To == "" {
		helpers.LogWarn(w.logger, "message without recipient", nil, nil)
		return drop
	}
	if err := helpers.RenderJob(&job); err != nil {
		helpers.LogError(w.logger, "render failed", err, logrus.Fields{"template": job.Template, "to": job.To})
		return drop
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return retry
	}
	c, cancel := context.WithTimeout(ctx, sendTimeout)
	err := w.sender.Send(c, job.To, job.Subject, job.Text, job.HTML)
	cancel()
	metrics.RecordEmail(w.sender.Name(), err)
	if err != nil {
		helpers.LogError(w.logger, "send failed", err, logrus.Fields{"to": job.To, "provider": w.sender.Name(), "redelivered": redelivered})
		if redelivered {
			return drop
		}
		return retry
	}
	helpers.LogInfo(w.logger, "email sent", logrus.Fields{"to": job.To, "subject": job.Subject, "provider": w.sender.Name()})
	return ack
}
