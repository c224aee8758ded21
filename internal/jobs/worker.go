package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"time"

	"gorm.io/gorm"

	"floodmap/internal/need"
)

// Worker drains the notification queue. The needs table the change stream
// mirrors is the source of truth for notification content: the pin is
// re-read at delivery time so the message can never disagree with the
// current status.
type Worker struct {
	ID   string
	Repo *Repo
	DB   *gorm.DB
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(800 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := w.Repo.Claim(w.ID)
			if err != nil {
				log.Printf("worker claim error: %v\n", err)
				continue
			}
			if job == nil {
				continue
			}
			w.handle(job)
		}
	}
}

func (w *Worker) handle(job *Job) {
	switch job.Type {
	case "NOTIFY_ACCEPTED":
		w.handleAccepted(job)
	default:
		_ = w.Repo.MarkFailed(job.ID, "unknown job type")
	}
}

func (w *Worker) handleAccepted(job *Job) {
	type payload struct {
		NeedID string `json:"need_id"`
	}
	var p payload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		_ = w.Repo.MarkFailed(job.ID, "bad payload")
		return
	}

	var rec need.Need
	if err := w.DB.Where("id = ?", p.NeedID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// pin deleted before delivery, nothing to notify
			_ = w.Repo.MarkDone(job.ID)
			return
		}
		w.retry(job, "db read error")
		return
	}

	if rec.Status != need.StatusAccepted {
		// already resolved or reverted; the notification would lie
		_ = w.Repo.MarkDone(job.ID)
		return
	}

	log.Printf("[NOTIFY] owner=%d need=%s helper=%q phone=%q\n",
		job.UserID, rec.ID, rec.HelperName, rec.HelperPhone)
	_ = w.Repo.MarkDone(job.ID)
}

func (w *Worker) retry(job *Job, errMsg string) {
	attempts := job.Attempts + 1
	if attempts >= job.MaxAttempts {
		_ = w.Repo.MarkFailed(job.ID, errMsg)
		return
	}

	sec := math.Min(math.Pow(2, float64(attempts)), 600)
	next := time.Now().Add(time.Duration(sec) * time.Second)

	_ = w.Repo.RetryLater(job.ID, attempts, next, errMsg)
}
