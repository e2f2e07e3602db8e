package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/amara-obi/designweek/constants"
	"github.com/amara-obi/designweek/internal/repository"
)

// ProgressDetector derives an engagement's phase and status from the
// categories detected on its jobs and raw extractions. The signal is
// advisory: highest detected phase wins, progress is applied forward only,
// and a COMPLETE engagement is never touched.
//
// When two signals disagree at the same phase the result is identical under
// max() regardless of scan order, so no tie-break is needed; jobs are
// scanned before raw extractions purely for determinism.
type ProgressDetector struct {
	store  *repository.Store
	logger *slog.Logger
}

func NewProgressDetector(store *repository.Store, logger *slog.Logger) *ProgressDetector {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressDetector{store: store, logger: logger}
}

// Detect recomputes the engagement's phase/status from stored signals and
// persists only forward movement.
func (d *ProgressDetector) Detect(ctx context.Context, engagementID uuid.UUID) error {
	eng, err := d.store.Engagements.Get(ctx, engagementID)
	if err != nil {
		return err
	}
	if eng.Status == constants.EngagementComplete {
		return nil
	}

	highest := 0

	jobs, err := d.store.Jobs.ListByEngagement(ctx, engagementID)
	if err != nil {
		return err
	}
	for _, job := range jobs {
		if job.DetectedCategory == nil {
			continue
		}
		if p := constants.Phase(*job.DetectedCategory); p > highest {
			highest = p
		}
	}

	recs, err := d.store.Extractions.ListByEngagement(ctx, engagementID)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if p := constants.Phase(rec.Category); p > highest {
			highest = p
		}
	}

	if highest == 0 {
		return nil
	}

	phase := eng.Phase
	if highest > phase {
		phase = highest
	}
	status := eng.Status
	if detected := constants.PhaseStatus(highest); constants.StatusRank(detected) > constants.StatusRank(status) {
		status = detected
	}
	if phase == eng.Phase && status == eng.Status {
		return nil
	}

	d.logger.Info("phase.detected", "engagement_id", engagementID,
		"phase", phase, "status", status, "was_phase", eng.Phase, "was_status", eng.Status)
	return d.store.Engagements.UpdateProgress(ctx, engagementID, status, phase)
}
