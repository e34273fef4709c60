package minimax

import (
	"context"
	"time"

	"menucast/internal/extract"
	"menucast/internal/logging"
)

const defaultPollInterval = 3 * time.Second

var terminalStatuses = map[string]struct{}{
	"succeeded": {},
	"success":   {},
	"done":      {},
	"completed": {},
}

// GenerateVideo submits a render request. When the backend answers with a job
// identifier and no inline result, the job is polled until a terminal status,
// an inline result, a failure envelope, or the video timeout. A timeout is
// reported as a synthetic envelope (see TimeoutEnvelope), not as an error.
func (c *Client) GenerateVideo(ctx context.Context, req VideoRequest) (Response, error) {
	req.Model = firstNonEmpty(req.Model, c.cfg.Models.Video)
	resp, err := c.call(ctx, CapabilityVideo, c.cfg.Paths.Video, req)
	if err != nil {
		return nil, err
	}
	if _, ok := extract.Video(resp); ok {
		return resp, nil
	}
	jobID, ok := extract.JobID(resp)
	if !ok {
		return resp, nil
	}
	return c.pollVideo(ctx, jobID)
}

func (c *Client) pollVideo(ctx context.Context, jobID string) (Response, error) {
	logger := logging.WithContext(ctx, c.logger)
	interval := c.cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	deadline := c.now().Add(c.cfg.VideoTimeout)
	polls := 0
	for c.now().Before(deadline) {
		polls++
		resp, err := c.QueryVideo(ctx, jobID)
		if err != nil {
			if apiErr, ok := IsAPIError(err); ok && apiErr.Payload != nil {
				return apiErr.Payload, nil
			}
			return nil, err
		}
		status, _ := extract.Status(resp)
		if _, terminal := terminalStatuses[status]; terminal {
			logger.Debug("video job finished", logging.String("job_id", jobID), logging.String("status", status), logging.Int("polls", polls))
			return resp, nil
		}
		if _, ok := extract.Video(resp); ok {
			return resp, nil
		}
		logger.Debug("video job pending", logging.String("job_id", jobID), logging.String("status", status))
		if err := c.sleep(ctx, interval); err != nil {
			return nil, err
		}
	}
	logging.WarnWithContext(logger, "video job polling timed out", "video_poll_timeout",
		logging.String("job_id", jobID),
		logging.Duration("timeout", c.cfg.VideoTimeout),
		logging.Int("polls", polls),
		logging.String(logging.FieldErrorHint, "raise minimax.video_timeout_seconds or retry the item"),
	)
	return TimeoutEnvelope(), nil
}
