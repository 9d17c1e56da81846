// Package dedupe hides duplicate indoor rides from a Strava account.
//
// An indoor trainer session can end up recorded twice: once as a
// zero-distance "Ride" and once as a "VirtualRide" for the same session.
// Each cleanup cycle fetches a page of recent activities, pairs every
// zero-distance ride with the first virtual ride starting within an hour of
// it, and hides the zero-distance twin from the feed.
package dedupe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fitglue/strava-janitor/pkg/integrations/strava"
)

// matchWindow is the maximum start-time difference, inclusive, for a
// zero-distance ride and a virtual ride to count as the same session.
const matchWindow = time.Hour

// ActivityAPI is the slice of the Strava client the cleaner needs.
type ActivityAPI interface {
	ListActivities(ctx context.Context, page, perPage int) ([]strava.ActivitySummary, error)
	UpdateActivity(ctx context.Context, activityID int64, params strava.UpdateActivityParams) (*strava.ActivitySummary, error)
}

// ActivityRef identifies one side of a match.
type ActivityRef struct {
	ID        int64
	Name      string
	StartDate string
}

// Match pairs a hidden zero-distance ride with the virtual ride it
// duplicates.
type Match struct {
	Indoor      ActivityRef
	VirtualRide ActivityRef
}

// CleanupResult is the outcome of one cycle. Both slices preserve the order
// in which matches were made. When Run returns an error, the result still
// holds everything hidden before the failure.
type CleanupResult struct {
	Hidden  []int64
	Matches []Match
}

// Cleaner drives one cleanup cycle at a time. It is not safe for concurrent
// self-invocation; the scheduler must serialize cycles.
type Cleaner struct {
	api       ActivityAPI
	processed *ProcessedSet
	pageSize  int
	logger    *slog.Logger
}

func NewCleaner(api ActivityAPI, pageSize int, logger *slog.Logger) *Cleaner {
	return &Cleaner{
		api:       api,
		processed: NewProcessedSet(),
		pageSize:  pageSize,
		logger:    logger.With("component", "dedupe"),
	}
}

// Run executes one cleanup cycle: fetch the most recent page of activities,
// correlate zero-distance rides against virtual rides, and hide each
// matched duplicate exactly once.
//
// A failed hide aborts the cycle immediately and the error propagates;
// activities hidden earlier in the same cycle stay hidden and recorded, so
// re-running is safe.
func (c *Cleaner) Run(ctx context.Context) (CleanupResult, error) {
	var result CleanupResult

	activities, err := c.api.ListActivities(ctx, 1, c.pageSize)
	if err != nil {
		recordCycle("error")
		return result, fmt.Errorf("fetch activities: %w", err)
	}
	listedGauge.Set(float64(len(activities)))

	// Partition in listing order. Virtual rides are not filtered and not
	// consumed by a match: two zero-distance rides can pair with the same
	// virtual ride in one cycle. Intentional given low duplicate volume.
	var candidates, virtualRides []strava.ActivitySummary
	for _, a := range activities {
		if a.Type == strava.TypeVirtualRide {
			virtualRides = append(virtualRides, a)
		}
		if isIndoorDuplicate(a) && !a.Private && !c.processed.Contains(a.ID) {
			candidates = append(candidates, a)
		}
	}

	for _, indoor := range candidates {
		for _, vr := range virtualRides {
			// First match in listing order wins, not closest in time.
			if !withinWindow(indoor.StartDate, vr.StartDate) {
				continue
			}

			if _, err := c.api.UpdateActivity(ctx, indoor.ID, strava.UpdateActivityParams{
				HideFromHome: strava.Bool(true),
			}); err != nil {
				recordCycle("error")
				return result, fmt.Errorf("hide activity %d: %w", indoor.ID, err)
			}

			c.processed.Add(indoor.ID)
			result.Hidden = append(result.Hidden, indoor.ID)
			result.Matches = append(result.Matches, Match{
				Indoor:      activityRef(indoor),
				VirtualRide: activityRef(vr),
			})
			hiddenCounter.Inc()
			c.logger.Info("Hid duplicate indoor ride",
				"activity_id", indoor.ID,
				"activity_name", indoor.Name,
				"virtual_ride_id", vr.ID)
			break
		}
	}

	recordCycle("success")
	if len(result.Hidden) > 0 {
		c.logger.Info("Cycle hid duplicate activities", "count", len(result.Hidden))
	}
	return result, nil
}

// Processed exposes the cleaner's dedup memory.
func (c *Cleaner) Processed() *ProcessedSet {
	return c.processed
}

func activityRef(a strava.ActivitySummary) ActivityRef {
	return ActivityRef{ID: a.ID, Name: a.Name, StartDate: a.StartDate}
}

// isIndoorDuplicate reports whether an activity looks like the outdoor-style
// twin of an indoor session: a plain ride with zero distance. Privacy and
// already-processed filtering are cycle-level concerns, not properties of
// the activity itself.
func isIndoorDuplicate(a strava.ActivitySummary) bool {
	return a.Type == strava.TypeRide && a.Distance == 0
}

// withinWindow reports whether two start timestamps lie within matchWindow
// of each other, inclusive. An unparsable timestamp on either side never
// matches and never errors.
func withinWindow(a, b string) bool {
	ta, err := time.Parse(time.RFC3339, a)
	if err != nil {
		return false
	}
	tb, err := time.Parse(time.RFC3339, b)
	if err != nil {
		return false
	}
	diff := ta.Sub(tb)
	if diff < 0 {
		diff = -diff
	}
	return diff <= matchWindow
}
