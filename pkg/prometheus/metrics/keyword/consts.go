package keyword

const (
	TotalCommitsMetricName    = "ring_commits_total"
	TotalDropsMetricName      = "ring_drops_total"
	RingHoldsMetricName       = "ring_holds"
	RingHeldSlotsMetricName   = "ring_held_slots"
	RingSkippedMetricName     = "ring_recycle_candidates"
	RingCapacityMetricName    = "ring_capacity"
	FrameFillTimeMetricName   = "frame_fill_duration_seconds"
	ReaderLagFramesMetricName = "reader_lag_frames"
)
