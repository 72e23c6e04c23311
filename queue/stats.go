package queue

// Stats is a point-in-time snapshot of a queue's counters.
type Stats struct {
	Capacity    int    `json:"capacity"`
	Size        int    `json:"size"`
	HighWater   int    `json:"high_water"`
	Puts        uint64 `json:"puts"`
	Gets        uint64 `json:"gets"`
	PutWaits    uint64 `json:"put_waits"`
	GetWaits    uint64 `json:"get_waits"`
	PutTimeouts uint64 `json:"put_timeouts"`
	GetTimeouts uint64 `json:"get_timeouts"`
}
