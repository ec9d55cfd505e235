package modules

import "time"

// QueueState describes the lifecycle state of a queue.
type QueueState uint8

// Queue States.
const (
	QueueStatePending QueueState = 0 // created, modules may be added
	QueueStateRunning QueueState = 1 // started, timers armed
	QueueStateStopped QueueState = 2 // stopped, timers canceled
)

func (s QueueState) String() string {
	switch s {
	case QueueStatePending:
		return "pending"
	case QueueStateRunning:
		return "running"
	case QueueStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// QueueStatus holds an exported status summary of a queue.
type QueueStatus struct {
	Name    string         `json:"name"`
	State   string         `json:"state"`
	Entries []*EntryStatus `json:"entries"`
}

// EntryStatus holds an exported status summary of a queued module.
type EntryStatus struct {
	Module string `json:"module"`
	Kind   string `json:"kind"`
	Delay  string `json:"delay"`
	Offset string `json:"offset"`
	Armed  bool   `json:"armed"`
	Fired  bool   `json:"fired"`
}

// Status exports status data of the queue.
func (q *Queue) Status() *QueueStatus {
	q.lock.Lock()
	defer q.lock.Unlock()

	status := &QueueStatus{
		Name:    q.name,
		State:   q.state.String(),
		Entries: make([]*EntryStatus, 0, len(q.entries)),
	}
	var offset time.Duration
	for _, e := range q.entries {
		offset += e.delay
		status.Entries = append(status.Entries, &EntryStatus{
			Module: e.module.Name(),
			Kind:   e.kind.String(),
			Delay:  e.delay.String(),
			Offset: offset.String(),
			Armed:  e.timer != nil,
			Fired:  e.fired,
		})
	}
	return status
}
