package engine

import "time"

// LogLevel classifies an operational log line
type LogLevel int

const (
	LevelError LogLevel = iota
	LevelWarn
	LevelInfo
)

func (l LogLevel) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	}
	return "INFO"
}

// LogRecord is one displayable log line
type LogRecord struct {
	Time    time.Time
	Level   LogLevel
	Message string
}

// logRingCapacity bounds the record history; oldest lines are evicted
const logRingCapacity = 256

// LogRing is a bounded append-only record of operational log lines.
// Lossy by design: appending never blocks and never fails.
type LogRing struct {
	records []LogRecord
}

// NewLogRing creates an empty ring
func NewLogRing() *LogRing {
	return &LogRing{records: make([]LogRecord, 0, logRingCapacity)}
}

// Push appends a record, evicting the oldest at capacity
func (r *LogRing) Push(level LogLevel, message string) {
	if len(r.records) >= logRingCapacity {
		copy(r.records, r.records[1:])
		r.records = r.records[:len(r.records)-1]
	}
	r.records = append(r.records, LogRecord{Time: time.Now(), Level: level, Message: message})
}

// Records returns the retained lines, oldest first
func (r *LogRing) Records() []LogRecord { return r.records }

// Len returns the number of retained lines
func (r *LogRing) Len() int { return len(r.records) }
