package doses

type Status string

const (
	StatusGiven   Status = "given"
	StatusMissed  Status = "missed"
	StatusSkipped Status = "skipped"
)

func (s Status) Valid() bool {
	switch s {
	case StatusGiven, StatusMissed, StatusSkipped:
		return true
	}
	return false
}

// Origin identifica el canal por el que llegó un registro (label de métricas).
type Origin string

const (
	OriginApp   Origin = "app"
	OriginKafka Origin = "kafka"
)
