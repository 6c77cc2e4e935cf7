package clock

import "time"

// Clock отделяет системное время от логики, завязанной на торговые часы.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func System() Clock {
	return systemClock{}
}
