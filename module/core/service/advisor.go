package service

import (
	"time"

	"github.com/chalosafe/safezone/module/core/domain"
)

// Advisor gives time-of-day guidance alongside location updates. It never
// raises alerts or moves the safety score.
type Advisor struct {
	loc *time.Location
}

func NewAdvisor(loc *time.Location) *Advisor {
	if loc == nil {
		loc = time.UTC
	}
	return &Advisor{loc: loc}
}

// Analyze flags late night activity, between 22:00 and 05:59 local time.
func (a *Advisor) Analyze(ts time.Time) domain.Advisory {
	hour := ts.In(a.loc).Hour()
	if hour >= 22 || hour <= 5 {
		return domain.Advisory{
			Level:   domain.AdvisoryModerate,
			Message: "Late night activity detected",
			Recommendations: []string{
				"Stay in well-lit areas",
				"Share location with emergency contacts",
			},
		}
	}
	return domain.Advisory{
		Level:   domain.AdvisorySafe,
		Message: "Area appears safe",
		Recommendations: []string{
			"Continue normal activities",
			"Stay aware of surroundings",
		},
	}
}
