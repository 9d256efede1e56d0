package health

type Tier string

const (
	TierHealthy      Tier = "healthy"
	TierModerateRisk Tier = "moderate_risk"
	TierAtRisk       Tier = "at_risk"
)

const (
	HealthyThreshold      = 90.0
	ModerateRiskThreshold = 70.0

	// CriticalThreshold marks customers surfaced on the dashboard and alerted by the sweep.
	CriticalThreshold = 50.0
)

func Classify(score float64) Tier {
	switch {
	case score >= HealthyThreshold:
		return TierHealthy
	case score >= ModerateRiskThreshold:
		return TierModerateRisk
	default:
		return TierAtRisk
	}
}

func IsCritical(score float64) bool {
	return score <= CriticalThreshold
}
