package models

import "time"

// Profile is the locally cached parent profile. Only the plan matters for quota.
type Profile struct {
	UpdatedAt        time.Time        `json:"updatedAt"`
	ParentName       string           `json:"parentName,omitempty"`
	SubscriptionPlan SubscriptionTier `json:"subscriptionPlan"`
}

// Tier returns the profile's plan, falling back to freemium.
func (p *Profile) Tier() SubscriptionTier {
	if p == nil {
		return TierFreemium
	}
	return ParseTier(string(p.SubscriptionPlan))
}
