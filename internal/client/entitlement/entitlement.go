// Package entitlement turns owned store products into a quota tier.
package entitlement

import (
	"context"
	"time"

	"github.com/gokigennote/gokigen/internal/client/quota"
)

const (
	ProductPremiumMonthly = "gokigen.premium.monthly"
	ProductLifetime       = "gokigen.lifetime"
)

// Ownership is one purchase as reported by the store.
type Ownership struct {
	ProductID string     `json:"productId"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
}

// Active reports whether the purchase currently grants anything.
func (o Ownership) Active(now time.Time) bool {
	if o.RevokedAt != nil && !o.RevokedAt.After(now) {
		return false
	}
	if o.ExpiresAt != nil && !o.ExpiresAt.After(now) {
		return false
	}
	return true
}

// Resolve picks exactly one tier. Lifetime wins over a subscription when
// both are owned.
func Resolve(owned []Ownership, now time.Time) quota.Tier {
	var lifetime, premium bool
	for _, o := range owned {
		if !o.Active(now) {
			continue
		}
		switch o.ProductID {
		case ProductLifetime:
			lifetime = true
		case ProductPremiumMonthly:
			premium = true
		}
	}
	switch {
	case lifetime:
		return quota.TierLifetime
	case premium:
		return quota.TierSubscription
	default:
		return quota.TierFree
	}
}

// Provider reports current purchases.
type Provider interface {
	Owned(ctx context.Context) ([]Ownership, error)
}

// StaticProvider serves a fixed list, typically from configuration.
type StaticProvider struct {
	Items []Ownership
}

func (p StaticProvider) Owned(context.Context) ([]Ownership, error) {
	return p.Items, nil
}
