package pricing

import (
	"errors"

	"github.com/themainkeys/wingman.app-sub000/internal/identity"
)

var ErrNoPriceAvailable = errors.New("no price available for this user")

// ExperiencePrices are the per-audience rates of an experience. A nil rate is undefined.
type ExperiencePrices struct {
	Promoter *Amount `json:"promoter,omitempty"`
	Female   *Amount `json:"female,omitempty"`
	Male     *Amount `json:"male,omitempty"`
	General  *Amount `json:"general,omitempty"`
}

// ResolveExperiencePrice selects exactly one unit price for the viewer.
func ResolveExperiencePrice(p ExperiencePrices, viewer identity.User) (Amount, error) {
	switch {
	case viewer.IsStaff() && p.Promoter != nil:
		return *p.Promoter, nil
	case viewer.Tier == identity.TierFemaleAccess && p.Female != nil:
		return *p.Female, nil
	case viewer.Tier == identity.TierMaleAccess && p.Male != nil:
		return *p.Male, nil
	case p.General != nil:
		return *p.General, nil
	}
	for _, fallback := range []*Amount{p.General, p.Male, p.Female} {
		if fallback != nil {
			return *fallback, nil
		}
	}
	return 0, ErrNoPriceAvailable
}
