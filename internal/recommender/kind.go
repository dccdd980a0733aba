package recommender

import "github.com/jonathan/skill-recommender/internal/types"

// DefaultProviderBonus is added to the similarity of certificates whose
// provider already issued one of the user's certificates.
const DefaultProviderBonus = 0.125

// Kind describes how one item kind plugs into the shared pipeline.
type Kind struct {
	Name types.ItemKind
	// ProviderBonus is applied before diversification. Zero disables the
	// provider policy entirely.
	ProviderBonus float64
}

// Certificates returns the certificate descriptor with the given provider
// bonus.
func Certificates(bonus float64) Kind {
	return Kind{Name: types.KindCertificates, ProviderBonus: bonus}
}

// Positions returns the position descriptor. Positions have no provider.
func Positions() Kind {
	return Kind{Name: types.KindPositions}
}

// UsesProviders reports whether the kind applies a provider bonus.
func (k Kind) UsesProviders() bool {
	return k.ProviderBonus != 0
}

func (k Kind) String() string {
	return string(k.Name)
}
