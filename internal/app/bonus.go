package app

// BonusPolicy decides the one-time completion bonus for the team finishing at rank (1-based).
type BonusPolicy interface {
	Bonus(rank int) int
}

// DefaultCompletionBonus is used when no tiers are configured.
var DefaultCompletionBonus = []int{500, 300, 200, 100, 50}

// TieredBonus pays Tiers[rank-1]; ranks beyond the list earn nothing.
type TieredBonus struct {
	Tiers []int
}

func NewTieredBonus(tiers []int) TieredBonus {
	if len(tiers) == 0 {
		tiers = DefaultCompletionBonus
	}
	return TieredBonus{Tiers: append([]int(nil), tiers...)}
}

func (b TieredBonus) Bonus(rank int) int {
	if rank < 1 || rank > len(b.Tiers) {
		return 0
	}
	if b.Tiers[rank-1] < 0 {
		return 0
	}
	return b.Tiers[rank-1]
}
