package domain

// Side is the direction of a single order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

func (s Side) String() string {
	return string(s)
}
