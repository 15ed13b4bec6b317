// Package strategy defines the base contract shared by pluggable domain
// strategies such as the payment allocation orders.
package strategy

// StrategyType groups strategies by the concern they plug into.
type StrategyType string

const (
	StrategyTypeAllocation StrategyType = "allocation"
)

func (t StrategyType) String() string { return string(t) }

// IsValid reports whether the type names a known strategy family.
func (t StrategyType) IsValid() bool {
	return t == StrategyTypeAllocation
}

// Strategy is the minimal surface a registered strategy exposes.
type Strategy interface {
	// Name returns the unique name of the strategy
	Name() string
	// Type returns the type of the strategy
	Type() StrategyType
	// Description returns a human-readable description
	Description() string
}

// BaseStrategy holds the descriptive fields so concrete strategies only
// implement their domain behavior.
type BaseStrategy struct {
	name         string
	strategyType StrategyType
	description  string
}

func NewBaseStrategy(name string, strategyType StrategyType, description string) BaseStrategy {
	return BaseStrategy{
		name:         name,
		strategyType: strategyType,
		description:  description,
	}
}

func (s BaseStrategy) Name() string { return s.name }

func (s BaseStrategy) Type() StrategyType { return s.strategyType }

func (s BaseStrategy) Description() string { return s.description }
