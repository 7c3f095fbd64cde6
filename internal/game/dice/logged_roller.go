package dice

import "go.uber.org/zap"

// Roller is the single die-rolling primitive handed to combat components.
// Every roll is logged at debug level.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller over src. A nil logger disables logging.
//
// Precondition: src must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	if src == nil {
		panic("dice: NewLoggedRoller called with nil Source")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Roller{src: src, logger: logger}
}

// D20 returns a uniform value in [1, 20].
func (r *Roller) D20() int {
	v := r.src.Intn(20) + 1
	r.logger.Debug("d20", zap.Int("roll", v))
	return v
}

// Dice returns the sum of count independent draws in [1, sides].
//
// Postcondition: Returns 0 when count <= 0 or sides <= 0; otherwise a value
// in [count, count*sides].
func (r *Roller) Dice(count, sides int) int {
	if count <= 0 || sides <= 0 {
		return 0
	}
	total := 0
	for i := 0; i < count; i++ {
		total += r.src.Intn(sides) + 1
	}
	r.logger.Debug("dice",
		zap.Int("count", count),
		zap.Int("sides", sides),
		zap.Int("total", total),
	)
	return total
}

// Intn exposes the underlying source for uniform draws over non-dice ranges
// such as weighted AI selection.
//
// Precondition: n > 0.
func (r *Roller) Intn(n int) int {
	return r.src.Intn(n)
}

// Roll evaluates expr and logs the result.
func (r *Roller) Roll(expr Expression) RollResult {
	result := Roll(expr, r.src)
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result
}

// RollExpr parses expr and rolls it.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return r.Roll(e), nil
}
