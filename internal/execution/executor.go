package execution

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"factorsim/internal/domain"
)

// OrderRejectedError reports a buy that failed its preconditions. There are
// no partial fills: a rejected order leaves the portfolio untouched.
type OrderRejectedError struct {
	Symbol string
	Reason string
}

func (e OrderRejectedError) Error() string {
	return fmt.Sprintf("order for %s rejected: %s", e.Symbol, e.Reason)
}

// ExecutedTrade is one filled buy, kept for the reporting layer.
type ExecutedTrade struct {
	ID     uuid.UUID
	Symbol string
	Shares decimal.Decimal
	Price  decimal.Decimal
	Amount decimal.Decimal
	Date   time.Time
}

// Executor converts approved cash allocations into fractional-share
// purchases. It is the only component that mutates the portfolio, and only
// ever by buying; selling does not exist in this version.
type Executor struct {
	trades []ExecutedTrade
}

func NewExecutor() *Executor {
	return &Executor{}
}

// Buy spends amount on symbol at price, appending a new lot with the spent
// amount as cost basis and decrementing cash by exactly that amount. Shares
// are fractional; nothing is rounded to whole lots.
func (e *Executor) Buy(portfolio *domain.Portfolio, symbol string, amount, price decimal.Decimal, date time.Time) (ExecutedTrade, error) {
	if !price.IsPositive() {
		return ExecutedTrade{}, OrderRejectedError{Symbol: symbol, Reason: fmt.Sprintf("non-positive price %s", price)}
	}
	if !amount.IsPositive() {
		return ExecutedTrade{}, OrderRejectedError{Symbol: symbol, Reason: fmt.Sprintf("non-positive amount %s", amount)}
	}
	if amount.GreaterThan(portfolio.Cash) {
		return ExecutedTrade{}, OrderRejectedError{Symbol: symbol, Reason: fmt.Sprintf("amount %s exceeds cash %s", amount, portfolio.Cash)}
	}

	shares := amount.Div(price)
	portfolio.AddLot(symbol, domain.Lot{
		Shares:     shares,
		CostBasis:  amount,
		AcquiredAt: date,
	})
	portfolio.Cash = portfolio.Cash.Sub(amount)

	trade := ExecutedTrade{
		ID:     uuid.New(),
		Symbol: symbol,
		Shares: shares,
		Price:  price,
		Amount: amount,
		Date:   date,
	}
	e.trades = append(e.trades, trade)
	return trade, nil
}

// Trades returns the fill log in execution order.
func (e *Executor) Trades() []ExecutedTrade {
	out := make([]ExecutedTrade, len(e.trades))
	copy(out, e.trades)
	return out
}
