package payment

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrDeclined is reported when a charge is rejected by the payment backend.
var ErrDeclined = errors.New("payment declined")

// Processor defines behavior for charging a booking amount.
type Processor interface {
	Charge(ctx context.Context, amount float64) error
}

// Stub is a Processor that accepts every charge without contacting a
// real payment backend. Real payment processing is out of scope; the
// booking flow only needs a success/failure signal.
type Stub struct {
	logger *zap.Logger
}

// NewStub creates a stub payment processor.
func NewStub(logger *zap.Logger) *Stub {
	return &Stub{logger: logger}
}

// Charge logs the requested amount and reports success.
func (s *Stub) Charge(ctx context.Context, amount float64) error {
	s.logger.Info("processing payment", zap.Float64("amount", amount))
	return nil
}

var _ Processor = (*Stub)(nil)
