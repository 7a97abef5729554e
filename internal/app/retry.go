package app

import "github.com/cenkalti/backoff"

// RetryPolicy runs a durable write with some retry strategy.
type RetryPolicy interface {
	Run(attempts uint64, op func() error) error
}

// ExponentialRetry retries with exponential backoff up to the attempt
// budget. This is the production policy.
type ExponentialRetry struct{}

func (ExponentialRetry) Run(attempts uint64, op func() error) error {
	return backoff.Retry(op, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), attempts))
}
