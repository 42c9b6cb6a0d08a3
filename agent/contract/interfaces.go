package contract

import "context"

// Classifier turns raw message text into a structured intent. Implementations
// must absorb upstream failures and yield IntentUnknown instead of an error;
// the dispatcher treats classification as infallible.
type Classifier interface {
	Classify(ctx context.Context, text string) Intent
}

// Resolver maps a spoken restaurant name to ordering metadata. found=false
// with a nil error means the lookup worked but nothing matched.
type Resolver interface {
	Resolve(ctx context.Context, name, location string) (info RestaurantInfo, found bool, err error)
}

// CheckoutRunner drives one browser session end to end. It owns the session
// exclusively for the whole run and reports per-step outcomes in the result.
type CheckoutRunner interface {
	Run(ctx context.Context, req CheckoutRequest) CheckoutResult
}

// Notifier delivers out-of-band status updates (the late reply after an
// asynchronous checkout) back to the chat transport.
type Notifier interface {
	Notify(ctx context.Context, message string)
}
