package contract

import "strings"

type IntentType string

const (
	IntentOrder      IntentType = "ORDER"
	IntentQuery      IntentType = "QUERY"
	IntentPlaceOrder IntentType = "PLACE_ORDER"
	IntentUnknown    IntentType = "UNKNOWN"
)

// ParseIntentType validates a raw classifier label. Anything outside the four
// known cases coerces to UNKNOWN; the classifier boundary must never leak a
// fifth intent into the dispatcher.
func ParseIntentType(raw string) IntentType {
	switch IntentType(strings.ToUpper(strings.TrimSpace(raw))) {
	case IntentOrder:
		return IntentOrder
	case IntentQuery:
		return IntentQuery
	case IntentPlaceOrder:
		return IntentPlaceOrder
	default:
		return IntentUnknown
	}
}

// Intent is the structured reading of one inbound chat message.
type Intent struct {
	Type       IntentType `json:"intent"`
	Items      []string   `json:"items,omitempty"`
	Restaurant string     `json:"restaurant,omitempty"`
	Location   string     `json:"location,omitempty"`
}

type RestaurantInfo struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

// DeliveryInfo is immutable for the duration of one checkout attempt.
type DeliveryInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// UserItems is one participant's item list in the order it was collected.
type UserItems struct {
	User  string   `json:"user"`
	Items []string `json:"items"`
}

type StepOutcome string

const (
	StepOK       StepOutcome = "ok"
	StepNotFound StepOutcome = "not_found"
	StepTimeout  StepOutcome = "timeout"
	StepSkipped  StepOutcome = "skipped"
)

// StepResult records the outcome of a single browser interaction so that
// partial failures stay visible in the final result instead of only in logs.
type StepResult struct {
	Stage   string      `json:"stage"`
	Target  string      `json:"target"`
	Outcome StepOutcome `json:"outcome"`
	Detail  string      `json:"detail,omitempty"`
}

type CheckoutRequest struct {
	Restaurant RestaurantInfo `json:"restaurant"`
	Orders     []UserItems    `json:"orders"`
	Delivery   DeliveryInfo   `json:"delivery"`
}

type CheckoutResult struct {
	Success    bool         `json:"success"`
	Message    string       `json:"message"`
	Err        string       `json:"error,omitempty"`
	Screenshot []byte       `json:"-"`
	Steps      []StepResult `json:"steps,omitempty"`
}

// Failed returns the steps that did not complete, in pipeline order.
func (r CheckoutResult) Failed() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.Outcome != StepOK {
			out = append(out, s)
		}
	}
	return out
}
