// Package dispatcher routes classified intents onto the order store and owns
// the lifecycle of the asynchronous checkout run. It is the sole writer of
// the store; inbound messages serialize on one mutex so concurrent
// participants never interleave a lost append.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog"

	contractx "github.com/grubgather/grubgather/agent/contract"
	storex "github.com/grubgather/grubgather/agent/store"
	logx "github.com/grubgather/grubgather/pkg/logger"
)

var ErrInvalidMessage = errors.New("message is empty")

const (
	replyNoItems      = "❗ I couldn't find any food item in your message."
	replyNoRestaurant = "🚫 No restaurant selected. Please specify a restaurant first."
	replyPlacing      = "🚚 Starting order placement..."
	replyBusy         = "⏳ An order placement is already running. Hang tight."
	replyHelp         = "🤖 I'm not sure what you meant. Try:\n" +
		"- 'Let's order from Papa John's' (specify restaurant)\n" +
		"- 'I want a large pepperoni pizza' (add food items)\n" +
		"- 'What's our order?' (check order)\n" +
		"- 'Place the order' (complete order)"
)

type Config struct {
	Delivery contractx.DeliveryInfo
}

type Dispatcher struct {
	store      *storex.OrderStore
	classifier contractx.Classifier
	resolver   contractx.Resolver
	checkout   contractx.CheckoutRunner
	notifier   contractx.Notifier
	delivery   contractx.DeliveryInfo

	graphRunner compose.Runnable[GraphInput, GraphOutput]

	// handleMu serializes message handling; checkoutMu guards the
	// single-flight flag for the automation run.
	handleMu   sync.Mutex
	checkoutMu sync.Mutex
	inFlight   bool

	log zerolog.Logger
}

func New(
	store *storex.OrderStore,
	classifier contractx.Classifier,
	resolver contractx.Resolver,
	checkout contractx.CheckoutRunner,
	notifier contractx.Notifier,
	cfg Config,
) (*Dispatcher, error) {
	if store == nil {
		return nil, errors.New("order store is required")
	}
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if checkout == nil {
		return nil, errors.New("checkout runner is required")
	}
	if resolver == nil {
		resolver = noopResolver{}
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}

	d := &Dispatcher{
		store:      store,
		classifier: classifier,
		resolver:   resolver,
		checkout:   checkout,
		notifier:   notifier,
		delivery:   cfg.Delivery,
		log:        logx.Component("dispatcher"),
	}

	graphRunner, err := d.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	d.graphRunner = graphRunner

	return d, nil
}

// HandleMessage is the inbound chat boundary: one message in, one reply out.
// It never returns an error past this point; internal failures degrade to the
// help reply.
func (d *Dispatcher) HandleMessage(ctx context.Context, user, text string) (string, contractx.Intent) {
	d.handleMu.Lock()
	defer d.handleMu.Unlock()

	out, err := d.graphRunner.Invoke(ctx, GraphInput{
		User: user,
		Text: text,
	})
	if err != nil {
		if !errors.Is(err, ErrInvalidMessage) {
			d.log.Error().Err(err).Msg("dispatch failed, falling back to help reply")
		}
		return replyHelp, contractx.Intent{Type: contractx.IntentUnknown}
	}
	return out.Reply, out.Parsed
}

func (d *Dispatcher) routeOrder(user string, intent contractx.Intent) string {
	if len(intent.Items) == 0 {
		return replyNoItems
	}

	if err := d.store.AddOrder(user, intent.Items); err != nil {
		if errors.Is(err, contractx.ErrOrderClosed) {
			return "🚫 The order has already been placed. Say 'clear' the board first or wait for the next round."
		}
		d.log.Error().Err(err).Str("user", user).Msg("add order failed")
		return replyHelp
	}

	return fmt.Sprintf("✅ Added %s to %s's order.", strings.Join(intent.Items, ", "), user)
}

func (d *Dispatcher) routeQuery() string {
	return d.store.Summary()
}

func (d *Dispatcher) routePlaceOrder(user string) string {
	info, ok := d.store.Restaurant()
	if !ok {
		return replyNoRestaurant
	}

	// Claim the single-flight slot before flipping store state so a second
	// trigger while a run is in flight is rejected, never queued.
	d.checkoutMu.Lock()
	if d.inFlight {
		d.checkoutMu.Unlock()
		return replyBusy
	}

	text, triggered := d.store.PlaceOrder()
	if !triggered {
		// Empty store, or already placed: return the snapshot as-is.
		d.checkoutMu.Unlock()
		return text
	}
	d.inFlight = true
	d.checkoutMu.Unlock()

	snap := d.store.Snapshot()
	d.log.Info().Str("user", user).Str("restaurant", info.Name).Int("users", len(snap.Orders)).Msg("checkout triggered")
	go d.runCheckout(info, snap.Orders)

	return replyPlacing
}

// resolveRestaurant sets the restaurant when the classifier spotted one and
// none is locked in yet. Returns a note to prepend to the reply, or "".
func (d *Dispatcher) resolveRestaurant(ctx context.Context, intent contractx.Intent) string {
	if intent.Restaurant == "" || d.store.Status() != storex.StatusCollecting {
		return ""
	}
	if _, ok := d.store.Restaurant(); ok {
		return ""
	}

	info, found, err := d.resolver.Resolve(ctx, intent.Restaurant, intent.Location)
	if err != nil {
		d.log.Warn().Err(err).Str("restaurant", intent.Restaurant).Msg("restaurant lookup failed")
		return fmt.Sprintf("❌ Could not find ordering information for %s", intent.Restaurant)
	}
	if !found {
		return fmt.Sprintf("❌ Could not find ordering information for %s", intent.Restaurant)
	}

	d.store.SetRestaurant(info)
	return fmt.Sprintf("✅ Found %s!\n🌐 Ordering URL: %s\n📋 Type: %s", info.Name, info.URL, info.Type)
}

// runCheckout executes in its own goroutine; exactly one run is active at a
// time and each run starts from page navigation with no shared browser state.
func (d *Dispatcher) runCheckout(info contractx.RestaurantInfo, orders []contractx.UserItems) {
	defer func() {
		d.checkoutMu.Lock()
		d.inFlight = false
		d.checkoutMu.Unlock()
	}()

	ctx := context.Background()
	res := d.checkout.Run(ctx, contractx.CheckoutRequest{
		Restaurant: info,
		Orders:     orders,
		Delivery:   d.delivery,
	})
	d.store.SetLastCheckout(res)

	if res.Success {
		d.log.Info().Int("steps", len(res.Steps)).Int("failed", len(res.Failed())).Msg("checkout finished")
		d.notifier.Notify(ctx, "✅ "+res.Message)
		return
	}

	d.log.Error().Str("error", res.Err).Msg("checkout failed")
	d.notifier.Notify(ctx, "❌ Order failed: "+res.Err)
}

type noopResolver struct{}

func (noopResolver) Resolve(context.Context, string, string) (contractx.RestaurantInfo, bool, error) {
	return contractx.RestaurantInfo{}, false, nil
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, string) {}
