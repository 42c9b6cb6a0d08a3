// Package checkout drives a restaurant's ordering site with a real browser,
// reproducing the collected group order up to the payment step. The site's
// DOM is uncontrolled, so every interaction is best-effort: a missing control
// is recorded and skipped, and only a failed navigation aborts the run.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	contractx "github.com/grubgather/grubgather/agent/contract"
	logx "github.com/grubgather/grubgather/pkg/logger"
)

const (
	stageNavigate = "navigate"
	stageAddItems = "add_items"
	stageCart     = "cart"
	stageDelivery = "delivery"

	selQtyIncrease = `button[aria-label='Increase quantity']`
	selModalClose  = `button[aria-label='Close']`
	selCartButton  = `button[aria-label*='Cart'], button[aria-label*='View cart']`
)

type Config struct {
	Headless          bool          `split_words:"true" default:"true"`
	NavigationTimeout time.Duration `split_words:"true" default:"25s"`
	StepTimeout       time.Duration `split_words:"true" default:"10s"`
	SettleDelay       time.Duration `split_words:"true" default:"500ms"`
}

// Runner executes one checkout per call. A run owns its browser context
// exclusively; nothing is shared between runs.
type Runner struct {
	cfg Config
	log zerolog.Logger
}

var _ contractx.CheckoutRunner = (*Runner)(nil)

func NewRunner(cfg Config) *Runner {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 25 * time.Second
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = 10 * time.Second
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 500 * time.Millisecond
	}
	return &Runner{
		cfg: cfg,
		log: logx.Component("checkout"),
	}
}

func (r *Runner) Run(ctx context.Context, req contractx.CheckoutRequest) contractx.CheckoutResult {
	target := strings.TrimSpace(req.Restaurant.URL)
	if target == "" {
		return contractx.CheckoutResult{
			Success: false,
			Message: "checkout aborted",
			Err:     "restaurant has no ordering URL",
		}
	}

	items := flattenItems(req.Orders)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", r.cfg.Headless),
	)...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	s := &session{
		ctx:  browserCtx,
		exec: chromedp.Run,
		cfg:  r.cfg,
		rec:  &recorder{},
		log:  r.log,
	}

	return s.runPipeline(target, req.Restaurant.Name, items, req.Delivery)
}

// session is one browser-owning pipeline execution. exec is swappable so the
// stage sequencing can be exercised without a browser.
type session struct {
	ctx  context.Context
	exec func(ctx context.Context, actions ...chromedp.Action) error
	cfg  Config
	rec  *recorder
	log  zerolog.Logger
}

func (s *session) runPipeline(target, restaurantName string, items []cartItem, delivery contractx.DeliveryInfo) contractx.CheckoutResult {
	// Stage 1: navigation is the only hard-abort point.
	if outcome := s.step(stageNavigate, target, s.cfg.NavigationTimeout,
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); outcome != contractx.StepOK {
		return contractx.CheckoutResult{
			Success: false,
			Message: "checkout aborted before reaching the menu",
			Err:     fmt.Sprintf("navigation to %s failed (%s)", target, outcome),
			Steps:   s.rec.steps,
		}
	}

	added := 0
	for _, item := range items {
		if s.addToCart(item) {
			added++
		}
	}

	s.openCheckout()
	filled, missing := s.fillDelivery(delivery)

	res := contractx.CheckoutResult{
		Success:    true,
		Message:    buildMessage(restaurantName, added, len(items), filled, missing),
		Steps:      s.rec.steps,
		Screenshot: s.capture(),
	}
	s.log.Info().Int("added", added).Int("items", len(items)).Strs("missing_fields", missing).Msg("checkout pipeline complete")
	return res
}

// addToCart reproduces one item: open its menu card, bump the quantity,
// add, and dismiss the detail modal. Returns true when the add control fired.
func (s *session) addToCart(item cartItem) bool {
	itemQuery := textXPath(item.Name)
	if outcome := s.step(stageAddItems, item.Raw, s.cfg.StepTimeout,
		chromedp.WaitVisible(itemQuery, chromedp.BySearch),
		chromedp.Click(itemQuery, chromedp.BySearch),
		chromedp.Sleep(s.cfg.SettleDelay),
	); outcome != contractx.StepOK {
		// Menu item missing: move on to the next one.
		return false
	}

	for i := 1; i < item.Quantity; i++ {
		if outcome := s.step(stageAddItems, item.Raw+" (increase quantity)", s.cfg.StepTimeout,
			chromedp.Click(selQtyIncrease, chromedp.ByQuery),
			chromedp.Sleep(s.cfg.SettleDelay/2),
		); outcome != contractx.StepOK {
			break
		}
	}

	addOutcome := s.step(stageAddItems, item.Raw+" (add to cart)", s.cfg.StepTimeout,
		chromedp.Click(buttonXPath("Add to Cart"), chromedp.BySearch),
		chromedp.Sleep(s.cfg.SettleDelay),
	)

	// Detail modals don't always appear; absence is normal.
	s.optionalStep(stageAddItems, item.Raw+" (close modal)", s.cfg.SettleDelay*2,
		chromedp.Click(selModalClose, chromedp.ByQuery),
	)

	return addOutcome == contractx.StepOK
}

// openCheckout walks cart -> checkout. Both are soft: the page may already
// have advanced, so later stages attempt regardless.
func (s *session) openCheckout() {
	s.step(stageCart, "open cart", s.cfg.StepTimeout,
		chromedp.WaitVisible(selCartButton, chromedp.ByQuery),
		chromedp.Click(selCartButton, chromedp.ByQuery),
		chromedp.Sleep(s.cfg.SettleDelay),
	)
	s.step(stageCart, "begin checkout", s.cfg.StepTimeout,
		chromedp.Click(buttonXPath("Checkout"), chromedp.BySearch),
		chromedp.Sleep(s.cfg.SettleDelay),
	)
}

// fillDelivery fills whichever delivery inputs exist, reporting filled versus
// missing fields. Payment is always left to the human operator.
func (s *session) fillDelivery(delivery contractx.DeliveryInfo) (filled, missing []string) {
	fields := []struct {
		name  string
		value string
	}{
		{"name", delivery.Name},
		{"address", delivery.Address},
		{"phone", delivery.Phone},
	}

	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			continue
		}
		sel := fmt.Sprintf(`input[name=%q]`, f.name)
		outcome := s.step(stageDelivery, "fill "+f.name, s.cfg.StepTimeout,
			chromedp.WaitVisible(sel, chromedp.ByQuery),
			chromedp.SendKeys(sel, f.value, chromedp.ByQuery),
		)
		if outcome == contractx.StepOK {
			filled = append(filled, f.name)
		} else {
			missing = append(missing, f.name)
		}
	}
	return filled, missing
}

func (s *session) capture() []byte {
	var shot []byte
	tctx, cancel := context.WithTimeout(s.ctx, s.cfg.StepTimeout)
	defer cancel()
	if err := s.exec(tctx, chromedp.CaptureScreenshot(&shot)); err != nil {
		s.log.Debug().Err(err).Msg("screenshot capture failed")
		return nil
	}
	return shot
}

// step runs actions under a bounded wait and records the classified outcome.
func (s *session) step(stage, target string, timeout time.Duration, actions ...chromedp.Action) contractx.StepOutcome {
	tctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	err := s.exec(tctx, actions...)
	outcome := classify(err)
	s.rec.add(stage, target, outcome, errDetail(err))
	if outcome != contractx.StepOK {
		s.log.Warn().Str("stage", stage).Str("target", target).Str("outcome", string(outcome)).Msg("checkout step did not complete")
	}
	return outcome
}

// optionalStep is step for controls that legitimately may not exist; failure
// is recorded as skipped rather than an error.
func (s *session) optionalStep(stage, target string, timeout time.Duration, actions ...chromedp.Action) {
	tctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	if err := s.exec(tctx, actions...); err != nil {
		s.rec.add(stage, target, contractx.StepSkipped, "")
		return
	}
	s.rec.add(stage, target, contractx.StepOK, "")
}

func classify(err error) contractx.StepOutcome {
	switch {
	case err == nil:
		return contractx.StepOK
	case errors.Is(err, context.DeadlineExceeded):
		return contractx.StepTimeout
	default:
		return contractx.StepNotFound
	}
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func buildMessage(restaurant string, added, total int, filled, missing []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order staged on %s: %d/%d items in the cart", restaurant, added, total)
	if len(filled) > 0 {
		fmt.Fprintf(&b, "; delivery fields filled: %s", strings.Join(filled, ", "))
	}
	if len(missing) > 0 {
		fmt.Fprintf(&b, "; fields not found: %s", strings.Join(missing, ", "))
	}
	b.WriteString(". Review the cart and complete payment in the browser.")
	return b.String()
}

type recorder struct {
	steps []contractx.StepResult
}

func (r *recorder) add(stage, target string, outcome contractx.StepOutcome, detail string) {
	r.steps = append(r.steps, contractx.StepResult{
		Stage:   stage,
		Target:  target,
		Outcome: outcome,
		Detail:  detail,
	})
}
