package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/example/devifoods/internal/api"
	"github.com/example/devifoods/internal/models"
	"github.com/example/devifoods/internal/session"
)

// Step identifies where the shopper is in the flow. It only moves forward:
// email → otp → address, except that an OTP resend stays at otp.
type Step int

const (
	StepEmail Step = iota
	StepOTP
	StepAddress
)

func (s Step) String() string {
	switch s {
	case StepEmail:
		return "email"
	case StepOTP:
		return "otp"
	case StepAddress:
		return "address"
	}
	return "unknown"
}

// AuthMode records which verification endpoint the OTP step will hit, decided
// by the exists flag of the send-otp response.
type AuthMode int

const (
	AuthModeLogin AuthMode = iota
	AuthModeSignup
)

func (m AuthMode) String() string {
	if m == AuthModeSignup {
		return "signup"
	}
	return "login"
}

// PaymentMethod selects the payment sub-flow.
type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "COD"
	PaymentOnline PaymentMethod = "ONLINE"
)

var (
	// ErrBusy means a submission is already in flight; the caller should wait.
	ErrBusy = errors.New("request already in flight")
	// ErrClosed means the popup was closed and the controller torn down.
	ErrClosed = errors.New("checkout closed")
	// ErrState means the operation does not apply to the current step.
	ErrState = errors.New("operation not available in this step")
)

// phase is the tagged state of the flow. Exactly one phase value exists at a
// time, so the step, the auth mode and the authenticated session can never
// disagree with each other.
type phase interface {
	step() Step
}

type phaseEmail struct{}

type phaseOTP struct {
	mode  AuthMode
	email string
}

type phaseAddress struct {
	sess       models.Session
	addresses  []models.SavedAddress
	selectedID string
}

func (phaseEmail) step() Step    { return StepEmail }
func (phaseOTP) step() Step      { return StepOTP }
func (*phaseAddress) step() Step { return StepAddress }

// Config wires a Controller to its collaborators and the cart it checks out.
type Config struct {
	API     *api.Client
	Store   *session.Store
	Gateway Gateway
	Items   []models.CartLineItem
	Amount  int64
	// Description labels the payment in the provider widget.
	Description string
	// FallbackKeyID is used when create-order omits the provider public key.
	FallbackKeyID string
}

// Controller drives one shopper from identification through authentication,
// address selection and payment. Every network failure is normalized into an
// *api.Error with a user-facing message and leaves the flow in a recoverable
// state; nothing propagates to the host.
type Controller struct {
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	phase   phase
	loading bool
	closed  bool
	order   *models.Order

	// shopper-typed draft fields, discarded with the controller
	email      string
	name       string
	line1      string
	line2      string
	city       string
	pincode    string
	phone      string
	phoneTyped bool
}

// Open creates a Controller for one checkout. A valid stored session
// short-circuits straight to the address step, prefilled from the stored
// profile, with the saved-address fetch already performed. The controller's
// lifetime is bounded by Close: late responses after Close are dropped.
func Open(parent context.Context, cfg Config) *Controller {
	ctx, cancel := context.WithCancel(parent)
	c := &Controller{cfg: cfg, ctx: ctx, cancel: cancel}

	sess, ok := cfg.Store.Current()
	if !ok {
		c.phase = phaseEmail{}
		return c
	}

	log.Printf("[Checkout] existing session for %s, skipping auth", sess.User.Email)
	c.email = sess.User.Email
	c.name = sess.User.Name
	c.phone = sess.User.Phone

	ph := &phaseAddress{sess: sess}
	c.phase = ph
	c.fetchAddresses(ph)
	return c
}

// Close tears the controller down. In-flight requests are cancelled and any
// response that still arrives is discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
}

// Step reports the current step for the host UI.
func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase.step()
}

// Mode reports the auth mode while the flow is at the OTP step.
func (c *Controller) Mode() (AuthMode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ph, ok := c.phase.(phaseOTP); ok {
		return ph.mode, true
	}
	return 0, false
}

// Loading reports whether a submission is in flight. Advisory UI state, not a
// lock: it gates the submit button, nothing else.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Addresses returns the saved addresses fetched for the address step.
func (c *Controller) Addresses() []models.SavedAddress {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ph, ok := c.phase.(*phaseAddress); ok {
		return ph.addresses
	}
	return nil
}

// SelectedAddressID returns the key of the selected saved address, or "".
func (c *Controller) SelectedAddressID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ph, ok := c.phase.(*phaseAddress); ok {
		return ph.selectedID
	}
	return ""
}

// Email returns the email the flow is operating on.
func (c *Controller) Email() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.email
}

// Phone returns the current contact phone value.
func (c *Controller) Phone() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phone
}

// Order returns the placed order once the flow has completed.
func (c *Controller) Order() (models.Order, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.order == nil {
		return models.Order{}, false
	}
	return *c.order, true
}

// SubmitEmail requests an OTP for the given email and advances to the OTP
// step. A blank email is rejected before any network call.
func (c *Controller) SubmitEmail(email string) error {
	email = strings.TrimSpace(email)

	c.mu.Lock()
	if err := c.gateLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if _, ok := c.phase.(phaseEmail); !ok {
		c.mu.Unlock()
		return ErrState
	}
	if email == "" {
		c.mu.Unlock()
		return api.ValidationError("Please enter your email address.")
	}
	c.loading = true
	c.mu.Unlock()

	exists, err := c.cfg.API.SendOTP(c.ctx, email, "")

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if c.closed {
		return ErrClosed
	}
	if err != nil {
		return err
	}

	mode := AuthModeSignup
	if exists {
		mode = AuthModeLogin
	}
	c.email = email
	c.phase = phaseOTP{mode: mode, email: email}
	log.Printf("[Checkout] OTP sent to %s (mode=%s)", email, mode)
	return nil
}

// ResendOTP requests a fresh code without leaving the OTP step.
func (c *Controller) ResendOTP() error {
	c.mu.Lock()
	if err := c.gateLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	ph, ok := c.phase.(phaseOTP)
	if !ok {
		c.mu.Unlock()
		return ErrState
	}
	c.loading = true
	c.mu.Unlock()

	_, err := c.cfg.API.SendOTP(c.ctx, ph.email, "")

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if c.closed {
		return ErrClosed
	}
	if err != nil {
		return err
	}
	log.Printf("[Checkout] OTP resent to %s", ph.email)
	return nil
}

// SubmitOTP verifies the code and, on success, persists the session and
// advances to the address step. Fewer than six digits, or a missing name in
// signup mode, is rejected before any network call.
func (c *Controller) SubmitOTP(code, name string) error {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)

	c.mu.Lock()
	if err := c.gateLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	ph, ok := c.phase.(phaseOTP)
	if !ok {
		c.mu.Unlock()
		return ErrState
	}
	if !isSixDigits(code) {
		c.mu.Unlock()
		return api.ValidationError("Please enter the 6-digit OTP.")
	}
	if ph.mode == AuthModeSignup && name == "" {
		c.mu.Unlock()
		return api.ValidationError("Please enter your name.")
	}
	c.loading = true
	c.mu.Unlock()

	var sess models.Session
	var err error
	switch ph.mode {
	case AuthModeLogin:
		sess, err = c.cfg.API.OTPLogin(c.ctx, ph.email, code)
	case AuthModeSignup:
		sess, err = c.cfg.API.Signup(c.ctx, name, ph.email, code)
	}

	var addresses []models.SavedAddress
	if err == nil {
		if saveErr := c.cfg.Store.Save(sess); saveErr != nil {
			log.Printf("[Checkout] failed to store session: %v", saveErr)
		}
		addresses = c.listAddresses(sess.Token)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if c.closed {
		return ErrClosed
	}
	if err != nil {
		return err
	}

	if sess.User.Name != "" {
		c.name = sess.User.Name
	} else {
		c.name = name
	}
	if c.phone == "" {
		c.phone = sess.User.Phone
	}

	next := &phaseAddress{sess: sess, addresses: addresses}
	c.selectDefaultLocked(next)
	c.phase = next
	log.Printf("[Checkout] %s verified for %s, %d saved addresses", ph.mode, ph.email, len(addresses))
	return nil
}

// SelectAddress picks a saved address by key; an empty key switches back to
// manual entry. Selecting an address with a phone number fills the contact
// phone unless the shopper already typed one.
func (c *Controller) SelectAddress(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ph, ok := c.phase.(*phaseAddress)
	if !ok {
		return ErrState
	}
	if id == "" {
		ph.selectedID = ""
		return nil
	}
	for _, a := range ph.addresses {
		if a.Key() == id {
			ph.selectedID = id
			if a.Phone != "" && !c.phoneTyped {
				c.phone = a.Phone
			}
			return nil
		}
	}
	return api.ValidationError("Please choose a valid saved address.")
}

// SetAddress records manually entered address fields.
func (c *Controller) SetAddress(line1, line2, city, pincode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.line1, c.line2, c.city, c.pincode = line1, line2, city, pincode
}

// SetPhone records the contact phone. A non-blank value counts as typed and
// is no longer overwritten by saved-address selection.
func (c *Controller) SetPhone(phone string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phone = phone
	c.phoneTyped = strings.TrimSpace(phone) != ""
}

// Submit validates the delivery details and runs the chosen payment sub-flow.
// On success the returned order ends the flow; on failure the shopper stays
// on the address step and may resubmit.
func (c *Controller) Submit(method PaymentMethod) (models.Order, error) {
	c.mu.Lock()
	if err := c.gateLocked(); err != nil {
		c.mu.Unlock()
		return models.Order{}, err
	}
	ph, ok := c.phase.(*phaseAddress)
	if !ok {
		c.mu.Unlock()
		return models.Order{}, ErrState
	}

	address, verr := c.buildAddressLocked(ph)
	if verr != nil {
		c.mu.Unlock()
		return models.Order{}, verr
	}

	sess := ph.sess
	items := c.cfg.Items
	amount := c.cfg.Amount
	c.loading = true
	c.mu.Unlock()

	var order models.Order
	var err error
	switch method {
	case PaymentCOD:
		order, err = c.cfg.API.PlaceCODOrder(c.ctx, sess.Token, api.CODOrderRequest{
			CustomerID: sess.User.CustomerID(),
			Items:      items,
			Amount:     amount,
			Address:    address,
		})
	case PaymentOnline:
		order, err = c.payOnline(sess, items, amount, address)
	default:
		err = api.ValidationError("Please choose a payment method.")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if c.closed {
		return models.Order{}, ErrClosed
	}
	if err != nil {
		return models.Order{}, err
	}

	c.order = &order
	log.Printf("[Checkout] order placed (%s), amount %d", method, amount)
	return order, nil
}

// payOnline runs the provider sub-flow: lazy widget load, provider order
// creation, widget interaction, then signature verification with the same
// order payload.
func (c *Controller) payOnline(sess models.Session, items []models.CartLineItem, amount int64, address models.OrderAddress) (models.Order, error) {
	if err := c.cfg.Gateway.Load(c.ctx); err != nil {
		return models.Order{}, api.ThirdPartyError("Payment SDK failed to load. Please check your connection.", err)
	}

	po, keyID, err := c.cfg.API.CreatePaymentOrder(c.ctx, api.CreatePaymentRequest{
		Amount:   amount,
		Currency: "INR",
		Receipt:  "rcpt_" + uuid.NewString(),
		Items:    items,
		Address:  address,
		Notes:    c.paymentNotes(sess, items, address),
	})
	if err != nil {
		return models.Order{}, err
	}

	if keyID == "" {
		keyID = c.cfg.FallbackKeyID
	}
	if keyID == "" {
		return models.Order{}, api.ThirdPartyError("Payment configuration is missing. Please contact support.", nil)
	}

	completion, err := c.cfg.Gateway.Open(c.ctx, WidgetOptions{
		KeyID:       keyID,
		OrderID:     po.ID,
		Amount:      po.Amount,
		Currency:    po.Currency,
		Name:        "Devi Foods",
		Description: c.cfg.Description,
		Prefill:     Prefill{Name: sess.User.Name, Email: sess.User.Email, Contact: address.Phone},
		Notes:       c.paymentNotes(sess, items, address),
		ThemeColor:  "#542316",
	})
	if err != nil {
		if errors.Is(err, ErrDismissed) {
			log.Printf("[Checkout] payment widget dismissed for order %s", po.ID)
			return models.Order{}, api.ThirdPartyError("Payment was cancelled. You can try again.", err)
		}
		return models.Order{}, api.ThirdPartyError("Payment failed or was cancelled. Please try again.", err)
	}

	return c.cfg.API.VerifyPayment(c.ctx, api.VerifyPaymentRequest{
		RazorpayOrderID:   completion.OrderID,
		RazorpayPaymentID: completion.PaymentID,
		RazorpaySignature: completion.Signature,
		CustomerID:        sess.User.CustomerID(),
		Items:             items,
		Amount:            amount,
		Address:           address,
	})
}

func (c *Controller) paymentNotes(sess models.Session, items []models.CartLineItem, address models.OrderAddress) map[string]string {
	notes := map[string]string{
		"phone":   address.Phone,
		"address": address.Line1,
		"city":    address.City,
		"pincode": address.Pincode,
		"email":   sess.User.Email,
		"name":    sess.User.Name,
	}
	if len(items) > 0 {
		notes["productId"] = items[0].ProductID
		notes["weight"] = items[0].Weight
		notes["pack"] = items[0].Pack
		notes["qty"] = strconv.Itoa(items[0].Qty)
	}
	return notes
}

// buildAddressLocked applies the submission guards and assembles the delivery
// address, either from the selected saved address or from manual entry.
func (c *Controller) buildAddressLocked(ph *phaseAddress) (models.OrderAddress, error) {
	phone := strings.TrimSpace(c.phone)
	if phone == "" {
		return models.OrderAddress{}, api.ValidationError("Please enter your contact phone number for delivery.")
	}

	if ph.selectedID != "" {
		for _, a := range ph.addresses {
			if a.Key() == ph.selectedID {
				name := a.Name
				if name == "" {
					name = c.name
				}
				return models.OrderAddress{
					Name:    name,
					Phone:   phone,
					Line1:   a.Line1,
					Line2:   a.Line2,
					City:    a.City,
					Pincode: a.Pincode,
				}, nil
			}
		}
		return models.OrderAddress{}, api.ValidationError("Please choose a valid saved address.")
	}

	line1 := strings.TrimSpace(c.line1)
	city := strings.TrimSpace(c.city)
	pincode := strings.TrimSpace(c.pincode)
	if line1 == "" || city == "" || pincode == "" {
		return models.OrderAddress{}, api.ValidationError("Please enter your address, city and pincode before continuing.")
	}

	return models.OrderAddress{
		Name:    c.name,
		Phone:   phone,
		Line1:   line1,
		Line2:   strings.TrimSpace(c.line2),
		City:    city,
		Pincode: pincode,
	}, nil
}

// fetchAddresses loads saved addresses for a session short-circuit. A fetch
// failure is logged and leaves the shopper on manual entry.
func (c *Controller) fetchAddresses(ph *phaseAddress) {
	ph.addresses = c.listAddresses(ph.sess.Token)
	c.mu.Lock()
	c.selectDefaultLocked(ph)
	c.mu.Unlock()
}

func (c *Controller) listAddresses(token string) []models.SavedAddress {
	addresses, err := c.cfg.API.ListAddresses(c.ctx, token)
	if err != nil {
		log.Printf("[Checkout] address fetch failed: %v", err)
		return nil
	}
	return addresses
}

// selectDefaultLocked picks the default saved address, or the first one, and
// applies the phone prefill rule.
func (c *Controller) selectDefaultLocked(ph *phaseAddress) {
	if len(ph.addresses) == 0 {
		return
	}
	selected := ph.addresses[0]
	for _, a := range ph.addresses {
		if a.IsDefault {
			selected = a
			break
		}
	}
	ph.selectedID = selected.Key()
	if selected.Phone != "" && !c.phoneTyped {
		c.phone = selected.Phone
	}
}

func (c *Controller) gateLocked() error {
	if c.closed {
		return ErrClosed
	}
	if c.order != nil {
		return fmt.Errorf("%w: order already placed", ErrState)
	}
	if c.loading {
		return ErrBusy
	}
	return nil
}

func isSixDigits(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
