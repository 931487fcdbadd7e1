// Package apitest runs an in-process stand-in for the storefront backend so
// client and checkout tests can exercise the real HTTP contract.
package apitest

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/devifoods/internal/api"
	"github.com/example/devifoods/internal/models"
)

// Backend is a configurable fake of the consumed REST contract. Prime its
// fields before driving the client, then assert on the recorded requests.
type Backend struct {
	URL string

	mu sync.Mutex

	// knobs
	ExistingEmails map[string]bool
	OTP            string
	Token          string
	ValidSignature string
	KeyID          string
	User           models.User
	Addresses      []models.SavedAddress
	Orders         []models.Order
	Reviews        []models.Review
	CanReviewValue bool

	failures map[string]failure
	calls    map[string]int

	// recorded payloads
	LastCOD           api.CODOrderRequest
	LastCreatePayment api.CreatePaymentRequest
	LastVerify        api.VerifyPaymentRequest
}

type failure struct {
	status  int
	message string
}

// Start launches the fake backend on a loopback port and registers shutdown
// with the test's cleanup.
func Start(tb testing.TB) *Backend {
	tb.Helper()

	b := &Backend{
		ExistingEmails: map[string]bool{},
		OTP:            "123456",
		Token:          "tok_test_1",
		ValidSignature: "sig_valid",
		KeyID:          "rzp_test_x",
		User:           models.User{ID: "cust_1", Name: "Asha", Email: "a@b.com"},
		failures:       map[string]failure{},
		calls:          map[string]int{},
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	b.register(app)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("apitest: listen: %v", err)
	}
	b.URL = "http://" + ln.Addr().String()

	go func() {
		if err := app.Listener(ln); err != nil {
			// Shutdown closes the listener; anything else is a test bug.
			if !strings.Contains(err.Error(), "closed") {
				fmt.Printf("apitest: serve: %v\n", err)
			}
		}
	}()
	tb.Cleanup(func() { _ = app.Shutdown() })

	waitReady(tb, ln.Addr().String())
	return b
}

func waitReady(tb testing.TB, addr string) {
	tb.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	tb.Fatalf("apitest: backend at %s never became reachable", addr)
}

// Fail makes every subsequent request to path answer with the given status
// and message in a success:false envelope.
func (b *Backend) Fail(path string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[path] = failure{status: status, message: message}
}

// Recover removes a primed failure.
func (b *Backend) Recover(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, path)
}

// Calls reports how many requests reached the given path.
func (b *Backend) Calls(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[path]
}

func (b *Backend) register(app *fiber.App) {
	app.Use(func(c *fiber.Ctx) error {
		b.mu.Lock()
		b.calls[c.Path()]++
		f, failing := b.failures[c.Path()]
		b.mu.Unlock()
		if failing {
			return c.Status(f.status).JSON(fiber.Map{"success": false, "message": f.message})
		}
		return c.Next()
	})

	v1 := app.Group("/api/v1")

	v1.Post("/auth/send-otp", b.sendOTP)
	v1.Post("/auth/otp-login", b.otpLogin)
	v1.Post("/auth/signup", b.signup)
	v1.Post("/auth/logout", b.requireAuth, b.logout)

	v1.Get("/account/address", b.requireAuth, b.listAddresses)
	v1.Post("/account/address", b.requireAuth, b.addAddress)
	v1.Get("/userAccount/account", b.requireAuth, b.account)

	v1.Post("/orders/cod", b.placeCOD)
	v1.Post("/payments/create-order", b.createPaymentOrder)
	v1.Post("/payments/verify", b.verifyPayment)

	v1.Get("/reviews", b.listReviews)
	v1.Get("/reviews/can-review", b.requireAuth, b.canReview)
	v1.Post("/reviews", b.requireAuth, b.submitReview)
	v1.Delete("/reviews/:id", b.requireAuth, b.deleteReview)
}

func (b *Backend) requireAuth(c *fiber.Ctx) error {
	header := c.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	b.mu.Lock()
	token := b.Token
	b.mu.Unlock()
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] != token {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Invalid token"})
	}
	return c.Next()
}

func (b *Backend) sendOTP(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Email is required."})
	}
	b.mu.Lock()
	exists := b.ExistingEmails[req.Email]
	b.mu.Unlock()
	return c.JSON(fiber.Map{"success": true, "exists": exists})
}

func (b *Backend) otpLogin(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if req.OTP != b.OTP {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid OTP. Please try again."})
	}
	user := b.User
	user.Email = req.Email
	return c.JSON(fiber.Map{"success": true, "token": b.Token, "user": user})
}

func (b *Backend) signup(c *fiber.Ctx) error {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if req.OTP != b.OTP {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid OTP. Please try again."})
	}
	b.User = models.User{ID: "cust_1", Name: req.Name, Email: req.Email}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "token": b.Token, "user": b.User})
}

func (b *Backend) logout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true})
}

func (b *Backend) listAddresses(c *fiber.Ctx) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return c.JSON(fiber.Map{"success": true, "addresses": b.Addresses})
}

func (b *Backend) addAddress(c *fiber.Ctx) error {
	var req struct {
		CustomerID string              `json:"customerId"`
		Address    models.OrderAddress `json:"address"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Addresses = append(b.Addresses, models.SavedAddress{
		ID:      fmt.Sprintf("addr_%d", len(b.Addresses)+1),
		Name:    req.Address.Name,
		Phone:   req.Address.Phone,
		Line1:   req.Address.Line1,
		Line2:   req.Address.Line2,
		City:    req.Address.City,
		Pincode: req.Address.Pincode,
	})
	return c.JSON(fiber.Map{"success": true, "addresses": b.Addresses})
}

func (b *Backend) account(c *fiber.Ctx) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return c.JSON(fiber.Map{
		"success":   true,
		"user":      b.User,
		"addresses": b.Addresses,
		"orders":    b.Orders,
	})
}

func (b *Backend) placeCOD(c *fiber.Ctx) error {
	var req api.CODOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.LastCOD = req
	order := models.Order{
		ID:      fmt.Sprintf("ord_%d", len(b.Orders)+1),
		Status:  "placed",
		Amount:  req.Amount,
		Items:   req.Items,
		Address: req.Address,
	}
	b.Orders = append(b.Orders, order)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "order": order})
}

func (b *Backend) createPaymentOrder(c *fiber.Ctx) error {
	var req api.CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.LastCreatePayment = req
	order := models.PaymentOrder{ID: "order_1", Amount: req.Amount * 100, Currency: req.Currency}
	return c.JSON(fiber.Map{"success": true, "order": order, "keyId": b.KeyID})
}

func (b *Backend) verifyPayment(c *fiber.Ctx) error {
	var req api.VerifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.LastVerify = req
	if req.RazorpaySignature != b.ValidSignature {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Payment verification failed. Please contact support."})
	}
	order := models.Order{
		ID:      fmt.Sprintf("ord_%d", len(b.Orders)+1),
		Status:  "paid",
		Amount:  req.Amount,
		Items:   req.Items,
		Address: req.Address,
	}
	b.Orders = append(b.Orders, order)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "order": order})
}

func (b *Backend) listReviews(c *fiber.Ctx) error {
	productID := c.Query("productId")
	b.mu.Lock()
	defer b.mu.Unlock()
	reviews := make([]models.Review, 0, len(b.Reviews))
	for _, r := range b.Reviews {
		if productID == "" || r.ProductID == productID {
			reviews = append(reviews, r)
		}
	}
	return c.JSON(fiber.Map{"success": true, "reviews": reviews})
}

func (b *Backend) canReview(c *fiber.Ctx) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return c.JSON(fiber.Map{"success": true, "canReview": b.CanReviewValue})
}

func (b *Backend) submitReview(c *fiber.Ctx) error {
	var req struct {
		ProductID string `json:"productId"`
		Stars     int    `json:"stars"`
		Text      string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	review := models.Review{
		ID:        fmt.Sprintf("rev_%d", len(b.Reviews)+1),
		ProductID: req.ProductID,
		Stars:     req.Stars,
		Text:      req.Text,
		UserName:  b.User.Name,
	}
	b.Reviews = append(b.Reviews, review)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "review": review})
}

func (b *Backend) deleteReview(c *fiber.Ctx) error {
	id := c.Params("id")
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.Reviews[:0]
	for _, r := range b.Reviews {
		if r.Key() != id {
			kept = append(kept, r)
		}
	}
	b.Reviews = kept
	return c.JSON(fiber.Map{"success": true})
}
