package checkout_test

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/devifoods/internal/api"
	"github.com/example/devifoods/internal/apitest"
	"github.com/example/devifoods/internal/checkout"
	"github.com/example/devifoods/internal/models"
	"github.com/example/devifoods/internal/session"
)

func lineItem() models.CartLineItem {
	return models.CartLineItem{
		ProductID: "devi-spicy-chicken-pickle",
		Name:      "Devi Spicy Chicken Pickle",
		Qty:       1,
		Price:     499,
		Weight:    "500gm",
		Pack:      "bottle",
	}
}

type fakeGateway struct {
	loadErr   error
	loads     int
	dismiss   bool
	openErr   error
	paymentID string
	signature string
	opened    []checkout.WidgetOptions
}

func (g *fakeGateway) Load(ctx context.Context) error {
	g.loads++
	return g.loadErr
}

func (g *fakeGateway) Open(ctx context.Context, opts checkout.WidgetOptions) (checkout.Completion, error) {
	g.opened = append(g.opened, opts)
	if g.dismiss {
		return checkout.Completion{}, checkout.ErrDismissed
	}
	if g.openErr != nil {
		return checkout.Completion{}, g.openErr
	}
	return checkout.Completion{OrderID: opts.OrderID, PaymentID: g.paymentID, Signature: g.signature}, nil
}

func newStore(t *testing.T) *session.Store {
	t.Helper()
	return session.NewStore(filepath.Join(t.TempDir(), "session.json"))
}

func open(t *testing.T, b *apitest.Backend, store *session.Store, gw checkout.Gateway) *checkout.Controller {
	t.Helper()
	ctrl := checkout.Open(context.Background(), checkout.Config{
		API:         api.NewClient(b.URL, 0),
		Store:       store,
		Gateway:     gw,
		Items:       []models.CartLineItem{lineItem()},
		Amount:      499,
		Description: "Devi Spicy Chicken Pickle (500gm, Bottle)",
	})
	t.Cleanup(ctrl.Close)
	return ctrl
}

func authenticate(t *testing.T, ctrl *checkout.Controller) {
	t.Helper()
	require.NoError(t, ctrl.SubmitEmail("a@b.com"))
	require.NoError(t, ctrl.SubmitOTP("123456", "Asha"))
	require.Equal(t, checkout.StepAddress, ctrl.Step())
}

func TestOpenWithoutSessionStartsAtEmail(t *testing.T) {
	b := apitest.Start(t)
	ctrl := open(t, b, newStore(t), &fakeGateway{})

	assert.Equal(t, checkout.StepEmail, ctrl.Step())
	assert.Equal(t, 0, b.Calls("/api/v1/account/address"))
}

func TestBlankEmailNeverHitsNetwork(t *testing.T) {
	b := apitest.Start(t)
	ctrl := open(t, b, newStore(t), &fakeGateway{})

	err := ctrl.SubmitEmail("   ")
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, api.KindValidation, apiErr.Kind)
	assert.Equal(t, 0, b.Calls("/api/v1/auth/send-otp"))
	assert.Equal(t, checkout.StepEmail, ctrl.Step())
}

func TestExistsFlagPicksAuthMode(t *testing.T) {
	b := apitest.Start(t)
	b.ExistingEmails["known@b.com"] = true

	ctrl := open(t, b, newStore(t), &fakeGateway{})
	require.NoError(t, ctrl.SubmitEmail("known@b.com"))
	mode, ok := ctrl.Mode()
	require.True(t, ok)
	assert.Equal(t, checkout.AuthModeLogin, mode)

	ctrl2 := open(t, b, newStore(t), &fakeGateway{})
	require.NoError(t, ctrl2.SubmitEmail("new@b.com"))
	mode, ok = ctrl2.Mode()
	require.True(t, ok)
	assert.Equal(t, checkout.AuthModeSignup, mode)
}

func TestShortOTPNeverHitsNetwork(t *testing.T) {
	b := apitest.Start(t)
	ctrl := open(t, b, newStore(t), &fakeGateway{})
	require.NoError(t, ctrl.SubmitEmail("a@b.com"))

	for _, code := range []string{"", "123", "12345", "12a456"} {
		err := ctrl.SubmitOTP(code, "Asha")
		var apiErr *api.Error
		require.ErrorAs(t, err, &apiErr, "code %q", code)
		assert.Equal(t, api.KindValidation, apiErr.Kind)
	}
	assert.Equal(t, 0, b.Calls("/api/v1/auth/signup"))
	assert.Equal(t, 0, b.Calls("/api/v1/auth/otp-login"))
	assert.Equal(t, checkout.StepOTP, ctrl.Step())
}

func TestSignupRequiresName(t *testing.T) {
	b := apitest.Start(t)
	ctrl := open(t, b, newStore(t), &fakeGateway{})
	require.NoError(t, ctrl.SubmitEmail("new@b.com"))

	err := ctrl.SubmitOTP("123456", "  ")
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, api.KindValidation, apiErr.Kind)
	assert.Equal(t, 0, b.Calls("/api/v1/auth/signup"))
}

func TestWrongOTPStaysOnOTPStep(t *testing.T) {
	b := apitest.Start(t)
	ctrl := open(t, b, newStore(t), &fakeGateway{})
	require.NoError(t, ctrl.SubmitEmail("a@b.com"))

	err := ctrl.SubmitOTP("654321", "Asha")
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, api.KindBackend, apiErr.Kind)
	assert.Equal(t, "Invalid OTP. Please try again.", apiErr.Message)
	assert.Equal(t, checkout.StepOTP, ctrl.Step())
	assert.False(t, ctrl.Loading())

	// The step is recoverable: the right code still goes through.
	require.NoError(t, ctrl.SubmitOTP("123456", "Asha"))
	assert.Equal(t, checkout.StepAddress, ctrl.Step())
}

func TestResendOTPStaysOnOTPStep(t *testing.T) {
	b := apitest.Start(t)
	ctrl := open(t, b, newStore(t), &fakeGateway{})
	require.NoError(t, ctrl.SubmitEmail("a@b.com"))

	require.NoError(t, ctrl.ResendOTP())
	assert.Equal(t, checkout.StepOTP, ctrl.Step())
	assert.Equal(t, 2, b.Calls("/api/v1/auth/send-otp"))
}

func TestVerificationPersistsSession(t *testing.T) {
	b := apitest.Start(t)
	store := newStore(t)
	ctrl := open(t, b, store, &fakeGateway{})
	authenticate(t, ctrl)

	sess, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, "tok_test_1", sess.Token)
	assert.Equal(t, "cust_1", sess.User.CustomerID())
}

func TestStoredSessionSkipsAuth(t *testing.T) {
	b := apitest.Start(t)
	b.Addresses = []models.SavedAddress{
		{ID: "addr_1", Name: "Asha", Phone: "7777777777", Line1: "4 Jubilee Hills", City: "Hyderabad", Pincode: "500033"},
		{ID: "addr_2", Name: "Asha", Phone: "9999999999", Line1: "12 MG Road", City: "Hyderabad", Pincode: "500081", IsDefault: true},
	}
	store := newStore(t)
	require.NoError(t, store.Save(models.Session{
		Token: "tok_test_1",
		User:  models.User{ID: "cust_1", Name: "Asha", Email: "a@b.com"},
	}))

	ctrl := open(t, b, store, &fakeGateway{})

	assert.Equal(t, checkout.StepAddress, ctrl.Step())
	assert.Equal(t, "a@b.com", ctrl.Email())
	assert.Equal(t, 0, b.Calls("/api/v1/auth/send-otp"))
	assert.Equal(t, 1, b.Calls("/api/v1/account/address"))
	assert.Equal(t, "addr_2", ctrl.SelectedAddressID(), "isDefault wins over first")
	assert.Equal(t, "9999999999", ctrl.Phone(), "phone prefilled from default address")
}

func TestSelectAddressPhonePrefillRespectsTypedPhone(t *testing.T) {
	b := apitest.Start(t)
	b.Addresses = []models.SavedAddress{
		{ID: "addr_1", Name: "Asha", Phone: "7777777777", Line1: "4 Jubilee Hills", City: "Hyderabad", Pincode: "500033", IsDefault: true},
		{ID: "addr_2", Name: "Asha", Phone: "9999999999", Line1: "12 MG Road", City: "Hyderabad", Pincode: "500081"},
	}
	ctrl := open(t, b, newStore(t), &fakeGateway{})
	authenticate(t, ctrl)

	require.NoError(t, ctrl.SelectAddress("addr_2"))
	assert.Equal(t, "9999999999", ctrl.Phone())

	ctrl.SetPhone("1234512345")
	require.NoError(t, ctrl.SelectAddress("addr_1"))
	assert.Equal(t, "1234512345", ctrl.Phone(), "typed phone is never overwritten")
}

func TestManualAddressValidation(t *testing.T) {
	b := apitest.Start(t)
	ctrl := open(t, b, newStore(t), &fakeGateway{})
	authenticate(t, ctrl)

	ctrl.SetAddress("12 MG Road", "", "", "500081")
	ctrl.SetPhone("9999999999")
	_, err := ctrl.Submit(checkout.PaymentCOD)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, api.KindValidation, apiErr.Kind)

	ctrl.SetAddress("12 MG Road", "", "Hyderabad", "500081")
	ctrl.SetPhone(" ")
	_, err = ctrl.Submit(checkout.PaymentCOD)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, api.KindValidation, apiErr.Kind)

	assert.Equal(t, 0, b.Calls("/api/v1/orders/cod"))
}

func TestSavedAddressSkipsManualFields(t *testing.T) {
	b := apitest.Start(t)
	b.Addresses = []models.SavedAddress{
		{ID: "addr_1", Name: "Asha", Phone: "9999999999", Line1: "12 MG Road", City: "Hyderabad", Pincode: "500081", IsDefault: true},
	}
	ctrl := open(t, b, newStore(t), &fakeGateway{})
	authenticate(t, ctrl)

	// No manual fields entered; the selected saved address carries them.
	order, err := ctrl.Submit(checkout.PaymentCOD)
	require.NoError(t, err)
	assert.Equal(t, "12 MG Road", order.Address.Line1)
	assert.Equal(t, "Hyderabad", order.Address.City)
	assert.Equal(t, "500081", order.Address.Pincode)
}

func TestCODScenario(t *testing.T) {
	b := apitest.Start(t)
	store := newStore(t)
	ctrl := open(t, b, store, &fakeGateway{})

	require.NoError(t, ctrl.SubmitEmail("a@b.com"))
	mode, ok := ctrl.Mode()
	require.True(t, ok)
	require.Equal(t, checkout.AuthModeSignup, mode)

	require.NoError(t, ctrl.SubmitOTP("123456", "Asha"))
	require.Equal(t, checkout.StepAddress, ctrl.Step())

	ctrl.SetAddress("12 MG Road", "", "Hyderabad", "500081")
	ctrl.SetPhone("9999999999")
	order, err := ctrl.Submit(checkout.PaymentCOD)
	require.NoError(t, err)

	assert.Equal(t, int64(499), b.LastCOD.Amount, "amount is qty x unit price")
	assert.Equal(t, "cust_1", b.LastCOD.CustomerID)
	assert.Equal(t, "12 MG Road", b.LastCOD.Address.Line1)
	assert.Equal(t, "9999999999", b.LastCOD.Address.Phone)
	assert.Equal(t, "placed", order.Status)

	placed, ok := ctrl.Order()
	require.True(t, ok)
	assert.Equal(t, order.ID, placed.ID)
}

func TestOnlineSuccess(t *testing.T) {
	b := apitest.Start(t)
	gw := &fakeGateway{paymentID: "pay_1", signature: "sig_valid"}
	ctrl := open(t, b, newStore(t), gw)
	authenticate(t, ctrl)

	ctrl.SetAddress("12 MG Road", "", "Hyderabad", "500081")
	ctrl.SetPhone("9999999999")
	order, err := ctrl.Submit(checkout.PaymentOnline)
	require.NoError(t, err)
	assert.Equal(t, "paid", order.Status)

	require.Len(t, gw.opened, 1)
	opts := gw.opened[0]
	assert.Equal(t, "rzp_test_x", opts.KeyID)
	assert.Equal(t, "order_1", opts.OrderID)
	assert.Equal(t, int64(49900), opts.Amount, "provider amount is in paise")
	assert.Equal(t, "INR", opts.Currency)

	assert.Equal(t, "order_1", b.LastVerify.RazorpayOrderID)
	assert.Equal(t, "pay_1", b.LastVerify.RazorpayPaymentID)
	assert.Equal(t, "sig_valid", b.LastVerify.RazorpaySignature)
	assert.Equal(t, int64(499), b.LastVerify.Amount)
	assert.Equal(t, "12 MG Road", b.LastVerify.Address.Line1)
	require.Len(t, b.LastVerify.Items, 1)
	assert.Equal(t, "devi-spicy-chicken-pickle", b.LastVerify.Items[0].ProductID)
}

func TestOnlineDismissAbortsWithoutVerify(t *testing.T) {
	b := apitest.Start(t)
	gw := &fakeGateway{dismiss: true}
	ctrl := open(t, b, newStore(t), gw)
	authenticate(t, ctrl)

	ctrl.SetAddress("12 MG Road", "", "Hyderabad", "500081")
	ctrl.SetPhone("9999999999")
	_, err := ctrl.Submit(checkout.PaymentOnline)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, api.KindThirdParty, apiErr.Kind)
	assert.ErrorIs(t, err, checkout.ErrDismissed)

	assert.Equal(t, 0, b.Calls("/api/v1/payments/verify"))
	assert.Equal(t, checkout.StepAddress, ctrl.Step())
	assert.False(t, ctrl.Loading())

	// Dismissal is terminal for the attempt only: the shopper may retry.
	gw.dismiss = false
	gw.paymentID = "pay_2"
	gw.signature = "sig_valid"
	_, err = ctrl.Submit(checkout.PaymentOnline)
	require.NoError(t, err)
}

func TestGatewayLoadFailureStopsBeforeCreateOrder(t *testing.T) {
	b := apitest.Start(t)
	gw := &fakeGateway{loadErr: errors.New("script blocked")}
	ctrl := open(t, b, newStore(t), gw)
	authenticate(t, ctrl)

	ctrl.SetAddress("12 MG Road", "", "Hyderabad", "500081")
	ctrl.SetPhone("9999999999")
	_, err := ctrl.Submit(checkout.PaymentOnline)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, api.KindThirdParty, apiErr.Kind)
	assert.Equal(t, 0, b.Calls("/api/v1/payments/create-order"))
}

func TestBackendMessageSurfacesVerbatim(t *testing.T) {
	b := apitest.Start(t)
	b.Fail("/api/v1/auth/send-otp", http.StatusInternalServerError, "OTP service down")

	ctrl := open(t, b, newStore(t), &fakeGateway{})
	err := ctrl.SubmitEmail("a@b.com")
	require.Error(t, err)
	assert.Equal(t, "OTP service down", api.Message(err))
	assert.Equal(t, checkout.StepEmail, ctrl.Step())
	assert.False(t, ctrl.Loading())
}

func TestClosedControllerRejectsSubmissions(t *testing.T) {
	b := apitest.Start(t)
	ctrl := open(t, b, newStore(t), &fakeGateway{})

	ctrl.Close()
	err := ctrl.SubmitEmail("a@b.com")
	assert.ErrorIs(t, err, checkout.ErrClosed)
	assert.Equal(t, 0, b.Calls("/api/v1/auth/send-otp"))
}

func TestLazyGatewayLoadsOnce(t *testing.T) {
	inner := &fakeGateway{}
	gw := checkout.LazyGateway(inner)

	require.NoError(t, gw.Load(context.Background()))
	require.NoError(t, gw.Load(context.Background()))
	assert.Equal(t, 1, inner.loads)
}

func TestLazyGatewayRetriesAfterFailure(t *testing.T) {
	inner := &fakeGateway{loadErr: errors.New("offline")}
	gw := checkout.LazyGateway(inner)

	require.Error(t, gw.Load(context.Background()))
	inner.loadErr = nil
	require.NoError(t, gw.Load(context.Background()))
	require.NoError(t, gw.Load(context.Background()))
	assert.Equal(t, 2, inner.loads)
}
