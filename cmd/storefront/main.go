package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/example/devifoods/internal/account"
	"github.com/example/devifoods/internal/api"
	"github.com/example/devifoods/internal/catalog"
	"github.com/example/devifoods/internal/checkout"
	"github.com/example/devifoods/internal/config"
	"github.com/example/devifoods/internal/models"
	"github.com/example/devifoods/internal/session"
)

func main() {
	cfg := config.Load()

	client := api.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout)
	store := session.NewStore(cfg.SessionFile)
	accounts := account.NewService(client, store)

	log.Printf("Devi Foods storefront, API at %s", cfg.APIBaseURL)

	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Println("\n[1] Buy now  [2] My account  [3] Reviews  [4] Logout  [q] Quit")
		switch prompt(in, "> ") {
		case "1":
			runCheckout(in, cfg, client, store)
		case "2":
			showAccount(in, accounts)
		case "3":
			showReviews(client)
		case "4":
			if err := accounts.Logout(context.Background()); err != nil {
				fmt.Println(api.Message(err))
			} else {
				fmt.Println("Logged out.")
			}
		case "q", "":
			return
		}
	}
}

func runCheckout(in *bufio.Scanner, cfg *config.Config, client *api.Client, store *session.Store) {
	sel := chooseSelection(in)
	fmt.Printf("%s — ₹%d\n", sel.Describe(), sel.Total())

	ctrl := checkout.Open(context.Background(), checkout.Config{
		API:           client,
		Store:         store,
		Gateway:       checkout.LazyGateway(&manualGateway{in: in}),
		Items:         []models.CartLineItem{sel.LineItem()},
		Amount:        sel.Total(),
		Description:   sel.Describe(),
		FallbackKeyID: cfg.RazorpayKeyID,
	})
	defer ctrl.Close()

	for {
		switch ctrl.Step() {
		case checkout.StepEmail:
			if err := ctrl.SubmitEmail(prompt(in, "Email address: ")); err != nil {
				fmt.Println(api.Message(err))
			}
		case checkout.StepOTP:
			var name string
			if mode, ok := ctrl.Mode(); ok && mode == checkout.AuthModeSignup {
				name = prompt(in, "Your name: ")
			}
			code := prompt(in, "6-digit OTP (or \"resend\"): ")
			if code == "resend" {
				if err := ctrl.ResendOTP(); err != nil {
					fmt.Println(api.Message(err))
				}
				continue
			}
			if err := ctrl.SubmitOTP(code, name); err != nil {
				fmt.Println(api.Message(err))
			}
		case checkout.StepAddress:
			if done := addressStep(in, ctrl); done {
				return
			}
		}
	}
}

func addressStep(in *bufio.Scanner, ctrl *checkout.Controller) bool {
	if saved := ctrl.Addresses(); len(saved) > 0 {
		fmt.Println("Saved addresses:")
		for i, a := range saved {
			marker := " "
			if a.Key() == ctrl.SelectedAddressID() {
				marker = "*"
			}
			fmt.Printf(" %s [%d] %s, %s, %s %s\n", marker, i+1, a.Name, a.Line1, a.City, a.Pincode)
		}
		if choice := prompt(in, "Pick an address number, or Enter for manual entry: "); choice != "" {
			if idx, err := strconv.Atoi(choice); err == nil && idx >= 1 && idx <= len(saved) {
				if err := ctrl.SelectAddress(saved[idx-1].Key()); err != nil {
					fmt.Println(api.Message(err))
				}
			}
		} else {
			_ = ctrl.SelectAddress("")
		}
	}

	if ctrl.SelectedAddressID() == "" {
		line1 := prompt(in, "Address (house / flat / street): ")
		city := prompt(in, "City: ")
		pincode := prompt(in, "Pincode: ")
		ctrl.SetAddress(line1, "", city, pincode)
	}

	if phone := prompt(in, fmt.Sprintf("Contact phone [%s]: ", ctrl.Phone())); phone != "" {
		ctrl.SetPhone(phone)
	}

	method := checkout.PaymentCOD
	if strings.EqualFold(prompt(in, "Pay online? [y/N]: "), "y") {
		method = checkout.PaymentOnline
	}

	order, err := ctrl.Submit(method)
	if err != nil {
		fmt.Println(api.Message(err))
		return false
	}
	fmt.Printf("Order placed! ID %s, status %s, ₹%d\n", order.ID, order.Status, order.Amount)
	return true
}

func chooseSelection(in *bufio.Scanner) catalog.Selection {
	product := catalog.ChickenPickle
	fmt.Printf("Product: %s\n", product.Name)

	weight := catalog.WeightOptions[1]
	fmt.Println("Weights:")
	for i, w := range catalog.WeightOptions {
		fmt.Printf("  [%d] %s — ₹%d\n", i+1, w.Label, w.Price)
	}
	if idx, err := strconv.Atoi(prompt(in, "Weight [2]: ")); err == nil && idx >= 1 && idx <= len(catalog.WeightOptions) {
		weight = catalog.WeightOptions[idx-1]
	}

	pack := catalog.PackOptions[0]
	if strings.EqualFold(prompt(in, "Without bottle? [y/N]: "), "y") {
		pack = catalog.PackOptions[1]
	}

	sel := catalog.NewSelection(product, weight, pack)
	if qty, err := strconv.Atoi(prompt(in, "Quantity [1]: ")); err == nil && qty > 1 {
		sel.Qty = qty
	}
	return sel
}

func showAccount(in *bufio.Scanner, accounts *account.Service) {
	view, err := accounts.Load(context.Background())
	if err != nil {
		if errors.Is(err, account.ErrNotLoggedIn) {
			fmt.Println("You are not logged in. Buy something first to sign in.")
		} else {
			fmt.Println(api.Message(err))
		}
		return
	}

	fmt.Printf("%s <%s>\n", view.User.Name, view.User.Email)
	fmt.Printf("Addresses (%d):\n", len(view.Addresses))
	for _, a := range view.Addresses {
		fmt.Printf("  %s, %s, %s %s (%s)\n", a.Name, a.Line1, a.City, a.Pincode, a.Phone)
	}
	fmt.Printf("Orders (%d):\n", len(view.Orders))
	for _, o := range view.Orders {
		fmt.Printf("  %s  %-8s ₹%d  → %s, %s %s\n", o.ID, o.Status, o.Amount, o.Address.Line1, o.Address.City, o.Address.Pincode)
	}

	if strings.EqualFold(prompt(in, "Add a new address? [y/N]: "), "y") {
		addr := promptAddress(in)
		if _, err := accounts.AddAddress(context.Background(), addr); err != nil {
			fmt.Println(api.Message(err))
		} else {
			fmt.Println("Address saved.")
		}
	}
}

func promptAddress(in *bufio.Scanner) models.OrderAddress {
	return models.OrderAddress{
		Name:    prompt(in, "Name: "),
		Phone:   prompt(in, "Phone: "),
		Line1:   prompt(in, "Address line 1: "),
		Line2:   prompt(in, "Address line 2 (optional): "),
		City:    prompt(in, "City: "),
		Pincode: prompt(in, "Pincode: "),
	}
}

func showReviews(client *api.Client) {
	reviews, err := client.ListReviews(context.Background(), catalog.ChickenPickle.ID)
	if err != nil {
		fmt.Println(api.Message(err))
		return
	}
	if len(reviews) == 0 {
		fmt.Println("No reviews yet.")
		return
	}
	for _, r := range reviews {
		fmt.Printf("  %s  %d/5  %s\n", r.UserName, r.Stars, r.Text)
	}
}

// manualGateway stands in for the browser payment widget: it shows the
// provider order and reads the signature fields back. An empty payment ID
// counts as dismissing the widget.
type manualGateway struct {
	in *bufio.Scanner
}

func (g *manualGateway) Load(ctx context.Context) error {
	log.Printf("[Razorpay] SDK loaded")
	return nil
}

func (g *manualGateway) Open(ctx context.Context, opts checkout.WidgetOptions) (checkout.Completion, error) {
	fmt.Printf("Pay %d %s for provider order %s (key %s)\n", opts.Amount, opts.Currency, opts.OrderID, opts.KeyID)
	paymentID := prompt(g.in, "Provider payment ID (Enter to cancel): ")
	if paymentID == "" {
		return checkout.Completion{}, checkout.ErrDismissed
	}
	signature := prompt(g.in, "Provider signature: ")
	return checkout.Completion{OrderID: opts.OrderID, PaymentID: paymentID, Signature: signature}, nil
}

func prompt(in *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !in.Scan() {
		fmt.Println()
		os.Exit(0)
	}
	return strings.TrimSpace(in.Text())
}
