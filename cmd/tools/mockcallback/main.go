// Command mockcallback posts a signed payment callback, the way the
// gateway's checkout widget does after a successful payment. Use it with
// GATEWAY_DRIVER=mock and the razorpay_order_id returned by POST /checkout.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"agromart.store/app/internal/modules/payments"
)

func main() {
	target := flag.String("url", "http://localhost:8080/payments/callback", "Callback URL")
	secret := flag.String("secret", envOr("RAZORPAY_KEY_SECRET", "mock_secret"), "Signing secret")
	orderRef := flag.String("order", "", "Gateway order id (razorpay_order_id)")
	paymentRef := flag.String("payment", "pay_"+randomHex(7), "Gateway payment id")
	tamper := flag.Bool("tamper", false, "Send a wrong signature")
	dryRun := flag.Bool("dry-run", false, "Print the form without sending it")
	flag.Parse()

	if *orderRef == "" {
		fmt.Fprintln(os.Stderr, "Error: -order is required")
		os.Exit(2)
	}

	sig := payments.Sign(*secret, *orderRef, *paymentRef)
	if *tamper {
		sig = strings.Repeat("0", len(sig))
	}
	form := url.Values{
		"razorpay_order_id":   {*orderRef},
		"razorpay_payment_id": {*paymentRef},
		"razorpay_signature":  {sig},
	}
	fmt.Printf("Form: %s\n", form.Encode())
	if *dryRun {
		return
	}

	client := &http.Client{
		Timeout: 10 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.PostForm(*target, form)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending callback: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	fmt.Printf("Status: %d\n", resp.StatusCode)
	if loc := resp.Header.Get("Location"); loc != "" {
		fmt.Printf("Location: %s\n", loc)
	}
	if len(body) > 0 {
		fmt.Printf("Response: %s\n", body)
	}
	if resp.StatusCode != http.StatusSeeOther {
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
