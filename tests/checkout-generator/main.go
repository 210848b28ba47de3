// Posts random checkout requests against a running instance.
// Product ids are taken from PRODUCT_IDS (comma separated).
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

const baseURL = "http://localhost:8080"

type item struct {
	ProductID     string `json:"product_id"`
	Quantity      int    `json:"quantity"`
	SelectedColor string `json:"selected_color,omitempty"`
}

type address struct {
	FullName string `json:"full_name"`
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zip_code"`
	Country  string `json:"country"`
	Phone    string `json:"phone"`
}

type checkoutRequest struct {
	Items           []item  `json:"items"`
	ShippingAddress address `json:"shipping_address"`
	ShippingMethod  string  `json:"shipping_method"`
	PaymentMethod   string  `json:"payment_method"`
}

var (
	shippingMethods = []string{"Standard", "Express", "Overnight"}
	paymentMethods  = []string{"card", "cod", "stripe", "paypal"}
)

func randomCheckout(productIDs []string) checkoutRequest {
	items := make([]item, 0, 3)
	for _, id := range productIDs {
		if rand.Intn(2) == 0 {
			continue
		}
		items = append(items, item{ProductID: id, Quantity: 1 + rand.Intn(3)})
	}
	if len(items) == 0 {
		items = append(items, item{ProductID: productIDs[rand.Intn(len(productIDs))], Quantity: 1})
	}

	return checkoutRequest{
		Items: items,
		ShippingAddress: address{
			FullName: "John Doe",
			Street:   fmt.Sprintf("%d Main St", 1+rand.Intn(999)),
			City:     "Springfield",
			State:    "IL",
			ZipCode:  fmt.Sprintf("%05d", rand.Intn(99999)),
			Country:  "USA",
			Phone:    fmt.Sprintf("+1555%07d", rand.Intn(9999999)),
		},
		ShippingMethod: shippingMethods[rand.Intn(len(shippingMethods))],
		PaymentMethod:  paymentMethods[rand.Intn(len(paymentMethods))],
	}
}

func main() {
	ids := strings.Split(os.Getenv("PRODUCT_IDS"), ",")
	if len(ids) == 0 || ids[0] == "" {
		log.Fatal("PRODUCT_IDS is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	ticker := time.NewTicker(2 * time.Second)
	for {
		select {
		case <-ticker.C:
			body, _ := json.Marshal(randomCheckout(ids))
			req, _ := http.NewRequest(http.MethodPost, baseURL+"/orders", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-User-ID", fmt.Sprintf("user-%d", rand.Intn(20)))
			req.Header.Set("X-User-Email", "user@example.com")

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				log.Println("request error:", err)
				continue
			}
			log.Println("POST /orders ->", resp.Status)
			resp.Body.Close()
		case <-ctx.Done():
			return
		}
	}
}
