// Hammers the public tracking endpoint to exercise the lookup cache.
package main

import (
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

const (
	baseURL       = "http://localhost:8080/orders/tracking/"
	fixedTracking = "TRK1A2B3C4D5E"
)

func main() {
	for {
		var wg sync.WaitGroup
		for range rand.Intn(10) {
			wg.Go(doRequest)
		}
		wg.Wait()
		time.Sleep(20 * time.Millisecond)
	}
}

func randomTracking(length int) string {
	chars := []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	id := make([]rune, length)
	for i := range id {
		id[i] = chars[rand.Intn(len(chars))]
	}
	return "TRK" + string(id)
}

func doRequest() {
	tracking := fixedTracking
	if rand.Intn(5) == 0 {
		tracking = randomTracking(10)
	}

	url := baseURL + tracking
	resp, err := http.Get(url)
	if err != nil {
		fmt.Println("request error:", err)
	} else {
		fmt.Println("GET", url, "->", resp.Status)
		resp.Body.Close()
	}
}
