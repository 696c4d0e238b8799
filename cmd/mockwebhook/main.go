// Command mockwebhook signs a provider notification and posts it to the
// webhook endpoint, for local testing.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"webhook-service/internal/api"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	url := flag.String("url", "http://localhost:8080/v1/webhooks/events/create/", "webhook endpoint")
	eventType := flag.String("type", "charge.succeeded", "provider event type")
	orderID := flag.String("order", "1", "order id")
	eventID := flag.String("id", "", "provider event id (random when empty)")
	secret := flag.String("secret", os.Getenv("HMAC_SECRET_KEY"), "HMAC secret")
	flag.Parse()

	if *eventID == "" {
		*eventID = "evt_" + uuid.New().String()
	}

	body, err := json.Marshal(map[string]interface{}{
		"event_id":   *eventID,
		"event_type": *eventType,
		"order_id":   *orderID,
		"date":       time.Now().UTC().Format(time.RFC3339),
		"data": map[string]interface{}{
			"object":   *eventType,
			"livemode": false,
		},
	})
	if err != nil {
		log.Fatalf("Failed to marshal payload: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, *url, bytes.NewReader(body))
	if err != nil {
		log.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(api.SignatureHeader, api.ComputeSignature(body, *secret))

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("%s %s\n", resp.Status, respBody)
}
