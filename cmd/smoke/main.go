package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

// Pretty print JSON helper
func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, url, token string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func decode(body []byte) map[string]interface{} {
	var m map[string]interface{}
	json.Unmarshal(body, &m)
	return m
}

func main() {
	token := os.Getenv("SMOKE_USER_TOKEN")
	if token == "" {
		color.Red("SMOKE_USER_TOKEN is required (a valid user JWT)")
		os.Exit(1)
	}

	color.Cyan("🚀 Starting Assistant API Smoke Test\n")

	// 1. Information question
	color.Yellow("\n[1] Ask an information question")
	resp, body, err := sendRequest("POST", "/assistant/v1/message", token, map[string]interface{}{
		"message": "Who directed Blade Runner 2049?",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(decode(body))

	// Give the reveal time to finish and the debounced save to land.
	time.Sleep(3 * time.Second)

	// 2. Current state
	color.Yellow("\n[2] Fetch assistant state")
	resp, body, err = sendRequest("GET", "/assistant/v1/state", token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(decode(body))

	// 3. Switch to recommendation mode
	color.Yellow("\n[3] Switch to recommendation mode")
	resp, body, err = sendRequest("POST", "/assistant/v1/mode", token, map[string]interface{}{
		"mode": "recommendation",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(decode(body))

	// 4. Ask for recommendations
	color.Yellow("\n[4] Ask for recommendations")
	resp, body, err = sendRequest("POST", "/assistant/v1/message", token, map[string]interface{}{
		"message": "moody sci-fi like Arrival",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	recResp := decode(body)
	prettyPrint(recResp)

	// 5. Track a click on the results
	color.Yellow("\n[5] Track a click interaction")
	resp, body, err = sendRequest("POST", "/assistant/v1/interaction", token, map[string]interface{}{
		"interaction_type": "click",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(decode(body))

	// 6. Session history
	color.Yellow("\n[6] List sessions")
	resp, body, err = sendRequest("GET", "/assistant/v1/sessions", token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(decode(body))

	color.Cyan("\n✅ Smoke test finished")
}
