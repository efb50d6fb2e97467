package net

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// GetJSON retrieves the HTTP content and decodes it into the passed target.
func GetJSON[T any](c *http.Client, url string, target *T) error {
	resp, err := getResp(c, url)
	if err != nil {
		return fmt.Errorf("error creating HTTP Get request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s for: %s", resp.Status, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("error decoding content: %w", err)
	}
	return nil
}
