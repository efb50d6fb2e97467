package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/urfave/cli/v2"
	"github.com/zalando/go-keyring"
)

const (
	tokenFileName  = "dataset_token"
	keyringService = name
	keyringUser    = "dataset_token"
)

var (
	tokenFlag = &cli.StringFlag{
		Name:  "token",
		Usage: "Dataset access token (prompted for when not provided)",
	}

	authCmd = &cli.Command{
		Name:            "auth",
		HideHelpCommand: true,
		Usage:           "Store the dataset access token used for snapshot downloads",
		Action:          cmdSaveToken,
		Flags: []cli.Flag{
			tokenFlag,
		},
	}
)

func cmdSaveToken(c *cli.Context) error {
	token := c.String(tokenFlag.Name)

	if token == "" {
		fmt.Print("Paste the dataset access token and hit enter:\n>")
		if _, err := fmt.Scanln(&token); err != nil {
			return fmt.Errorf("reading user input: %w", err)
		}
	}

	if err := saveDatasetToken(token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	fmt.Println("Token saved to OS keychain")
	return nil
}

func saveDatasetToken(token string) error {
	if err := keyring.Set(keyringService, keyringUser, token); err != nil {
		slog.Warn("keychain unavailable, falling back to file", "error", err)
		return saveDatasetTokenFile(token)
	}

	// Clean up legacy file if it exists
	legacyPath := path.Join(getHomeDir(), tokenFileName)
	os.Remove(legacyPath)

	return nil
}

func getDatasetToken() (string, error) {
	// Try keychain first
	token, err := keyring.Get(keyringService, keyringUser)
	if err == nil && token != "" {
		return token, nil
	}

	// Fall back to file
	token, err = getDatasetTokenFile()
	if err != nil {
		return "", err
	}

	// Migrate to keychain
	if migrateErr := keyring.Set(keyringService, keyringUser, token); migrateErr == nil {
		slog.Info("migrated token from file to OS keychain")
		legacyPath := path.Join(getHomeDir(), tokenFileName)
		os.Remove(legacyPath)
	}

	return token, nil
}

func saveDatasetTokenFile(token string) error {
	tokenPath := path.Join(getHomeDir(), tokenFileName)
	return os.WriteFile(tokenPath, []byte(token), 0600)
}

func getDatasetTokenFile() (string, error) {
	tokenPath := path.Join(getHomeDir(), tokenFileName)
	b, err := os.ReadFile(tokenPath)
	if err != nil {
		return "", fmt.Errorf("reading token file %s: %w", tokenPath, err)
	}
	return string(b), nil
}
