// Dev seeding script: registers a handful of users against a locally running
// server, verifies them directly in the database, and has them exchange a few
// messages so the directory and conversation views have something to show.
//
// Usage: DATABASE_URL=... go run scripts/seed-chat.go
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const apiBase = "http://localhost:8080/api/v1"

type User struct {
	Email    string
	Password string
	Token    string
	UserID   string
}

type AuthResponse struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	AccessToken string `json:"accessToken"`
}

func registerUser(email, password string) (*User, error) {
	body, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})

	resp, err := http.Post(apiBase+"/auth/register", "application/json", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("register %s: %s (%s)", email, resp.Status, data)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return nil, err
	}

	return &User{
		Email:    email,
		Password: password,
		Token:    authResp.AccessToken,
		UserID:   authResp.User.ID,
	}, nil
}

func login(user *User) error {
	body, _ := json.Marshal(map[string]string{
		"email":    user.Email,
		"password": user.Password,
	})

	resp, err := http.Post(apiBase+"/auth/login", "application/json", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("login %s: %s (%s)", user.Email, resp.Status, data)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return err
	}
	user.Token = authResp.AccessToken
	return nil
}

func sendMessage(from *User, to *User, text string) error {
	body, _ := json.Marshal(map[string]string{
		"receiverId": to.UserID,
		"text":       text,
	})

	req, err := http.NewRequest(http.MethodPost, apiBase+"/messages", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+from.Token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("send %s -> %s: %s (%s)", from.Email, to.Email, resp.Status, data)
	}
	return nil
}

// verifyAll flips email_verified directly in the database so the seeded
// accounts can use the chat surface without a mail round-trip.
func verifyAll(dsn string, users []*User) error {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return err
	}

	for _, u := range users {
		if err := db.Exec("UPDATE users SET email_verified = true WHERE id = ?", u.UserID).Error; err != nil {
			return fmt.Errorf("verify %s: %w", u.Email, err)
		}
	}
	return nil
}

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fmt.Println("DATABASE_URL is required to verify the seeded accounts")
		os.Exit(1)
	}

	seeds := []struct {
		email    string
		password string
	}{
		{"alice@example.com", "password123"},
		{"bob@example.com", "password123"},
		{"carol@example.com", "password123"},
	}

	users := make([]*User, 0, len(seeds))
	for _, s := range seeds {
		user, err := registerUser(s.email, s.password)
		if err != nil {
			fmt.Printf("Failed to register %s: %v\n", s.email, err)
			os.Exit(1)
		}
		fmt.Printf("Registered %s (%s)\n", user.Email, user.UserID)
		users = append(users, user)
	}

	if err := verifyAll(dsn, users); err != nil {
		fmt.Printf("Failed to verify accounts: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Verified all accounts")

	// Re-login so the tokens reflect the verified accounts.
	for _, u := range users {
		if err := login(u); err != nil {
			fmt.Printf("Failed to log in %s: %v\n", u.Email, err)
			os.Exit(1)
		}
	}

	conversations := []struct {
		from, to int
		text     string
	}{
		{0, 1, "hey bob, how's it going?"},
		{1, 0, "pretty good! shipping the new build today"},
		{0, 1, "nice, ping me when it's up"},
		{2, 0, "alice, do you have a minute?"},
		{0, 2, "sure, what's up?"},
	}

	for _, c := range conversations {
		if err := sendMessage(users[c.from], users[c.to], c.text); err != nil {
			fmt.Printf("Failed to send message: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Seeded %d users and %d messages\n", len(users), len(conversations))
	for _, u := range users {
		fmt.Printf("  %s / %s\n", u.Email, u.Password)
	}
}
