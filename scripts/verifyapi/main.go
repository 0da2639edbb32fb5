package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
)

// Smoke test against a running stack: create two users, log in, open a
// private channel, post messages, page the history, move the read
// marker.

type loginResponse struct {
	Token string `json:"token"`
}

type userView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Online   bool   `json:"online"`
}

type channelView struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

type messagePage struct {
	Content    []json.RawMessage `json:"content"`
	NextCursor string            `json:"nextCursor"`
	Size       int               `json:"size"`
	HasNext    bool              `json:"hasNext"`
}

func main() {
	apiAddr := os.Getenv("API_URL")
	if apiAddr == "" {
		apiAddr = "http://localhost:8081"
	}

	alice := createUser(apiAddr, "alice_smoke", "alice_smoke@example.com")
	bob := createUser(apiAddr, "bob_smoke", "bob_smoke@example.com")
	log.Printf("Users: %s (%s), %s (%s)", alice.Username, alice.ID, bob.Username, bob.ID)

	token := login(apiAddr, alice.ID)
	fmt.Printf("Token: %s...\n", token[:10])

	channel := createPrivateChannel(apiAddr, token, []string{alice.ID, bob.ID})
	log.Printf("Private channel: %s", channel.ID)

	for i := 1; i <= 12; i++ {
		postMessage(apiAddr, token, channel.ID, alice.ID, fmt.Sprintf("smoke message %d", i))
	}

	cursor := ""
	page := 1
	for {
		p := fetchPage(apiAddr, token, channel.ID, cursor, 5)
		log.Printf("Page %d: size=%d hasNext=%v", page, p.Size, p.HasNext)
		if !p.HasNext {
			break
		}
		cursor = p.NextCursor
		page++
	}

	markRead(apiAddr, token, alice.ID, channel.ID)
	log.Println("Smoke test passed")
}

func createUser(apiAddr, username, email string) userView {
	var body bytes.Buffer
	mp := multipart.NewWriter(&body)
	mp.WriteField("username", username)
	mp.WriteField("email", email)
	mp.Close()

	resp, err := http.Post(apiAddr+"/api/users", mp.FormDataContentType(), &body)
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		fail("create user", resp)
	}

	var u userView
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		log.Fatal(err)
	}
	return u
}

func login(apiAddr, userID string) string {
	reqBody, _ := json.Marshal(map[string]string{"userId": userID})
	resp, err := http.Post(apiAddr+"/api/auth/login", "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fail("login", resp)
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		log.Fatal(err)
	}
	return lr.Token
}

func createPrivateChannel(apiAddr, token string, participantIDs []string) channelView {
	reqBody, _ := json.Marshal(map[string]any{"participantIds": participantIDs})
	resp := do(apiAddr+"/api/channels/private", "POST", token, "application/json", bytes.NewBuffer(reqBody))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		fail("create private channel", resp)
	}

	var ch channelView
	if err := json.NewDecoder(resp.Body).Decode(&ch); err != nil {
		log.Fatal(err)
	}
	return ch
}

func postMessage(apiAddr, token, channelID, authorID, content string) {
	var body bytes.Buffer
	mp := multipart.NewWriter(&body)
	mp.WriteField("channelId", channelID)
	mp.WriteField("authorId", authorID)
	mp.WriteField("content", content)
	mp.Close()

	resp := do(apiAddr+"/api/messages", "POST", token, mp.FormDataContentType(), &body)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		fail("post message", resp)
	}
	io.Copy(io.Discard, resp.Body)
}

func fetchPage(apiAddr, token, channelID, cursor string, pageSize int) messagePage {
	url := fmt.Sprintf("%s/api/messages?channelId=%s&pageSize=%d", apiAddr, channelID, pageSize)
	if cursor != "" {
		url += "&cursor=" + cursor
	}
	resp := do(url, "GET", token, "", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fail("fetch page", resp)
	}

	var p messagePage
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		log.Fatal(err)
	}
	return p
}

func markRead(apiAddr, token, userID, channelID string) {
	url := fmt.Sprintf("%s/api/readStatuses?userId=%s&channelId=%s", apiAddr, userID, channelID)
	reqBody, _ := json.Marshal(map[string]string{"newLastReadAt": "2026-01-01T00:00:00Z"})
	resp := do(url, "PATCH", token, "application/json", bytes.NewBuffer(reqBody))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fail("mark read", resp)
	}
}

func do(url, method, token, contentType string, body io.Reader) *http.Response {
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		log.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	return resp
}

func fail(step string, resp *http.Response) {
	body, _ := io.ReadAll(resp.Body)
	log.Fatalf("%s failed: %d %s", step, resp.StatusCode, string(body))
}
