package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mahaj/chatcore/pkg/model"
)

// Interactive terminal client: logs in, opens the liveness socket, and
// pages backwards through a channel's history on demand. Lines typed at
// the prompt are sent as message events over the socket.

type loginResponse struct {
	Token string `json:"token"`
}

type messageView struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
	Author  struct {
		Username string `json:"username"`
		Online   bool   `json:"online"`
	} `json:"author"`
	CreatedAt string `json:"createdAt"`
}

type messagePage struct {
	Content    []messageView `json:"content"`
	NextCursor string        `json:"nextCursor"`
	HasNext    bool          `json:"hasNext"`
}

func login(apiAddr, userID string) (string, error) {
	reqBody, _ := json.Marshal(map[string]string{"userId": userID})
	resp, err := http.Post(apiAddr+"/api/auth/login", "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("login failed: %s", string(body))
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", err
	}
	return lr.Token, nil
}

func fetchPage(apiAddr, token, channelID, cursor string, pageSize int) (*messagePage, error) {
	reqURL := fmt.Sprintf("%s/api/messages?channelId=%s&pageSize=%d", apiAddr, channelID, pageSize)
	if cursor != "" {
		reqURL += "&cursor=" + url.QueryEscape(cursor)
	}
	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("history request failed: %s", string(body))
	}

	var page messagePage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, err
	}
	return &page, nil
}

func printPage(page *messagePage) {
	// Pages come newest first; print oldest first for reading.
	for i := len(page.Content) - 1; i >= 0; i-- {
		m := page.Content[i]
		marker := " "
		if m.Author.Online {
			marker = "*"
		}
		fmt.Printf("%s %s: %s\n", marker, m.Author.Username, m.Content)
	}
}

func main() {
	gatewayAddr := flag.String("addr", "localhost:8080", "gateway service address")
	apiAddr := flag.String("api", "http://localhost:8081", "api service address")
	userID := flag.String("user", "", "user id (uuid)")
	channelID := flag.String("channel", "", "channel id (uuid)")
	pageSize := flag.Int("page-size", 20, "messages per history page")
	flag.Parse()

	if *userID == "" || *channelID == "" {
		log.Fatal("both -user and -channel are required")
	}
	channelUUID, err := uuid.Parse(*channelID)
	if err != nil {
		log.Fatal("channel id must be a uuid")
	}

	log.Printf("Logging in as %s...", *userID)
	token, err := login(*apiAddr, *userID)
	if err != nil {
		log.Fatal("Login failed: ", err)
	}

	page, err := fetchPage(*apiAddr, token, *channelID, "", *pageSize)
	if err != nil {
		log.Fatal("History fetch failed: ", err)
	}
	printPage(page)
	cursor := page.NextCursor
	hasMore := page.HasNext

	u := url.URL{Scheme: "ws", Host: *gatewayAddr, Path: "/ws"}
	header := http.Header{}
	header.Add("Authorization", "Bearer "+token)

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), header)
	if err != nil {
		log.Fatal("dial: ", err)
	}
	defer conn.Close()

	// Drain control frames so pings get answered.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	fmt.Println("Type a message and press enter. /older pages back, /quit exits.")
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		fmt.Print("> ")
		select {
		case <-interrupt:
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			switch line {
			case "/quit":
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			case "/older":
				if !hasMore {
					fmt.Println("(beginning of history)")
					continue
				}
				page, err := fetchPage(*apiAddr, token, *channelID, cursor, *pageSize)
				if err != nil {
					log.Println("History fetch failed:", err)
					continue
				}
				printPage(page)
				cursor = page.NextCursor
				hasMore = page.HasNext
			case "":
			default:
				event := model.MessageEvent{ChannelID: channelUUID, Content: line}
				raw, _ := json.Marshal(event)
				if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
					log.Println("write:", err)
					return
				}
			}
		}
	}
}
