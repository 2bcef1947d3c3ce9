package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"paperchat-be/pkg/rag/citation"

	"github.com/fatih/color"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

// smoke walks the chat API end to end against a running server: create a
// session, select a document, ask a question, print the answer and sources.

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func (c *client) send(method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	if !env.Success {
		return fmt.Errorf("%s %s: %d %s", method, path, env.Code, env.Message)
	}
	if out != nil {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

func mintToken(secret, userID string) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
}

func fail(step string, err error) {
	color.Red("%s failed: %v", step, err)
	os.Exit(1)
}

func main() {
	_ = godotenv.Load()

	baseURL := flag.String("url", "http://localhost:3000/api/chat/v1", "chat API base URL")
	query := flag.String("q", "What is this document about?", "question to ask")
	userID := flag.String("user", "smoke-user", "user id placed in the token")
	flag.Parse()

	token, err := mintToken(os.Getenv("JWT_SECRET"), *userID)
	if err != nil {
		fail("Token", err)
	}
	c := &client{baseURL: *baseURL, token: token, http: &http.Client{Timeout: 2 * time.Minute}}

	color.Yellow("1. List documents")
	var docs []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	if err := c.send(http.MethodGet, "/documents", nil, &docs); err != nil {
		fail("List documents", err)
	}
	if len(docs) == 0 {
		color.Red("No documents, run cmd/seed first")
		os.Exit(1)
	}
	color.Green("Using %q (%s)", docs[0].Title, docs[0].ID)

	color.Yellow("\n2. Create session")
	var session struct {
		ID string `json:"id"`
	}
	if err := c.send(http.MethodPost, "/sessions", nil, &session); err != nil {
		fail("Create session", err)
	}
	color.Green("Session %s", session.ID)

	color.Yellow("\n3. Select document")
	if err := c.send(http.MethodPut, "/sessions/"+session.ID+"/document", map[string]string{"document_id": docs[0].ID}, nil); err != nil {
		fail("Select document", err)
	}

	color.Yellow("\n4. Ask: %s", *query)
	var reply struct {
		Reply struct {
			Content         string `json:"content"`
			SourcesMarkdown string `json:"sources_markdown"`
			Faulted         bool   `json:"faulted"`
			Reason          string `json:"reason"`
		} `json:"reply"`
		Rebuilt bool `json:"pipeline_rebuilt"`
	}
	if err := c.send(http.MethodPost, "/sessions/"+session.ID+"/messages", map[string]string{"query": *query}, &reply); err != nil {
		fail("Send message", err)
	}

	if reply.Reply.Faulted {
		color.Red("Turn faulted (%s): %s", reply.Reply.Reason, reply.Reply.Content)
	} else {
		color.Green("Answer (pipeline rebuilt: %v)", reply.Rebuilt)
		fmt.Println(citation.PlainText(reply.Reply.Content))
		if reply.Reply.SourcesMarkdown != "" {
			color.Cyan("\nSources")
			fmt.Println(reply.Reply.SourcesMarkdown)
		}
	}

	color.Yellow("\n5. Delete session")
	if err := c.send(http.MethodDelete, "/sessions/"+session.ID, nil, nil); err != nil {
		fail("Delete session", err)
	}
	color.Green("Done")
}
