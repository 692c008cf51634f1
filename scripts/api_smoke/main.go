package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"
)

type user struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type group struct {
	ID      string   `json:"id"`
	Members []string `json:"members"`
}

type client struct {
	base string
	http *http.Client
}

func main() {
	if err := run(); err != nil {
		log.Printf("api_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "http://localhost:8080", "server base URL")
	prefix := flag.String("prefix", fmt.Sprintf("smoke%d", time.Now().Unix()), "name prefix for created users")
	timeout := flag.Duration("timeout", 10*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c := &client{base: *addr, http: &http.Client{}}

	var alice, bob user
	for _, u := range []struct {
		name string
		dst  *user
	}{{*prefix + "-alice", &alice}, {*prefix + "-bob", &bob}} {
		body := map[string]string{"name": u.name, "email": u.name + "@example.com", "password": "smoke"}
		if err := c.postJSON(ctx, "/users/register", body, u.dst); err != nil {
			return fmt.Errorf("register %s: %w", u.name, err)
		}
		log.Printf("registered %s as %s", u.name, u.dst.ID)
	}

	for _, step := range []struct{ path, want string }{
		{"/friends/add", "Friend request sent successfully"},
		{"/friends/accept", "Friend request accepted"},
	} {
		outcome, err := c.postText(ctx, step.path, map[string]string{"senderId": alice.ID, "receiverId": bob.ID})
		if err != nil {
			return fmt.Errorf("%s: %w", step.path, err)
		}
		if outcome != step.want {
			return fmt.Errorf("%s: got %q, want %q", step.path, outcome, step.want)
		}
		log.Printf("%s -> %s", step.path, outcome)
	}

	var names []string
	if err := c.getJSON(ctx, "/friends/friendsWithNames?userId="+url.QueryEscape(bob.ID), &names); err != nil {
		return fmt.Errorf("friend names: %w", err)
	}
	log.Printf("bob's friends: %v", names)

	msg := map[string]string{"senderId": alice.ID, "receiverId": bob.ID, "content": "hello from smoke test", "timestamp": time.Now().UTC().Format(time.RFC3339)}
	if err := c.postJSON(ctx, "/messages/send", msg, nil); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	var g group
	if err := c.postJSON(ctx, "/groups/create", map[string]any{"name": *prefix, "members": []string{alice.ID, bob.ID}}, &g); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	if err := c.postJSON(ctx, "/groups/send-message", map[string]string{"groupId": g.ID, "senderId": bob.ID, "content": "hi all"}, nil); err != nil {
		return fmt.Errorf("group message: %w", err)
	}
	log.Printf("group %s created with %d members", g.ID, len(g.Members))

	log.Println("smoke test passed")
	return nil
}

func (c *client) postJSON(ctx context.Context, path string, body, dst any) error {
	raw, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	if dst == nil {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func (c *client) postText(ctx context.Context, path string, body any) (string, error) {
	raw, err := c.do(ctx, http.MethodPost, path, body)
	return string(raw), err
}

func (c *client) getJSON(ctx context.Context, path string, dst any) error {
	raw, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func (c *client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	return raw, nil
}
