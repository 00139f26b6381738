// carelink-chat is a terminal chat client for the carelink server. It
// drives the same realtime session the web frontends use: presence,
// unread counts, typing indicators, and the notification feed all flow
// through one WebSocket connection plus the REST API.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carelink/carelink/internal/domain/chat"
	"github.com/carelink/carelink/internal/realtime"
)

func main() {
	var (
		serverURL string
		wsURL     string
		token     string
		userID    string
		role      string
	)

	rootCmd := &cobra.Command{
		Use:   "carelink-chat",
		Short: "Terminal chat client",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("CARELINK_TOKEN")
			}
			if token == "" {
				return fmt.Errorf("--token or CARELINK_TOKEN is required")
			}
			if userID == "" {
				return fmt.Errorf("--user is required")
			}
			if wsURL == "" {
				wsURL = strings.Replace(serverURL, "http", "ws", 1) + "/realtime/ws"
			}
			return run(serverURL, wsURL, token, userID, role)
		},
	}

	rootCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8000", "Server base URL")
	rootCmd.Flags().StringVar(&wsURL, "ws-url", "", "WebSocket URL (derived from --server when empty)")
	rootCmd.Flags().StringVar(&token, "token", "", "JWT bearer token")
	rootCmd.Flags().StringVar(&userID, "user", "", "Authenticated user id")
	rootCmd.Flags().StringVar(&role, "role", "patient", "User role")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(serverURL, wsURL, token, userID, role string) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	session := realtime.NewSession(realtime.Options{
		URL:    wsURL,
		Token:  token,
		UserID: userID,
		Role:   role,
		API:    realtime.NewRESTClient(serverURL, token),
		Logger: logger,
	})
	defer session.Disconnect()

	ctx := context.Background()
	if _, err := session.Initialize(ctx); err != nil {
		// The session retries on its own; the client stays usable.
		fmt.Fprintf(os.Stderr, "connect failed, retrying in background: %v\n", err)
	}

	if err := session.LoadContacts(ctx, 1, 20, ""); err != nil {
		fmt.Fprintf(os.Stderr, "load contacts: %v\n", err)
	}

	fmt.Println("commands: /contacts, /open <id>, /close, /who, /unread, /alerts, /quit")
	fmt.Println("anything else is sent to the open conversation")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := command(ctx, session, line); quit {
				return nil
			}
			continue
		}

		partnerID := session.Messages.ActiveConversation()
		if partnerID == "" {
			fmt.Println("no open conversation; use /open <id> first")
			continue
		}

		session.NoteKeystroke(partnerID)
		text := line
		if _, err := session.SendMessage(ctx, &chat.SendRequest{ReceiverID: partnerID, Text: &text}); err != nil {
			fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
		}
	}
	return scanner.Err()
}

func command(ctx context.Context, session *realtime.Session, line string) (quit bool) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit":
		return true

	case "/contacts":
		for _, c := range session.Contacts.Items() {
			marker := " "
			if session.Presence.IsOnline(c.ID) {
				marker = "*"
			}
			last := ""
			if c.LastMessage != nil {
				last = *c.LastMessage
			}
			fmt.Printf("%s %-24s %-8s %s\n", marker, c.ID, c.Role, last)
		}

	case "/open":
		if len(fields) < 2 {
			fmt.Println("usage: /open <id>")
			return false
		}
		partnerID := fields[1]
		if err := session.OpenConversation(ctx, partnerID); err != nil {
			fmt.Fprintf(os.Stderr, "open: %v\n", err)
			return false
		}
		for _, m := range session.Messages.Messages() {
			printMessage(m)
		}

	case "/close":
		session.CloseConversation()

	case "/who":
		for _, id := range session.Presence.List() {
			fmt.Println(id)
		}

	case "/unread":
		for id, n := range session.Unread.Snapshot() {
			fmt.Printf("%-24s %d\n", id, n)
		}

	case "/alerts":
		for _, n := range session.Notifications.Feed() {
			fmt.Printf("%s %-16s %s\n", n.ReceivedAt.Format(time.Kitchen), n.Kind, n.Payload)
		}

	default:
		fmt.Println("unknown command:", fields[0])
	}
	return false
}

func printMessage(m *chat.Message) {
	body := ""
	if m.Text != nil {
		body = *m.Text
	} else if m.Image != nil {
		body = "[image] " + *m.Image
	}
	fmt.Printf("%s %s: %s\n", m.CreatedAt.Format(time.Kitchen), m.SenderID, body)
}
