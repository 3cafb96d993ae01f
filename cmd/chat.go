package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/xiaot623/healthflow/internal/domain"
	"github.com/xiaot623/healthflow/internal/transport/ws"
)

func newChatCmd() *cobra.Command {
	var (
		addr     string
		token    string
		email    string
		password string
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant over WebSocket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" && email != "" {
				t, err := login(addr, email, password)
				if err != nil {
					return err
				}
				token = t
			}
			if token == "" {
				return errors.New("either --token or --email/--password is required")
			}

			client, err := dialChat(addr)
			if err != nil {
				return err
			}
			defer client.Close()

			userID, err := client.hello(token)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Connected as user %d.\nType a message and press Enter. Commands: /clear, /quit\n", userID)
			return client.loop(cmd.InOrStdin(), out)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "ws://localhost:8080/ws", "WebSocket server address")
	cmd.Flags().StringVar(&token, "token", "", "access token from /v1/auth/login")
	cmd.Flags().StringVar(&email, "email", "", "log in with this email instead of --token")
	cmd.Flags().StringVar(&password, "password", "", "password for --email")
	return cmd
}

// login exchanges credentials for an access token against the HTTP API
// served next to the WebSocket endpoint.
func login(addr, email, password string) (string, error) {
	base, err := apiBase(addr)
	if err != nil {
		return "", err
	}

	var tok domain.TokenResponse
	resp, err := resty.New().
		SetBaseURL(base).
		SetTimeout(10 * time.Second).
		R().
		SetBody(domain.LoginRequest{Email: email, Password: password}).
		SetResult(&tok).
		Post("/v1/auth/login")
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("login failed [%d]: %s", resp.StatusCode(), resp.String())
	}
	return tok.AccessToken, nil
}

func apiBase(addr string) (string, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("invalid address %q: %w", addr, err)
	}
	switch u.Scheme {
	case "wss":
		u.Scheme = "https"
	default:
		u.Scheme = "http"
	}
	u.Path = ""
	return u.String(), nil
}

type chatClient struct {
	conn *websocket.Conn
	seq  int
}

func dialChat(addr string) (*chatClient, error) {
	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return &chatClient{conn: conn}, nil
}

func (c *chatClient) Close() error {
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}

func (c *chatClient) nextID() string {
	c.seq++
	return fmt.Sprintf("req_%d", c.seq)
}

func (c *chatClient) hello(token string) (int64, error) {
	msg := ws.HelloMessage{
		BaseMessage: ws.BaseMessage{Type: ws.TypeHello, Ts: time.Now().UnixMilli(), RequestID: c.nextID()},
		Token:       token,
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return 0, fmt.Errorf("write hello: %w", err)
	}

	data, err := c.read()
	if err != nil {
		return 0, fmt.Errorf("read hello_ack: %w", err)
	}
	var ack ws.HelloAckMessage
	if err := json.Unmarshal(data, &ack); err != nil {
		return 0, fmt.Errorf("unmarshal hello_ack: %w", err)
	}
	if ack.Type != ws.TypeHelloAck {
		return 0, frameError(data)
	}
	return ack.UserID, nil
}

// loop sends one prompt per input line and prints the matching reply.
func (c *chatClient) loop(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/quit":
			fmt.Fprintln(out, "Bye!")
			return nil
		case "/clear":
			if err := c.conn.WriteJSON(ws.BaseMessage{Type: ws.TypeClear, Ts: time.Now().UnixMilli(), RequestID: c.nextID()}); err != nil {
				return fmt.Errorf("write clear: %w", err)
			}
		default:
			msg := ws.PromptMessage{
				BaseMessage: ws.BaseMessage{Type: ws.TypePrompt, Ts: time.Now().UnixMilli(), RequestID: c.nextID()},
				Prompt:      input,
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return fmt.Errorf("write prompt: %w", err)
			}
		}

		data, err := c.read()
		if err != nil {
			return err
		}
		var base ws.BaseMessage
		if err := json.Unmarshal(data, &base); err != nil {
			return fmt.Errorf("unmarshal frame: %w", err)
		}
		switch base.Type {
		case ws.TypeResponse:
			var resp ws.ResponseMessage
			json.Unmarshal(data, &resp)
			fmt.Fprintf(out, "assistant: %s\n", resp.Response)
		case ws.TypeCleared:
			fmt.Fprintln(out, "(conversation cleared)")
		default:
			fmt.Fprintf(out, "error: %v\n", frameError(data))
		}
	}
}

func (c *chatClient) read() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return data, nil
}

func frameError(data []byte) error {
	var errMsg ws.ErrorMessage
	if err := json.Unmarshal(data, &errMsg); err != nil || errMsg.Type != ws.TypeError {
		return fmt.Errorf("unexpected frame: %s", data)
	}
	return fmt.Errorf("%s: %s", errMsg.Code, errMsg.Message)
}
