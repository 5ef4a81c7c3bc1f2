package connection

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

type WebsocketDialer struct {
	Dialer *websocket.Dialer
	Header http.Header
}

func NewWebsocketDialer() *WebsocketDialer {
	return &WebsocketDialer{
		Dialer: websocket.DefaultDialer,
	}
}

func (d *WebsocketDialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	conn, _, err := d.Dialer.DialContext(ctx, endpoint, d.Header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	return conn, nil
}
