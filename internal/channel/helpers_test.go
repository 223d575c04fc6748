package channel

import (
	"net/http"

	"github.com/gorilla/websocket"
)

func websocketHandler(fn func(*websocket.Conn)) http.Handler {
	up := websocket.Upgrader{}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		fn(conn)
	})
}
