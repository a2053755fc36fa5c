// Command sscchat-relay is a local developer convenience: it pairs up
// WebSocket connections two at a time and pipes envelope text between
// each pair, so two sscchat processes on the same machine don't need
// manual copy-paste. It is NOT a signalling server for the product —
// the core protocol has none, by design — and it has no slot
// allocation, no TURN ticketing, and no public listener story.
package main

import (
	"flag"
	"log"
	"net/http"
	"sync"

	"github.com/NYTimes/gziphandler"
	"nhooyr.io/websocket"
)

var addr = flag.String("addr", "localhost:8787", "address to listen on")

// rendezvous holds at most one waiting connection at a time; the second
// connection to arrive is paired with it and piping begins.
var rendezvous = struct {
	sync.Mutex
	waiting *websocket.Conn
	paired  chan *websocket.Conn
}{}

func main() {
	flag.Parse()

	handler := gziphandler.GzipHandler(http.HandlerFunc(relay))
	log.Printf("sscchat-relay listening on %s (dev use only)", *addr)
	log.Fatal(http.ListenAndServe(*addr, handler))
}

// relay accepts a WebSocket connection, pairs it with whichever other
// connection is currently waiting (or waits itself if none is), and
// once paired pipes text frames between the two until either side
// closes — adapted from saljam-webwormhole/cmd/ww/server.go's relay
// handler, with slot allocation and TURN credential minting dropped.
func relay(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Println(err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	peerConn := pairWith(conn, r.Context().Done())
	if peerConn == nil {
		log.Println("sscchat-relay: pairing aborted")
		return
	}

	ctx := r.Context()
	for {
		msgType, p, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if err := peerConn.Write(ctx, msgType, p); err != nil {
			return
		}
	}
}

// pairWith blocks until a second connection arrives to pair with conn,
// returning the other side, or nil if done (the request context's Done
// channel) is closed first.
func pairWith(conn *websocket.Conn, done <-chan struct{}) *websocket.Conn {
	rendezvous.Lock()
	if rendezvous.waiting == nil {
		rendezvous.waiting = conn
		paired := make(chan *websocket.Conn, 1)
		rendezvous.paired = paired
		rendezvous.Unlock()

		select {
		case other := <-paired:
			return other
		case <-done:
			rendezvous.Lock()
			if rendezvous.waiting == conn {
				rendezvous.waiting = nil
				rendezvous.paired = nil
			}
			rendezvous.Unlock()
			return nil
		}
	}

	other := rendezvous.waiting
	paired := rendezvous.paired
	rendezvous.waiting = nil
	rendezvous.paired = nil
	rendezvous.Unlock()

	paired <- conn
	return other
}
