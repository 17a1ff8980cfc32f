package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"ticksim.ai/internal/protocol"
)

func main() {
	var (
		url      = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name     = flag.String("name", "bot", "client name")
		entities = flag.Int("entities", 3, "entities to register (ignored by single-entity engines)")
		ticks    = flag.Int("ticks", 1000, "advances to send (0 = until interrupted)")
		interval = flag.Duration("interval", 10*time.Millisecond, "delay between advances")
		seed     = flag.Int64("seed", 1, "random seed for the input stream")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	c := &client{conn: conn}
	w, err := c.hello(*name)
	if err != nil {
		logger.Fatalf("handshake: %v", err)
	}
	logger.Printf("WELCOME session=%s engine=%s mode=%s move_mode=%s tick=%d", w.SessionID, w.EngineID, w.Mode, w.MoveMode, w.Tick)

	ids := []uint32{0}
	if w.Mode != "single" {
		ids = ids[:0]
		for i := 1; i <= *entities; i++ {
			res, err := c.do(protocol.CmdMsg{Op: protocol.OpRegister, EntityID: uint32(i)})
			if err != nil || !res.OK {
				logger.Fatalf("register %d: %v %+v", i, err, res)
			}
			ids = append(ids, uint32(i))
		}
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	r := rand.New(rand.NewSource(*seed))
	dirs := []string{"NONE", "UP", "DOWN", "LEFT", "RIGHT"}
	for n := 0; *ticks == 0 || n < *ticks; n++ {
		select {
		case <-stop:
			return
		default:
		}

		id := ids[r.Intn(len(ids))]
		res, err := c.do(protocol.CmdMsg{Op: protocol.OpAdvance, EntityID: id, Direction: dirs[r.Intn(len(dirs))]})
		if err != nil {
			logger.Printf("advance: %v", err)
			return
		}
		if !res.OK {
			logger.Printf("advance rejected: %s %s", res.Code, res.Message)
			continue
		}

		// Report a position every ~100 ticks.
		if res.TickCount%100 == 0 {
			pos, err := c.do(protocol.CmdMsg{Op: protocol.OpGetPosition, EntityID: id})
			if err == nil && pos.Pos != nil {
				logger.Printf("tick_count=%d entity=%d pos=%v", pos.TickCount, id, *pos.Pos)
			}
		}
		time.Sleep(*interval)
	}
}

// client runs one command at a time; RESULTs arrive in request order.
type client struct {
	conn *websocket.Conn
	seq  int
}

func (c *client) hello(name string) (protocol.WelcomeMsg, error) {
	var w protocol.WelcomeMsg
	if err := c.conn.WriteJSON(protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      name,
	}); err != nil {
		return w, err
	}
	_, msg, err := c.conn.ReadMessage()
	if err != nil {
		return w, err
	}
	if err := json.Unmarshal(msg, &w); err != nil {
		return w, err
	}
	if w.Type != protocol.TypeWelcome {
		return w, fmt.Errorf("expected WELCOME, got %q", w.Type)
	}
	return w, nil
}

func (c *client) do(cmd protocol.CmdMsg) (protocol.ResultMsg, error) {
	var res protocol.ResultMsg
	c.seq++
	cmd.Type = protocol.TypeCmd
	cmd.ProtocolVersion = protocol.Version
	cmd.ID = fmt.Sprintf("C%d", c.seq)
	if err := c.conn.WriteJSON(cmd); err != nil {
		return res, err
	}
	if err := c.conn.ReadJSON(&res); err != nil {
		return res, err
	}
	if res.AckFor != cmd.ID {
		return res, fmt.Errorf("ack_for=%q want %q", res.AckFor, cmd.ID)
	}
	return res, nil
}
