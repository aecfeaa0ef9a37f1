// Command smoke drives one scripted client session against a running
// server: connect, enter the world, create and join a room, post a
// message and print everything the server pushes back.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/vovakirdan/ratchat-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "localhost:34254", "server address")
	user := flag.String("user", "tester", "display name to connect with")
	room := flag.String("room", "general", "room name")
	text := flag.String("text", "hello from smoke test", "message text to post")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	conn, err := net.DialTimeout("tcp", *addr, *timeout)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(*timeout))

	enc := proto.NewEncoder(conn)
	dec := proto.NewDecoder(conn)

	send := func(reqType string, payload any) error {
		req, err := proto.NewRequest(reqType, payload)
		if err != nil {
			return fmt.Errorf("build %s: %w", reqType, err)
		}
		if err := enc.Encode(req); err != nil {
			return fmt.Errorf("send %s: %w", reqType, err)
		}
		return nil
	}

	// The server writes accepted first; read it before requesting.
	var accepted proto.Response
	if err := dec.Decode(&accepted); err != nil {
		return fmt.Errorf("read accepted: %w", err)
	}
	fmt.Printf("<- %s %s\n", accepted.Type, accepted.Data)

	if err := send(proto.RequestTypeConnect, proto.NameData{Name: *user}); err != nil {
		return err
	}
	if err := send(proto.RequestTypeEvent, proto.Event{Channel: proto.World(), Type: proto.EventEnter}); err != nil {
		return err
	}
	if err := send(proto.RequestTypeCreateRoom, proto.NameData{Name: *room}); err != nil {
		return err
	}
	if err := send(proto.RequestTypeGetRoom, proto.NameData{Name: *room}); err != nil {
		return err
	}

	// The room id comes back in either created_room or room.
	var roomID proto.RoomID
	deadline := time.Now().Add(*timeout)
	for roomID == (proto.RoomID{}) && time.Now().Before(deadline) {
		var resp proto.Response
		if err := dec.Decode(&resp); err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		fmt.Printf("<- %s %s\n", resp.Type, resp.Data)
		roomID = roomIDFrom(resp)
	}
	if roomID == (proto.RoomID{}) {
		return fmt.Errorf("no room id for %q", *room)
	}

	if err := send(proto.RequestTypeEvent, proto.Event{Channel: proto.InRoom(roomID), Type: proto.EventEnter}); err != nil {
		return err
	}
	if err := send(proto.RequestTypeEvent, proto.Event{
		Channel: proto.InRoom(roomID),
		Type:    proto.EventPost,
		Message: &proto.Message{Body: *text},
	}); err != nil {
		return err
	}
	if err := send(proto.RequestTypeDisconnect, nil); err != nil {
		return err
	}

	for {
		var resp proto.Response
		if err := dec.Decode(&resp); err != nil {
			return nil // server closed the stream after disconnected
		}
		fmt.Printf("<- %s %s\n", resp.Type, resp.Data)
		if resp.Type == proto.ResponseTypeDisconnected {
			return nil
		}
	}
}

func roomIDFrom(resp proto.Response) proto.RoomID {
	switch resp.Type {
	case proto.ResponseTypeCreatedRoom:
		var data proto.CreatedRoomData
		if err := json.Unmarshal(resp.Data, &data); err == nil {
			return data.Room.ID
		}
	case proto.ResponseTypeRoom:
		var data proto.RoomData
		if err := json.Unmarshal(resp.Data, &data); err == nil && data.Room != nil {
			return data.Room.ID
		}
	}
	return proto.RoomID{}
}
