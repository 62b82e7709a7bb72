package realtime

import (
	"testing"

	"github.com/ruangjiwa/MindCareBack/internal/models"
)

func registerDirect(hub *Hub, client *Client) {
	set, ok := hub.clients[client.userID]
	if !ok {
		set = make(map[*Client]struct{})
		hub.clients[client.userID] = set
	}
	set[client] = struct{}{}
}

func TestErrorEchoAfterSlowClientEviction(t *testing.T) {
	hub := NewHub()
	client := NewClient(hub, nil, 7, models.AccountTypeGeneral, false)
	registerDirect(hub, client)

	for i := 0; i < cap(client.send); i++ {
		hub.sendToUser(7, []byte("fill"))
	}
	if _, ok := hub.clients[7]; !ok {
		t.Fatal("Expected client to survive until the buffer overflows")
	}

	// One more payload overflows the buffer and evicts the client.
	hub.sendToUser(7, []byte("overflow"))
	if _, ok := hub.clients[7]; ok {
		t.Fatal("Expected slow client to be evicted")
	}

	// The read loop reacts to a bad frame after the eviction. This must
	// queue an echo for the hub instead of touching the closed channel.
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Expected no panic after eviction, got %v", r)
		}
	}()
	writeError(client, "invalid message payload")

	select {
	case queued := <-hub.replies:
		hub.sendToClient(queued.client, queued.payload)
	default:
		t.Fatal("Expected the error echo to be queued on the hub")
	}
}

func TestSendToClientDeliversToLiveClient(t *testing.T) {
	hub := NewHub()
	client := NewClient(hub, nil, 3, models.AccountTypeStudent, false)
	registerDirect(hub, client)

	hub.sendToClient(client, []byte("hello"))

	select {
	case payload := <-client.send:
		if string(payload) != "hello" {
			t.Errorf("Expected payload hello, got %s", payload)
		}
	default:
		t.Fatal("Expected payload on the client channel")
	}
	if _, ok := hub.clients[3]; !ok {
		t.Error("Expected client to stay registered")
	}
}

func TestDeliverDedupesRecipients(t *testing.T) {
	hub := NewHub()
	client := NewClient(hub, nil, 5, models.AccountTypeGeneral, false)
	registerDirect(hub, client)

	hub.deliver(&Event{
		Recipients: []int64{5, 5},
		Payload:    []byte("once"),
	})

	if got := len(client.send); got != 1 {
		t.Errorf("Expected 1 delivery, got %d", got)
	}
}

func TestMatchesAudience(t *testing.T) {
	student := &Client{accountType: models.AccountTypeStudent}
	admin := &Client{accountType: models.AccountTypeProfessional, isAdmin: true}

	if !student.matchesAudience([]string{models.AudienceAll}) {
		t.Error("Expected all-audience to match every client")
	}
	if !student.matchesAudience([]string{models.AccountTypeStudent}) {
		t.Error("Expected matching account type to pass")
	}
	if student.matchesAudience([]string{models.AccountTypeProfessional}) {
		t.Error("Expected mismatched account type to fail")
	}
	if !admin.matchesAudience([]string{models.AccountTypeGeneral}) {
		t.Error("Expected admin to receive every audience event")
	}
}
