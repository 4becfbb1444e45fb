package websocket

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/mack/direct-chat/internal/service"
)

// Hub owns every live subscription. It mirrors presence into the user
// directory as connections come and go, and re-derives full snapshots on
// every change notification instead of patching incrementally: redundant
// re-fetches are the price for never interleaving the two directions of a
// conversation incorrectly.
type Hub struct {
	clients     map[*Client]bool
	connections map[uuid.UUID]int // open connections per user

	register            chan *Client
	unregister          chan *Client
	watchDirectory      chan *Client
	watchConversation   chan *WatchConversationRequest
	unwatchConversation chan *Client
	userChanged         chan uuid.UUID
	messageChanged      chan conversationKey

	stop    chan struct{}
	done    chan struct{} // closed when Run() exits
	stopped bool
	mu      sync.RWMutex

	auth      *service.AuthService
	directory *service.DirectoryService
	chat      *service.ChatService
}

type WatchConversationRequest struct {
	Client *Client
	PeerID uuid.UUID
}

// conversationKey identifies the unordered pair of participants.
type conversationKey struct {
	a, b uuid.UUID
}

func newConversationKey(x, y uuid.UUID) conversationKey {
	if x.String() > y.String() {
		x, y = y, x
	}
	return conversationKey{a: x, b: y}
}

func NewHub(auth *service.AuthService, directory *service.DirectoryService, chat *service.ChatService) *Hub {
	return &Hub{
		clients:             make(map[*Client]bool),
		connections:         make(map[uuid.UUID]int),
		register:            make(chan *Client),
		unregister:          make(chan *Client),
		watchDirectory:      make(chan *Client),
		watchConversation:   make(chan *WatchConversationRequest),
		unwatchConversation: make(chan *Client),
		userChanged:         make(chan uuid.UUID, 64),
		messageChanged:      make(chan conversationKey, 64),
		stop:                make(chan struct{}),
		done:                make(chan struct{}),
		auth:                auth,
		directory:           directory,
		chat:                chat,
	}
}

func (h *Hub) Run() {
	defer close(h.done) // Signal that Run() has exited

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for client := range h.clients {
				client.Close()
			}
			users := make([]uuid.UUID, 0, len(h.connections))
			for userID := range h.connections {
				users = append(users, userID)
			}
			h.clients = make(map[*Client]bool)
			h.connections = make(map[uuid.UUID]int)
			h.mu.Unlock()

			// Teardown counts as an offline transition for everyone who was
			// connected. Best-effort, like every presence write.
			for _, userID := range users {
				h.setPresence(userID, false)
			}
			return

		case client := <-h.register:
			h.mu.Lock()
			if !h.stopped {
				h.clients[client] = true
				h.connections[client.userID]++
				first := h.connections[client.userID] == 1
				h.mu.Unlock()
				if first {
					h.setPresence(client.userID, true)
					h.broadcastDirectory()
				}
				continue
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if !h.stopped {
				if _, ok := h.clients[client]; ok {
					delete(h.clients, client)
					client.Close()

					h.connections[client.userID]--
					last := h.connections[client.userID] <= 0
					if last {
						delete(h.connections, client.userID)
					}
					h.mu.Unlock()
					if last {
						h.setPresence(client.userID, false)
						h.broadcastDirectory()
					}
					continue
				}
			}
			h.mu.Unlock()

		case client := <-h.watchDirectory:
			client.watchingDirectory = true
			h.pushDirectory(client)

		case req := <-h.watchConversation:
			// Watching a new peer implicitly releases the old watch.
			req.Client.peerID = &req.PeerID
			h.pushConversation(req.Client)

		case client := <-h.unwatchConversation:
			client.peerID = nil

		case <-h.userChanged:
			h.broadcastDirectory()

		case key := <-h.messageChanged:
			h.broadcastConversation(key)
		}
	}
}

// Stop gracefully shuts down the hub. It blocks until Run() has exited.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	close(h.stop)
	<-h.done
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister safely unregisters a client, handling the case where the hub may
// be stopped.
func (h *Hub) Unregister(client *Client) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()

	if stopped {
		return
	}

	select {
	case h.unregister <- client:
	default:
		// Hub stopped between check and send - that's ok
	}
}

// NotifyUserChanged tells the hub a directory entry changed (registration,
// presence transition, profile update). Watchers receive a fresh full
// snapshot.
func (h *Hub) NotifyUserChanged(userID uuid.UUID) {
	select {
	case h.userChanged <- userID:
	default:
		log.Printf("ERROR [hub] user change notification dropped for %s", userID)
	}
}

// NotifyMessageChanged tells the hub a message between the two users was
// created or deleted. Both participants' watchers receive a fresh full
// snapshot of the merged conversation.
func (h *Hub) NotifyMessageChanged(senderID, receiverID uuid.UUID) {
	select {
	case h.messageChanged <- newConversationKey(senderID, receiverID):
	default:
		log.Printf("ERROR [hub] message change notification dropped for %s/%s", senderID, receiverID)
	}
}

func (h *Hub) setPresence(userID uuid.UUID, online bool) {
	// Best-effort: a failed presence write never takes the connection down.
	if err := h.auth.SetPresence(context.Background(), userID, online); err != nil {
		log.Printf("ERROR [hub] failed to update presence for %s: %v", userID, err)
	}
}

func (h *Hub) broadcastDirectory() {
	h.mu.RLock()
	watchers := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		if client.watchingDirectory {
			watchers = append(watchers, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range watchers {
		h.pushDirectory(client)
	}
}

func (h *Hub) pushDirectory(client *Client) {
	users, err := h.directory.List(context.Background(), client.userID)
	if err != nil {
		log.Printf("ERROR [hub] directory fetch failed for %s: %v", client.userID, err)
		client.sendError("DIRECTORY_SYNC_FAILED", "Failed to load the user directory")
		return
	}

	payload := DirectorySnapshotPayload{Users: make([]DirectoryUser, 0, len(users))}
	for _, u := range users {
		payload.Users = append(payload.Users, DirectoryUser{
			ID:          u.ID.String(),
			Email:       u.Email,
			DisplayName: u.DisplayName,
			Online:      u.Online,
			LastSeen:    u.LastSeen,
		})
	}

	msg, err := NewMessage(MessageTypeDirectorySnapshot, payload)
	if err != nil {
		log.Printf("ERROR [hub] failed to build directory snapshot: %v", err)
		return
	}
	client.Send(msg)
}

func (h *Hub) broadcastConversation(key conversationKey) {
	h.mu.RLock()
	watchers := make([]*Client, 0, 2)
	for client := range h.clients {
		if client.peerID == nil {
			continue
		}
		if newConversationKey(client.userID, *client.peerID) == key {
			watchers = append(watchers, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range watchers {
		h.pushConversation(client)
	}
}

func (h *Hub) pushConversation(client *Client) {
	if client.peerID == nil {
		return
	}
	peerID := *client.peerID

	messages, err := h.chat.Conversation(context.Background(), client.userID, peerID)
	if err != nil {
		log.Printf("ERROR [hub] conversation fetch failed for %s/%s: %v", client.userID, peerID, err)
		client.sendError("CONVERSATION_SYNC_FAILED", "Failed to load the conversation")
		return
	}

	msg, err := NewMessage(MessageTypeConversationSnapshot, ConversationSnapshotPayload{
		PeerID:   peerID.String(),
		Messages: messages,
	})
	if err != nil {
		log.Printf("ERROR [hub] failed to build conversation snapshot: %v", err)
		return
	}
	client.Send(msg)
}
