package websocket

import (
	"encoding/json"

	"github.com/isdelr/taskboard-be/internal/models"
	"github.com/rs/zerolog/log"
)

// topicMessage is a message addressed to the subscribers of one topic.
type topicMessage struct {
	topic   string
	payload []byte
}

// Hub maintains the set of active clients and fans task events out to them.
// All map access happens on the Run goroutine.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Messages for the subscribers of a single topic.
	publish chan topicMessage

	// A map of topics (user IDs) to the clients subscribed to them.
	subscriptions map[string]map[*Client]bool

	done chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		publish:       make(chan topicMessage, 256),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		done:          make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			h.addSubscription(client, client.Topic)
			log.Info().Int("total_clients", len(h.clients)).Str("topic", client.Topic).Msg("Client connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case msg := <-h.publish:
			for client := range h.subscriptions[msg.topic] {
				select {
				case client.Send <- msg.payload:
				default:
					// Slow consumer; let it reconnect.
					h.drop(client)
				}
			}
		}
	}
}

// Register adds a client to the hub. It is a no-op once the hub is stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Stop terminates Run and closes every client's send channel.
func (h *Hub) Stop() {
	close(h.done)
}

// BroadcastTo queues a message for all clients subscribed to topic. It never
// blocks: when the queue is full the message is discarded.
func (h *Hub) BroadcastTo(topic string, message []byte) {
	select {
	case h.publish <- topicMessage{topic: topic, payload: message}:
	default:
		log.Warn().Str("topic", topic).Msg("Hub queue full, dropping message")
	}
}

// PublishTaskEvent sends a task change to the task owner's subscribers.
func (h *Hub) PublishTaskEvent(action string, task models.Task) {
	data, err := json.Marshal(Message{Action: action, Payload: task})
	if err != nil {
		log.Error().Err(err).Int64("task_id", task.ID).Msg("Failed to encode task event")
		return
	}
	h.BroadcastTo(UserTopic(task.UserID), data)
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	h.removeSubscription(client)
	close(client.Send)
}

func (h *Hub) addSubscription(client *Client, topic string) {
	if h.subscriptions[topic] == nil {
		h.subscriptions[topic] = make(map[*Client]bool)
	}
	h.subscriptions[topic][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	if subs, ok := h.subscriptions[client.Topic]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.subscriptions, client.Topic)
		}
	}
}
