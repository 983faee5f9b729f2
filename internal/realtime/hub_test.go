package realtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/api/towncrier"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/kafka"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/logging"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/testutil"
)

func startTestHub(t *testing.T, bufferSize int) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub(logging.NewLoggerWithService("towncrier-test"), nil, bufferSize)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r)
	})
	mux.HandleFunc("/ws/feed", func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, towncrier.ChannelFeed)
	})
	mux.HandleFunc("/ws/stream", func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, towncrier.ChannelStream)
	})
	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return hub, server
}

func TestHubFeedDelivery(t *testing.T) {
	hub, server := startTestHub(t, 0)

	client, err := testutil.NewWebSocketTestClient(testutil.WSURL(server.URL, "/ws/feed"))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	confirmation, err := client.ReadMessageTimeout(2 * time.Second)
	if err != nil {
		t.Fatalf("read confirmation: %v", err)
	}
	if confirmation["type"] != towncrier.TypeSubscriptionConfirmed {
		t.Fatalf("expected subscription confirmation, got %v", confirmation)
	}

	hub.BroadcastPost(testutil.NewFixtures().RootPost())

	msg, err := client.ReadMessageTimeout(2 * time.Second)
	if err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if msg["type"] != towncrier.TypePostCreated {
		t.Fatalf("expected post.created, got %v", msg["type"])
	}
	if msg["channel"] != towncrier.ChannelFeed {
		t.Fatalf("expected feed channel, got %v", msg["channel"])
	}
	data, ok := msg["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected post payload, got %T", msg["data"])
	}
	if data["id"] != "post-root-1" {
		t.Fatalf("unexpected post id: %v", data["id"])
	}
}

func TestHubChannelIsolation(t *testing.T) {
	hub, server := startTestHub(t, 0)

	feedClient, err := testutil.NewWebSocketTestClient(testutil.WSURL(server.URL, "/ws/feed"))
	if err != nil {
		t.Fatalf("dial feed: %v", err)
	}
	defer feedClient.Close()
	if _, err := feedClient.ReadMessageTimeout(2 * time.Second); err != nil {
		t.Fatalf("feed confirmation: %v", err)
	}

	streamClient, err := testutil.NewWebSocketTestClient(testutil.WSURL(server.URL, "/ws/stream"))
	if err != nil {
		t.Fatalf("dial stream: %v", err)
	}
	defer streamClient.Close()
	if _, err := streamClient.ReadMessageTimeout(2 * time.Second); err != nil {
		t.Fatalf("stream confirmation: %v", err)
	}

	hub.BroadcastMatch(towncrier.MatchPayload{
		PostID:       "post-root-1",
		RuleIDs:      []string{"rule-zenith-1"},
		AuthorHandle: "breaking_naija_247",
	})

	msg, err := streamClient.ReadMessageTimeout(2 * time.Second)
	if err != nil {
		t.Fatalf("stream client should receive the match: %v", err)
	}
	if msg["type"] != towncrier.TypeStreamMatch {
		t.Fatalf("expected stream.match, got %v", msg["type"])
	}

	if _, err := feedClient.ReadMessageTimeout(200 * time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("feed client should not receive stream matches, got err=%v", err)
	}
}

func TestHubSubscribeUnsubscribe(t *testing.T) {
	hub, server := startTestHub(t, 0)

	client, err := testutil.NewWebSocketTestClient(testutil.WSURL(server.URL, "/ws"))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	err = client.SendMessage(map[string]interface{}{
		"action":   towncrier.ActionSubscribe,
		"channels": []string{towncrier.ChannelStream},
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	confirmation, err := client.ReadMessageTimeout(2 * time.Second)
	if err != nil {
		t.Fatalf("read confirmation: %v", err)
	}
	if confirmation["type"] != towncrier.TypeSubscriptionConfirmed {
		t.Fatalf("expected confirmation, got %v", confirmation)
	}

	hub.BroadcastMatch(towncrier.MatchPayload{PostID: "post-1"})
	if _, err := client.ReadMessageTimeout(2 * time.Second); err != nil {
		t.Fatalf("subscribed client should receive matches: %v", err)
	}

	err = client.SendMessage(map[string]interface{}{
		"action":   towncrier.ActionUnsubscribe,
		"channels": []string{towncrier.ChannelStream},
	})
	if err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	confirmation, err = client.ReadMessageTimeout(2 * time.Second)
	if err != nil {
		t.Fatalf("read unsubscription confirmation: %v", err)
	}
	if confirmation["type"] != towncrier.TypeUnsubscriptionConfirmed {
		t.Fatalf("expected unsubscription confirmation, got %v", confirmation)
	}

	hub.BroadcastMatch(towncrier.MatchPayload{PostID: "post-2"})
	if _, err := client.ReadMessageTimeout(200 * time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("unsubscribed client should not receive matches, got err=%v", err)
	}
}

func TestHubIgnoresUnknownChannels(t *testing.T) {
	_, server := startTestHub(t, 0)

	client, err := testutil.NewWebSocketTestClient(testutil.WSURL(server.URL, "/ws"))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	err = client.SendMessage(map[string]interface{}{
		"action":   towncrier.ActionSubscribe,
		"channels": []string{"gossip", towncrier.ChannelFeed},
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	confirmation, err := client.ReadMessageTimeout(2 * time.Second)
	if err != nil {
		t.Fatalf("read confirmation: %v", err)
	}
	channels, ok := confirmation["channels"].([]interface{})
	if !ok || len(channels) != 1 || channels[0] != towncrier.ChannelFeed {
		t.Fatalf("expected only the feed channel to register, got %v", confirmation["channels"])
	}
}

func TestHubDropsOldestWhenClientBufferFull(t *testing.T) {
	hub := NewHub(logging.NewLoggerWithService("towncrier-test"), nil, 2)

	// A bare client with no pumps running stands in for a stalled consumer.
	client := &Client{
		hub:      hub,
		send:     make(chan []byte, 2),
		channels: []string{towncrier.ChannelFeed},
		logger:   hub.logger,
	}

	hub.deliver(client, towncrier.ChannelFeed, []byte("first"))
	hub.deliver(client, towncrier.ChannelFeed, []byte("second"))
	hub.deliver(client, towncrier.ChannelFeed, []byte("third"))

	if got := string(<-client.send); got != "second" {
		t.Fatalf("expected oldest message to be evicted, head is %q", got)
	}
	if got := string(<-client.send); got != "third" {
		t.Fatalf("expected newest message to survive, got %q", got)
	}

	stats := hub.Stats()
	if stats.Delivered != 3 {
		t.Fatalf("expected 3 deliveries, got %d", stats.Delivered)
	}
	if stats.Dropped != 1 {
		t.Fatalf("expected 1 drop, got %d", stats.Dropped)
	}
}

func TestHubStats(t *testing.T) {
	hub, server := startTestHub(t, 0)

	feedClient, err := testutil.NewWebSocketTestClient(testutil.WSURL(server.URL, "/ws/feed"))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer feedClient.Close()
	if _, err := feedClient.ReadMessageTimeout(2 * time.Second); err != nil {
		t.Fatalf("confirmation: %v", err)
	}

	stats := hub.Stats()
	if stats.Connections != 1 {
		t.Fatalf("expected 1 connection, got %d", stats.Connections)
	}
	if stats.ChannelSubscriptions[towncrier.ChannelFeed] != 1 {
		t.Fatalf("expected feed subscription, got %v", stats.ChannelSubscriptions)
	}
}

type capturingProducer struct {
	events []*kafka.PlatformEvent
}

func (p *capturingProducer) PublishEvent(event *kafka.PlatformEvent) error {
	p.events = append(p.events, event)
	return nil
}

func TestBroadcasterPublishesPlatformEvents(t *testing.T) {
	hub := NewHub(logging.NewLoggerWithService("towncrier-test"), nil, 0)
	producer := &capturingProducer{}
	b := NewBroadcaster(hub, producer, "towncrier", nil, logging.NewLoggerWithService("towncrier-test"))

	post := testutil.NewFixtures().RootPost()
	b.PostCreated(post)

	match := towncrier.MatchPayload{PostID: post.ID, RuleIDs: []string{"rule-zenith-1"}}
	b.StreamMatched(match)

	crisis := testutil.NewFixtures().ActiveCrisis()
	b.CrisisPhaseChanged(crisis, "EMERGING")

	if len(producer.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(producer.events))
	}
	if producer.events[0].EventType != kafka.EventPostCreated {
		t.Fatalf("unexpected first event: %s", producer.events[0].EventType)
	}
	if producer.events[0].CrisisID == nil || *producer.events[0].CrisisID != "crisis-zenith-1" {
		t.Fatalf("expected crisis id on post event")
	}
	if producer.events[1].EventType != kafka.EventStreamMatch {
		t.Fatalf("unexpected second event: %s", producer.events[1].EventType)
	}
	if producer.events[2].EventType != kafka.EventCrisisPhaseChanged {
		t.Fatalf("unexpected third event: %s", producer.events[2].EventType)
	}
	if producer.events[2].Data["from"] != "EMERGING" || producer.events[2].Data["to"] != "ESCALATING" {
		t.Fatalf("unexpected phase transition payload: %v", producer.events[2].Data)
	}
}

func TestBroadcasterWithoutProducer(t *testing.T) {
	hub := NewHub(logging.NewLoggerWithService("towncrier-test"), nil, 0)
	b := NewBroadcaster(hub, nil, "towncrier", nil, logging.NewLoggerWithService("towncrier-test"))

	// Must not panic when Kafka egress is disabled.
	b.PostCreated(testutil.NewFixtures().RootPost())
	b.SimulationReset()
}
