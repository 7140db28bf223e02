package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/atacadocell/backend-atacado/internal/store"
)

func TestComputeSignature(t *testing.T) {
	secret := "whsec"
	eventID := "11111111-2222-3333-4444-555555555555"
	body := []byte(`{"orderId":"abc"}`)

	got := ComputeSignature(secret, 1700000000, eventID, body)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("1700000000." + eventID + "."))
	mac.Write(body)
	require.Equal(t, hex.EncodeToString(mac.Sum(nil)), got)
}

func TestValidateURL(t *testing.T) {
	require.NoError(t, validateURL("https://example.com/hook"))
	require.NoError(t, validateURL("http://localhost:9000/hook"))
	require.Error(t, validateURL("http://example.com/hook"))
	require.Error(t, validateURL("ftp://example.com/hook"))
	require.Error(t, validateURL("https://"))
}

type stubEndpoints struct {
	endpoints []store.WebhookEndpoint
	dlq       []string
}

func (s *stubEndpoints) ListActive(context.Context) ([]store.WebhookEndpoint, error) {
	return s.endpoints, nil
}

func (s *stubEndpoints) Get(_ context.Context, id pgtype.UUID) (store.WebhookEndpoint, error) {
	for _, ep := range s.endpoints {
		if store.UUIDEqual(ep.ID, id) {
			return ep, nil
		}
	}
	return store.WebhookEndpoint{}, store.ErrNotFound
}

func (s *stubEndpoints) PushDLQ(_ context.Context, endpointID, eventID pgtype.UUID, lastError string) error {
	s.dlq = append(s.dlq, lastError)
	return nil
}

type captureEnqueuer struct {
	tasks []*asynq.Task
}

func (c *captureEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	c.tasks = append(c.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func TestScheduleOnlyTargetsSubscribedEndpoints(t *testing.T) {
	endpoints := &stubEndpoints{endpoints: []store.WebhookEndpoint{
		{ID: store.NewUUID(), URL: "https://a.example.com", Topics: []string{"order.created"}, Active: true},
		{ID: store.NewUUID(), URL: "https://b.example.com", Topics: []string{"lead.captured"}, Active: true},
		{ID: store.NewUUID(), URL: "https://c.example.com", Topics: nil, Active: true},
	}}
	enqueuer := &captureEnqueuer{}
	fwd := &Forwarder{Endpoints: endpoints, Tasks: enqueuer, MaxAttempts: 5}

	event := store.DomainEvent{ID: store.NewUUID(), Topic: "order.created", Payload: []byte(`{}`)}
	require.NoError(t, fwd.Schedule(context.Background(), event))

	// one task for the matching topic, one for the catch-all endpoint
	require.Len(t, enqueuer.tasks, 2)
	for _, task := range enqueuer.tasks {
		require.Equal(t, TaskWebhookForward, task.Type())
	}
}

func TestDeliverPostsSignedPayload(t *testing.T) {
	var gotSig, gotEventID, gotTS string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Signature")
		gotEventID = r.Header.Get("X-Event-ID")
		gotTS = r.Header.Get("X-Timestamp")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ep := store.WebhookEndpoint{ID: store.NewUUID(), URL: srv.URL, Secret: "whsec", Active: true}
	// httptest binds to 127.0.0.1, which the validator allows over http
	ev := store.DomainEvent{ID: store.NewUUID(), Topic: "order.created", Payload: []byte(`{"orderId":"1"}`), CreatedAt: time.Now()}

	fwd := &Forwarder{Client: srv.Client()}
	status, _, err := fwd.Deliver(context.Background(), ep, ev)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, store.UUIDString(ev.ID), gotEventID)
	require.NotEmpty(t, gotTS)
	require.NotEmpty(t, gotBody)
	require.NotEmpty(t, gotSig)
}

type fakeReplay struct {
	held     map[string]bool
	acquired int
	released int
}

func (f *fakeReplay) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	if f.held == nil {
		f.held = map[string]bool{}
	}
	if f.held[key] {
		return false, nil
	}
	f.held[key] = true
	f.acquired++
	return true, nil
}

func (f *fakeReplay) Release(_ context.Context, key string) error {
	delete(f.held, key)
	f.released++
	return nil
}

func TestDeliverReplayGuard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ep := store.WebhookEndpoint{ID: store.NewUUID(), URL: srv.URL, Secret: "whsec", Active: true}
	ev := store.DomainEvent{ID: store.NewUUID(), Topic: "order.created", Payload: []byte(`{}`), CreatedAt: time.Now()}

	replay := &fakeReplay{}
	fwd := &Forwarder{Client: srv.Client(), Replay: replay, ReplayTTL: time.Minute}

	status, _, err := fwd.Deliver(context.Background(), ep, ev)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 1, replay.acquired)
	require.Equal(t, 0, replay.released)

	// same delivery again within the TTL is suppressed
	status, body, err := fwd.Deliver(context.Background(), ep, ev)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "replay-suppressed", body)
}

func TestDeliverFailureReleasesReplayKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ep := store.WebhookEndpoint{ID: store.NewUUID(), URL: srv.URL, Secret: "whsec", Active: true}
	ev := store.DomainEvent{ID: store.NewUUID(), Topic: "order.created", Payload: []byte(`{}`), CreatedAt: time.Now()}

	replay := &fakeReplay{}
	fwd := &Forwarder{Client: srv.Client(), Replay: replay, ReplayTTL: time.Minute}

	status, _, err := fwd.Deliver(context.Background(), ep, ev)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadGateway, status)
	require.Equal(t, 1, replay.released)

	// the retry is allowed through because the failed attempt gave the key back
	status, _, err = fwd.Deliver(context.Background(), ep, ev)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadGateway, status)
	require.Equal(t, 2, replay.acquired)
}

func TestLinearRetryDelay(t *testing.T) {
	delay := LinearRetryDelay(2 * time.Second)
	require.Equal(t, 2*time.Second, delay(1, nil, nil))
	require.Equal(t, 4*time.Second, delay(2, nil, nil))
	require.Equal(t, 6*time.Second, delay(3, nil, nil))
}
