package common

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Idem provides an Idempotency-Key middleware backed by Redis. The first
// request holding a key runs normally and its response is stored for the TTL;
// a replay with the same key gets that stored response back instead of
// running the handler again.
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

const inFlightMarker = "locked"

type idemRecord struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return "idem:" + hex.EncodeToString(sum[:])
}

// Middleware enforces idempotency semantics for write endpoints.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Idempotency-Key")
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		key := hashKey(header)
		ok, err := i.R.SetNX(ctx, key, inFlightMarker, i.TTL).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, "INTERNAL", "idempotency store error", nil)
			return
		}
		if !ok {
			i.replay(ctx, w, key)
			return
		}

		tape := &responseTape{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(tape, r)

		if tape.status >= http.StatusInternalServerError {
			// Let the client retry a server-side failure with the same key.
			_ = i.R.Del(context.Background(), key).Err()
			return
		}
		record, err := json.Marshal(idemRecord{
			Status:      tape.status,
			ContentType: tape.Header().Get("Content-Type"),
			Body:        tape.body.Bytes(),
		})
		if err == nil {
			_ = i.R.Set(context.Background(), key, record, i.TTL).Err()
		}
	})
}

func (i Idem) replay(ctx context.Context, w http.ResponseWriter, key string) {
	raw, err := i.R.Get(ctx, key).Bytes()
	if err != nil || string(raw) == inFlightMarker {
		JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
		return
	}
	var record idemRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
		return
	}
	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.Header().Set("X-Idempotent-Replay", "true")
	w.WriteHeader(record.Status)
	_, _ = w.Write(record.Body)
}

// responseTape passes the response through while keeping a copy for replay.
type responseTape struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
	wrote  bool
}

func (t *responseTape) WriteHeader(code int) {
	if !t.wrote {
		t.status = code
		t.wrote = true
	}
	t.ResponseWriter.WriteHeader(code)
}

func (t *responseTape) Write(p []byte) (int, error) {
	t.wrote = true
	t.body.Write(p)
	return t.ResponseWriter.Write(p)
}
