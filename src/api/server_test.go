package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	runtime "github.com/gabrielantonyxaviour/franky-hedera-sub000"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/auth"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/character"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/history"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/models"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/payment"
	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/tools"
)

type fakeResolver struct {
	agent *character.Agent
	err   error
}

func (f *fakeResolver) Fetch(ctx context.Context, agentID string) (*character.Agent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.agent, nil
}

type fakeAuth struct {
	status int
	caller common.Address
	err    error
}

func (f *fakeAuth) Status(ctx context.Context, agentAddress, apiKey, ownerKeyHash string) (int, common.Address, error) {
	return f.status, f.caller, f.err
}

type fakePayments struct {
	err     error
	charged bool
	fee     float64
}

func (f *fakePayments) Charge(ctx context.Context, caller common.Address, owner string, feeEther float64) error {
	f.charged = true
	f.fee = feeEther
	return f.err
}

type fakeProxy struct {
	raw  []byte
	tags []byte
	err  error
}

func (f *fakeProxy) Raw(ctx context.Context, path string, payload any) ([]byte, error) {
	return f.raw, f.err
}

func (f *fakeProxy) Tags(ctx context.Context) ([]byte, error) {
	return f.tags, f.err
}

func testAgentData() *character.Agent {
	return &character.Agent{
		ID:            "0x00000000000000000000000000000000000000aa",
		Owner:         "0x00000000000000000000000000000000000000bb",
		PerAPICallFee: 0.05,
		KeyHash:       "0xabc",
		Character: character.Character{
			Name:        "Aria",
			Personality: "Sharp-tongued but kind",
		},
	}
}

type serverDeps struct {
	resolver *fakeResolver
	auth     *fakeAuth
	payments *fakePayments
	proxy    *fakeProxy
	backend  *models.Dummy
	store    *history.MemoryStore
}

func newTestServer(t *testing.T, deps *serverDeps) *httptest.Server {
	t.Helper()

	if deps.backend == nil {
		deps.backend = models.NewDummy("").Script(models.Reply{Content: "Hello from Aria."})
	}
	if deps.store == nil {
		deps.store = history.NewMemoryStore()
	}
	if deps.resolver == nil {
		deps.resolver = &fakeResolver{agent: testAgentData()}
	}
	if deps.auth == nil {
		deps.auth = &fakeAuth{status: auth.StatusOwner}
	}

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"baseFee": "25000000000"}`))
	}))
	t.Cleanup(upstream.Close)

	agent, err := runtime.New(runtime.Options{
		Backend: deps.backend,
		Tools:   tools.NewCatalog(tools.NewOneInch(upstream.URL, "k", zerolog.Nop()), zerolog.Nop()),
		History: deps.store,
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)

	srv, err := NewServer(Options{
		Agent:    agent,
		Resolver: deps.resolver,
		Auth:     deps.auth,
		Payments: deps.payments,
		Proxy:    deps.proxy,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, headers map[string]string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func authHeaders() map[string]string {
	return map[string]string{"api-key": "key123", "agent-id": "0x00000000000000000000000000000000000000aa"}
}

func TestChatMissingHeaders(t *testing.T) {
	ts := newTestServer(t, &serverDeps{})

	resp := postJSON(t, ts.URL+"/", nil, map[string]string{"prompt": "hi"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "API key and agent ID are required", body["error"])
}

func TestChatAgentFetchFailure(t *testing.T) {
	ts := newTestServer(t, &serverDeps{
		resolver: &fakeResolver{err: errors.New("indexer down")},
	})

	resp := postJSON(t, ts.URL+"/", authHeaders(), map[string]string{"prompt": "hi"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestChatAgentNotFound(t *testing.T) {
	ts := newTestServer(t, &serverDeps{
		resolver: &fakeResolver{err: character.ErrAgentNotFound},
	})

	resp := postJSON(t, ts.URL+"/", authHeaders(), map[string]string{"prompt": "hi"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChatDeniedKey(t *testing.T) {
	ts := newTestServer(t, &serverDeps{
		auth: &fakeAuth{status: auth.StatusDenied},
	})

	resp := postJSON(t, ts.URL+"/", authHeaders(), map[string]string{"prompt": "hi"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Invalid API key or agent ID", body["error"])
}

func TestChatVerifierErrorDenies(t *testing.T) {
	ts := newTestServer(t, &serverDeps{
		auth: &fakeAuth{status: auth.StatusUser, err: errors.New("rpc timeout")},
	})

	resp := postJSON(t, ts.URL+"/", authHeaders(), map[string]string{"prompt": "hi"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestChatMissingPrompt(t *testing.T) {
	ts := newTestServer(t, &serverDeps{})

	resp := postJSON(t, ts.URL+"/", authHeaders(), map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Prompt is required in request body", body["error"])
}

func TestChatUserPaysFee(t *testing.T) {
	payments := &fakePayments{}
	ts := newTestServer(t, &serverDeps{
		auth:     &fakeAuth{status: auth.StatusUser},
		payments: payments,
	})

	resp := postJSON(t, ts.URL+"/", authHeaders(), map[string]string{"prompt": "Tell me a story"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, payments.charged)
	assert.InDelta(t, 0.05, payments.fee, 0.0001)
}

func TestChatOwnerSkipsFee(t *testing.T) {
	payments := &fakePayments{}
	ts := newTestServer(t, &serverDeps{
		auth:     &fakeAuth{status: auth.StatusOwner},
		payments: payments,
	})

	resp := postJSON(t, ts.URL+"/", authHeaders(), map[string]string{"prompt": "Tell me a story"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, payments.charged)
}

func TestChatInsufficientBalance(t *testing.T) {
	ts := newTestServer(t, &serverDeps{
		auth:     &fakeAuth{status: auth.StatusUser},
		payments: &fakePayments{err: payment.ErrInsufficientFunds},
	})

	resp := postJSON(t, ts.URL+"/", authHeaders(), map[string]string{"prompt": "Tell me a story"})
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
}

func TestChatPaymentAddressInvalid(t *testing.T) {
	ts := newTestServer(t, &serverDeps{
		auth:     &fakeAuth{status: auth.StatusUser},
		payments: &fakePayments{err: errors.Wrap(payment.ErrInvalidAddress, "owner")},
	})

	resp := postJSON(t, ts.URL+"/", authHeaders(), map[string]string{"prompt": "Tell me a story"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatPaymentTransferFailure(t *testing.T) {
	ts := newTestServer(t, &serverDeps{
		auth:     &fakeAuth{status: auth.StatusUser},
		payments: &fakePayments{err: payment.ErrTransferFailed},
	})

	resp := postJSON(t, ts.URL+"/", authHeaders(), map[string]string{"prompt": "Tell me a story"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestChatSuccess(t *testing.T) {
	store := history.NewMemoryStore()
	ts := newTestServer(t, &serverDeps{store: store})

	resp := postJSON(t, ts.URL+"/", authHeaders(), map[string]string{
		"prompt":    "Tell me a story",
		"user_name": "Bob",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)

	assert.Equal(t, "Hello from Aria.", body["response"])
	assert.Equal(t, "Aria", body["character_name"])
	historyID, _ := body["history"].(string)
	require.NotEmpty(t, historyID)

	turns, err := store.Load(context.Background(), historyID)
	require.NoError(t, err)
	assert.Len(t, turns, 2)
}

func TestRoleplayCharacterValidation(t *testing.T) {
	ts := newTestServer(t, &serverDeps{})

	resp := postJSON(t, ts.URL+"/roleplay-character", nil, map[string]any{
		"model":  "qwen2.5:3b",
		"prompt": "hello",
		"character_data": map[string]string{
			"name": "Aria",
		},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Contains(t, body["error"], "name and personality")
}

func TestRoleplayCharacterSuccess(t *testing.T) {
	backend := models.NewDummy("").Script(models.Reply{Content: "Aria: A story, then."})
	ts := newTestServer(t, &serverDeps{backend: backend})

	resp := postJSON(t, ts.URL+"/roleplay-character", nil, map[string]any{
		"model":  "qwen2.5:3b",
		"prompt": "Tell me a story",
		"character_data": map[string]string{
			"name":        "Aria",
			"personality": "Warm",
		},
		"chat_history": []map[string]string{
			{"role": "user", "content": "hi"},
		},
		"user_name": "Bob",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "A story, then.", body["response"])
	// Nothing persisted for the stateless endpoint.
	assert.Nil(t, body["history"])
}

func TestGenerateWithCharacter(t *testing.T) {
	backend := models.NewDummy("").Script(models.Reply{Content: "Plain answer."})
	ts := newTestServer(t, &serverDeps{backend: backend})

	resp := postJSON(t, ts.URL+"/generate-with-character", nil, map[string]any{
		"model":  "qwen2.5:3b",
		"prompt": "Describe the tavern",
		"character_data": map[string]string{
			"name":        "Aria",
			"personality": "Warm",
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Plain answer.", body["response"])

	// The plain variant never attaches tool schemas.
	require.Len(t, backend.Requests, 1)
	assert.Empty(t, backend.Requests[0].Tools)
	assert.Contains(t, backend.Requests[0].Prompt, "## Role-playing Instructions")
}

func TestGenerateProxy(t *testing.T) {
	proxy := &fakeProxy{raw: []byte(`{"response": "raw model output"}`)}
	ts := newTestServer(t, &serverDeps{proxy: proxy})

	resp := postJSON(t, ts.URL+"/generate", authHeaders(), map[string]any{
		"model":  "qwen2.5:3b",
		"prompt": "hello",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "raw model output", body["response"])
}

func TestGenerateProxyRequiresAuth(t *testing.T) {
	ts := newTestServer(t, &serverDeps{proxy: &fakeProxy{}})

	resp := postJSON(t, ts.URL+"/generate", nil, map[string]string{"prompt": "hi"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestModelsProxy(t *testing.T) {
	proxy := &fakeProxy{tags: []byte(`{"models": [{"name": "qwen2.5:3b"}]}`)}
	ts := newTestServer(t, &serverDeps{proxy: proxy})

	resp, err := http.Get(ts.URL + "/models")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.NotNil(t, body["models"])
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, &serverDeps{})

	resp := postJSON(t, ts.URL+"/health", nil, map[string]string{
		"agentAddress": "0x00000000000000000000000000000000000000aa",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "Aria", body["character_name"])
}

func TestHealthNotFound(t *testing.T) {
	ts := newTestServer(t, &serverDeps{
		resolver: &fakeResolver{err: character.ErrAgentNotFound},
	})

	resp := postJSON(t, ts.URL+"/health", nil, map[string]string{"agentAddress": "0xmissing"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthUpstreamFailure(t *testing.T) {
	ts := newTestServer(t, &serverDeps{
		resolver: &fakeResolver{err: errors.New("indexer down")},
	})

	resp := postJSON(t, ts.URL+"/health", nil, map[string]string{"agentAddress": "0xaa"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestStatusEndpoint(t *testing.T) {
	ts := newTestServer(t, &serverDeps{})

	resp, err := http.Get(ts.URL + "/status")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body["uptime"], "seconds")
}