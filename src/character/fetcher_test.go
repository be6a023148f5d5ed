package character

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_ResolvesAgentAndCard(t *testing.T) {
	var cardCalls atomic.Int32

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/cards/wizard.json", func(w http.ResponseWriter, r *http.Request) {
		cardCalls.Add(1)
		_, _ = w.Write([]byte(`{
			"name": "Merlin",
			"personality": "eccentric, wise",
			"scenario": "a tower full of scrolls",
			"first_mes": "Ah, a visitor!",
			"encryptedSecrets": "zzz",
			"secretsHash": "0xdead"
		}`))
	})
	mux.HandleFunc("/agents/0xabc", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"id": "0xabc",
			"subname": "merlin",
			"owner": "0xowner",
			"perApiCallFee": "0.05",
			"isPublic": true,
			"characterConfig": "` + srv.URL + `/cards/wizard.json"
		}`))
	})

	f := NewFetcher(srv.URL, time.Minute, zerolog.Nop())

	agent, err := f.Fetch(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "Merlin", agent.Character.Name)
	assert.Equal(t, "0xowner", agent.Owner)
	assert.InDelta(t, 0.05, agent.PerAPICallFee, 1e-9)
	assert.True(t, agent.Character.Valid())

	// Second fetch is served from cache.
	again, err := f.Fetch(context.Background(), "0xABC")
	require.NoError(t, err)
	assert.Same(t, agent, again)
	assert.Equal(t, int32(1), cardCalls.Load())
}

func TestFetcher_AgentNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, time.Minute, zerolog.Nop())
	_, err := f.Fetch(context.Background(), "0xmissing")
	assert.ErrorIs(t, err, ErrAgentNotFound)
}

func TestCharacter_Valid(t *testing.T) {
	assert.True(t, Character{Name: "Merlin", Personality: "wise"}.Valid())
	assert.False(t, Character{Name: "Merlin"}.Valid())
	assert.False(t, Character{Personality: "wise"}.Valid())
	assert.False(t, Character{Name: "  "}.Valid())
}
