package handlers

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"solitaire-go/internal/cipher/solitaire"
	"solitaire-go/internal/config"
	"solitaire-go/internal/database"
	ws "solitaire-go/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var identitySequence = []int{
	1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14,
	15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28,
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithHubs(t, nil)
}

func newTestServerWithHubs(t *testing.T, hubs func() (*ws.Hub, bool)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := database.OpenAndMigrate(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	cfg := config.Config{
		JWTSecret:         "test-secret",
		JWTIssuer:         "solitaire-go",
		JWTTTL:            time.Hour,
		AppEnv:            "test",
		MaxMessageLetters: 50,
		MaxBodyBytes:      4096,
	}
	deckSource = rand.New(rand.NewSource(1))
	t.Cleanup(func() { deckSource = &solitaire.CryptoSource{} })
	return &testServer{t: t, router: NewRouter(db, cfg, hubs)}
}

// do sends body as JSON and decodes the response into out (if non-nil).
func (s *testServer) do(method, path, token string, body any, out any) int {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if out != nil && w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			s.t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code
}

func (s *testServer) register(name string) string {
	s.t.Helper()
	var resp authResponse
	code := s.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": name, "password": "password123"}, &resp)
	if code != http.StatusCreated {
		s.t.Fatalf("register %s: status %d", name, code)
	}
	return resp.Token
}

type deckEnvelope struct {
	Deck struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Sequence []int  `json:"sequence"`
	} `json:"deck"`
}

func (s *testServer) createDeck(token string, sequence []int) string {
	s.t.Helper()
	var resp deckEnvelope
	code := s.do(http.MethodPost, "/api/decks", token, gin.H{"name": "k", "sequence": sequence}, &resp)
	if code != http.StatusCreated {
		s.t.Fatalf("create deck: status %d", code)
	}
	return resp.Deck.ID
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	if code := s.do(http.MethodGet, "/healthz", "", nil, nil); code != http.StatusOK {
		t.Errorf("status %d", code)
	}
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.register("alice")

	if code := s.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": "alice", "password": "password123"}, nil); code != http.StatusConflict {
		t.Errorf("duplicate register: %d", code)
	}
	if code := s.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": "bob", "password": "short"}, nil); code != http.StatusBadRequest {
		t.Errorf("short password: %d", code)
	}
	if code := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "wrong-password"}, nil); code != http.StatusUnauthorized {
		t.Errorf("bad login: %d", code)
	}
	var login authResponse
	if code := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "password123"}, &login); code != http.StatusOK || login.Token == "" {
		t.Errorf("login: %d", code)
	}

	var me struct {
		User struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	if code := s.do(http.MethodGet, "/api/auth/me", token, nil, &me); code != http.StatusOK || me.User.Username != "alice" {
		t.Errorf("me: %d %+v", code, me)
	}
	if code := s.do(http.MethodGet, "/api/decks", "", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("unauthenticated decks: %d", code)
	}
}

func TestDeckCRUD(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	bob := s.register("bob")

	var shuffled deckEnvelope
	if code := s.do(http.MethodPost, "/api/decks", alice, gin.H{"name": "random"}, &shuffled); code != http.StatusCreated {
		t.Fatalf("create shuffled: %d", code)
	}
	if _, err := solitaire.NewDeckFromSequence(shuffled.Deck.Sequence); err != nil {
		t.Errorf("shuffled deck invalid: %v", err)
	}

	id := s.createDeck(alice, identitySequence)

	var got deckEnvelope
	if code := s.do(http.MethodGet, "/api/decks/"+id, alice, nil, &got); code != http.StatusOK || got.Deck.ID != id {
		t.Errorf("get: %d %+v", code, got)
	}
	if code := s.do(http.MethodGet, "/api/decks/"+id, bob, nil, nil); code != http.StatusNotFound {
		t.Errorf("bob get: %d", code)
	}

	var list struct {
		Decks []json.RawMessage `json:"decks"`
	}
	if code := s.do(http.MethodGet, "/api/decks", alice, nil, &list); code != http.StatusOK || len(list.Decks) != 2 {
		t.Errorf("list: %d, %d decks", code, len(list.Decks))
	}

	bad := append([]int(nil), identitySequence...)
	bad[0] = 2
	var errResp struct {
		Error string `json:"error"`
	}
	if code := s.do(http.MethodPost, "/api/decks", alice, gin.H{"name": "bad", "sequence": bad}, &errResp); code != http.StatusBadRequest {
		t.Errorf("invalid deck: %d", code)
	}
	if errResp.Error == "" {
		t.Errorf("invalid deck error body empty")
	}
	if code := s.do(http.MethodPost, "/api/decks", alice, gin.H{"name": ""}, nil); code != http.StatusBadRequest {
		t.Errorf("empty name: %d", code)
	}

	if code := s.do(http.MethodDelete, "/api/decks/"+id, bob, nil, nil); code != http.StatusNotFound {
		t.Errorf("bob delete: %d", code)
	}
	if code := s.do(http.MethodDelete, "/api/decks/"+id, alice, nil, nil); code != http.StatusNoContent {
		t.Errorf("delete: %d", code)
	}
}

func TestCipherEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.register("alice")
	id := s.createDeck(token, identitySequence)

	var enc cipherResponse
	code := s.do(http.MethodPost, "/api/cipher/encrypt", token, gin.H{"deck_id": id, "text": "Hello, World! attack at dawn"}, &enc)
	if code != http.StatusOK {
		t.Fatalf("encrypt: %d", code)
	}
	if enc.Output != "PUWTUVTSFKQBTDIPLSUCAQ" || enc.Letters != 22 {
		t.Errorf("encrypt = %+v", enc)
	}

	// Inline key material and a stored key produce the same keystream.
	var dec cipherResponse
	code = s.do(http.MethodPost, "/api/cipher/decrypt", token, gin.H{"sequence": identitySequence, "text": enc.Output}, &dec)
	if code != http.StatusOK || dec.Output != "HELLOWORLDATTACKATDAWN" {
		t.Errorf("decrypt: %d %+v", code, dec)
	}

	cases := []struct {
		name string
		body gin.H
		want int
	}{
		{"no key", gin.H{"text": "A"}, http.StatusBadRequest},
		{"both keys", gin.H{"deck_id": id, "sequence": identitySequence, "text": "A"}, http.StatusBadRequest},
		{"short sequence", gin.H{"sequence": []int{1, 2, 3}, "text": "A"}, http.StatusBadRequest},
		{"unknown deck", gin.H{"deck_id": "nope", "text": "A"}, http.StatusNotFound},
		{"too long", gin.H{"deck_id": id, "text": string(bytes.Repeat([]byte("a"), 51))}, http.StatusRequestEntityTooLarge},
		{"oversized body", gin.H{"deck_id": id, "text": strings.Repeat(" ", 5000)}, http.StatusRequestEntityTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if code := s.do(http.MethodPost, "/api/cipher/encrypt", token, tc.body, nil); code != tc.want {
				t.Errorf("status %d, want %d", code, tc.want)
			}
		})
	}
}

func (s *testServer) createSession(token, deckID string) string {
	s.t.Helper()
	var created struct {
		Session struct {
			ID   string `json:"id"`
			Mode string `json:"mode"`
		} `json:"session"`
	}
	if code := s.do(http.MethodPost, "/api/sessions", token, gin.H{"deck_id": deckID, "mode": "encrypt"}, &created); code != http.StatusCreated {
		s.t.Fatalf("create session: %d", code)
	}
	return created.Session.ID
}

func TestSessions(t *testing.T) {
	s := newTestServer(t)
	token := s.register("alice")
	id := s.createDeck(token, identitySequence)
	sid := s.createSession(token, id)

	var out string
	for i, text := range []string{"Hello, World!", " attack at dawn"} {
		var res sessionResult
		if code := s.do(http.MethodPost, "/api/sessions/"+sid+"/messages", token, gin.H{"text": text}, &res); code != http.StatusOK {
			t.Fatalf("message %d: %d", i, code)
		}
		if res.Seq != int64(i+1) {
			t.Errorf("seq = %d, want %d", res.Seq, i+1)
		}
		out += res.Output
	}
	if out != "PUWTUVTSFKQBTDIPLSUCAQ" {
		t.Errorf("session ciphertext %q", out)
	}

	var history struct {
		Messages []struct {
			Input  string `json:"input"`
			Output string `json:"output"`
		} `json:"messages"`
	}
	if code := s.do(http.MethodGet, "/api/sessions/"+sid+"/messages", token, nil, &history); code != http.StatusOK || len(history.Messages) != 2 {
		t.Fatalf("history: %d %+v", code, history)
	}
	// History keeps the processed letters, not the raw text.
	if got := history.Messages[0].Input; got != "HELLOWORLD" {
		t.Errorf("stored input %q", got)
	}

	other := s.register("bob")
	if code := s.do(http.MethodGet, "/api/sessions/"+sid, other, nil, nil); code != http.StatusNotFound {
		t.Errorf("bob get session: %d", code)
	}
	if code := s.do(http.MethodPost, "/api/sessions", token, gin.H{"deck_id": id, "mode": "both"}, nil); code != http.StatusBadRequest {
		t.Errorf("bad mode: %d", code)
	}
}

type wsEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// expectWS reads the next message from conn, checks its type and decodes
// the payload into out (if non-nil).
func expectWS(t *testing.T, conn *websocket.Conn, typ string, out any) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var env wsEnvelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("waiting for %s: %v", typ, err)
	}
	if env.Type != typ {
		t.Fatalf("got %s %s, want %s", env.Type, env.Payload, typ)
	}
	if out != nil {
		if err := json.Unmarshal(env.Payload, out); err != nil {
			t.Fatalf("decode %s payload %s: %v", typ, env.Payload, err)
		}
	}
}

func TestWebSocket(t *testing.T) {
	hub := ws.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	s := newTestServerWithHubs(t, ws.NewHubRef(hub).Get)
	srv := httptest.NewServer(s.router)
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	alice := s.register("alice")
	bob := s.register("bob")
	deckID := s.createDeck(alice, identitySequence)
	sid := s.createSession(alice, deckID)

	dial := func(token, query string) (*websocket.Conn, *http.Response, error) {
		h := http.Header{}
		if token != "" {
			h.Set("Authorization", "Bearer "+token)
		}
		return websocket.DefaultDialer.Dial(wsURL+query, h)
	}
	mustDial := func(token, query string) *websocket.Conn {
		t.Helper()
		conn, _, err := dial(token, query)
		if err != nil {
			t.Fatalf("dial %s: %v", query, err)
		}
		t.Cleanup(func() { _ = conn.Close() })
		expectWS(t, conn, "connected", nil)
		return conn
	}

	rejected := []struct {
		name  string
		token string
		query string
		want  int
	}{
		{"no token", "", "", http.StatusUnauthorized},
		{"foreign session", bob, "?session=" + sid, http.StatusNotFound},
		{"unknown session", alice, "?session=nope", http.StatusNotFound},
	}
	for _, tc := range rejected {
		t.Run(tc.name, func(t *testing.T) {
			conn, resp, err := dial(tc.token, tc.query)
			if err == nil {
				_ = conn.Close()
				t.Fatal("upgrade accepted")
			}
			if resp == nil || resp.StatusCode != tc.want {
				t.Fatalf("response %v, want status %d", resp, tc.want)
			}
		})
	}

	sender := mustDial(alice, "?session="+sid)
	watcher := mustDial(alice, "?session="+sid)

	send := func(typ string, payload gin.H) {
		t.Helper()
		if err := sender.WriteJSON(gin.H{"type": typ, "payload": payload}); err != nil {
			t.Fatal(err)
		}
	}

	var one cipherResponse
	send("encrypt", gin.H{"deck_id": deckID, "text": "AB 12 cd!"})
	expectWS(t, sender, "result", &one)
	if one.Output != "IRNL" || one.Letters != 4 {
		t.Errorf("one-shot result %+v", one)
	}

	var direct, seen sessionResult
	send("session_message", gin.H{"session_id": sid, "text": "a"})
	expectWS(t, sender, "result", &direct)
	expectWS(t, watcher, "session_result", &seen)
	if direct.Output != "I" || direct.Seq != 1 || seen != direct {
		t.Errorf("session message: direct %+v, watcher saw %+v", direct, seen)
	}

	// The stored deck moved on: the next message uses the second key. The
	// HTTP path broadcasts to every client in the room, and the sender's
	// next message is this one, not an echo of its own websocket message.
	var viaHTTP sessionResult
	if code := s.do(http.MethodPost, "/api/sessions/"+sid+"/messages", alice, gin.H{"text": "b"}, &viaHTTP); code != http.StatusOK {
		t.Fatalf("http session message: %d", code)
	}
	if viaHTTP.Output != "R" || viaHTTP.Seq != 2 {
		t.Errorf("second message %+v", viaHTTP)
	}
	for _, conn := range []*websocket.Conn{watcher, sender} {
		var r sessionResult
		expectWS(t, conn, "session_result", &r)
		if r != viaHTTP {
			t.Errorf("broadcast %+v, want %+v", r, viaHTTP)
		}
	}

	var errMsg struct {
		Error string `json:"error"`
	}
	send("shuffle", nil)
	expectWS(t, sender, "error", &errMsg)
	if errMsg.Error != "unknown message type" {
		t.Errorf("unknown type error %q", errMsg.Error)
	}
	send("session_message", gin.H{"session_id": "nope", "text": "a"})
	expectWS(t, sender, "error", &errMsg)
	if errMsg.Error != "not found" {
		t.Errorf("unknown session error %q", errMsg.Error)
	}
}
