package platform

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// DefaultCallbackPort is the default port for the local OAuth callback server.
const DefaultCallbackPort = 3000

// subscriberBuffer bounds how many callbacks a slow subscriber may lag behind.
const subscriberBuffer = 4

//go:embed templates/callback_success.html
var callbackSuccessHTML string

//go:embed templates/callback_error.html
var callbackErrorHTML string

var (
	successTemplate = template.Must(template.New("success").Parse(callbackSuccessHTML))
	errorTemplate   = template.Must(template.New("error").Parse(callbackErrorHTML))
)

// CallbackServer is a local HTTP server that receives the redirect the API
// issues at the end of an OAuth handshake. Each request's query parameters
// are fanned out to every subscriber.
type CallbackServer struct {
	mu          sync.Mutex
	port        int
	path        string
	server      *http.Server
	listener    net.Listener
	subscribers map[int]chan url.Values
	nextID      int
	served      int
	stopped     bool
}

// NewCallbackServer creates a callback server for the given port and path.
// Port 0 selects DefaultCallbackPort.
func NewCallbackServer(port int, path string) *CallbackServer {
	if port == 0 {
		port = DefaultCallbackPort
	}
	return &CallbackServer{
		port:        port,
		path:        "/" + strings.TrimPrefix(path, "/"),
		subscribers: make(map[int]chan url.Values),
	}
}

// BaseURL is the origin of the server, known before Start is called.
func (s *CallbackServer) BaseURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("http://localhost:%d", s.port)
}

// CallbackURL is the full URL the API should redirect to.
func (s *CallbackServer) CallbackURL() string {
	return s.BaseURL() + s.path
}

// Start starts listening. The server stops when ctx is cancelled.
func (s *CallbackServer) Start(ctx context.Context) (string, error) {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to start callback server on %s: %w", addr, err)
	}

	router := chi.NewRouter()
	router.Get(s.path, s.handleCallback)

	s.mu.Lock()
	s.listener = listener
	s.port = listener.Addr().(*net.TCPAddr).Port
	s.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("OAuth callback server stopped", "error", err.Error())
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return s.CallbackURL(), nil
}

// Subscribe returns a channel receiving the query of every callback served
// after the call. The channel closes when ctx is done or the server stops.
func (s *CallbackServer) Subscribe(ctx context.Context) <-chan url.Values {
	ch := make(chan url.Values, subscriberBuffer)

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		close(ch)
		return ch
	}
	id := s.nextID
	s.nextID++
	s.subscribers[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.unsubscribe(id)
	}()

	return ch
}

func (s *CallbackServer) unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.subscribers[id]; ok {
		delete(s.subscribers, id)
		close(ch)
	}
}

// Served returns how many callbacks have been handled.
func (s *CallbackServer) Served() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.served
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'unsafe-inline'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store")

	query := r.URL.Query()

	var (
		tmpl *template.Template
		data map[string]string
	)
	if msg := MessageFromQuery(query); msg.Message == MessageAuthFailure {
		tmpl = errorTemplate
		data = map[string]string{
			"Error":       msg.Data["error"],
			"Description": msg.Data["error_description"],
		}
	} else {
		tmpl = successTemplate
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}

	s.mu.Lock()
	s.served++
	for id, ch := range s.subscribers {
		select {
		case ch <- query:
		default:
			slog.Warn("Dropping OAuth callback for slow subscriber", "subscriber", id)
		}
	}
	s.mu.Unlock()
}

// Stop gracefully shuts down the callback server and closes all subscriptions.
func (s *CallbackServer) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	server, listener := s.server, s.listener
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
	s.mu.Unlock()

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
	if listener != nil {
		_ = listener.Close()
	}
}

// MessageFromQuery converts a callback query into the message an OAuth popup
// would post: deliverCredentials when a token is present, authFailure
// otherwise.
func MessageFromQuery(query url.Values) Message {
	token := query.Get("auth_token")
	if token == "" {
		token = query.Get("token")
	}

	if query.Get("error") != "" || token == "" {
		errCode := query.Get("error")
		if errCode == "" {
			errCode = "missing_token"
		}
		return Message{
			Message: MessageAuthFailure,
			Data: map[string]string{
				"error":             errCode,
				"error_description": query.Get("error_description"),
			},
		}
	}

	return Message{
		Message: MessageDeliverCredentials,
		Data: map[string]string{
			"auth_token": token,
			"client_id":  query.Get("client_id"),
			"expiry":     query.Get("expiry"),
			"uid":        query.Get("uid"),
		},
	}
}
