package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophtasks/internal/api"
	"github.com/dmitrijs2005/gophtasks/internal/client/models"
	"github.com/dmitrijs2005/gophtasks/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophtasks/internal/common"
	"github.com/dmitrijs2005/gophtasks/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	grpcmd "google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const sessionKey = "session"

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      api.TaskServiceClient
	timeout     time.Duration
	store       metadata.Repository
	logger      logging.Logger

	mu        sync.Mutex
	session   *models.Session
	loaded    bool
	listeners map[int]AuthListener
	nextID    int

	refreshMu sync.Mutex
	// writeMu orders session writes with their persistence.
	writeMu sync.Mutex
}

var _ Backend = (*GRPCClient)(nil)

// NewGRPCClient connects lazily to endpointURL. store keeps the session
// between runs; timeout bounds every unary call when positive. Extra dial
// options are appended after the defaults.
func NewGRPCClient(endpointURL string, store metadata.Repository, timeout time.Duration, l logging.Logger, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{
		endpointURL: endpointURL,
		timeout:     timeout,
		store:       store,
		logger:      l.With("module", "grpc_client"),
		listeners:   map[int]AuthListener{},
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = api.NewTaskServiceClient(conn)
	return c, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := grpcmd.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = grpcmd.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return grpcmd.NewOutgoingContext(ctx, md)
}

func isTokenExpired(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Unauthenticated && st.Message() == common.ErrTokenExpired.Error()
}

func (s *GRPCClient) accessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return ""
	}
	return s.session.AccessToken
}

// accessTokenInterceptor attaches the access token and, when the server
// reports it expired, refreshes the pair and retries the call once.
func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	switch method {
	case api.MethodSignUp, api.MethodSignIn, api.MethodRefreshToken:
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	token := s.accessToken()
	err := invoker(withAccessToken(ctx, token), method, req, reply, cc, opts...)
	if err == nil || !isTokenExpired(err) {
		return err
	}

	if rerr := s.refresh(ctx, token); rerr != nil {
		return rerr
	}

	return invoker(withAccessToken(ctx, s.accessToken()), method, req, reply, cc, opts...)
}

// refresh exchanges the refresh token for a new pair unless another caller
// already replaced the stale access token. A rejected refresh token ends the
// session.
func (s *GRPCClient) refresh(ctx context.Context, stale string) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	s.mu.Lock()
	cur := s.session.Clone()
	s.mu.Unlock()

	if cur == nil || cur.RefreshToken == "" {
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	}
	if cur.AccessToken != stale {
		return nil
	}

	resp, err := s.client.RefreshToken(ctx, &api.RefreshTokenRequest{RefreshToken: cur.RefreshToken})
	if err != nil {
		if status.Code(err) == codes.Unauthenticated {
			s.logger.Warn(ctx, "refresh token rejected, signing out", "error", err)
			s.replaceSession(ctx, cur, nil, models.AuthSignedOut)
		}
		return err
	}

	next := sessionFromAuth(resp)
	if next.Email == "" {
		next.Email = cur.Email
	}
	if !s.replaceSession(ctx, cur, next, models.AuthTokenRefreshed) {
		s.logger.Debug(ctx, "session changed during refresh, dropping new tokens")
		return errSessionChanged
	}
	return nil
}

var errSessionChanged = status.Error(codes.Unauthenticated, "session changed during token refresh")

func (s *GRPCClient) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func sessionFromAuth(r *api.AuthResponse) *models.Session {
	return &models.Session{
		UserID:       r.UserID,
		Email:        r.Email,
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    r.ExpiresAt,
	}
}

// setSession replaces the in-memory session, persists it and notifies
// listeners. A nil session removes the persisted copy.
func (s *GRPCClient) setSession(ctx context.Context, sess *models.Session, event models.AuthEvent) {
	s.replaceSession(ctx, nil, sess, event)
}

// replaceSession is setSession guarded by the session it was derived from:
// when from is not nil the write only happens if the current session still
// carries from's refresh token. Listeners run after the locks are released.
func (s *GRPCClient) replaceSession(ctx context.Context, from, sess *models.Session, event models.AuthEvent) bool {
	s.writeMu.Lock()

	s.mu.Lock()
	if from != nil && (s.session == nil || s.session.RefreshToken != from.RefreshToken) {
		s.mu.Unlock()
		s.writeMu.Unlock()
		return false
	}
	s.session = sess.Clone()
	s.loaded = true
	listeners := make([]AuthListener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	if err := s.persist(ctx, sess); err != nil {
		s.logger.Warn(ctx, "failed to persist session", "error", err)
	}
	s.writeMu.Unlock()

	for _, fn := range listeners {
		fn(event, sess.Clone())
	}
	return true
}

func (s *GRPCClient) persist(ctx context.Context, sess *models.Session) error {
	if sess == nil {
		return s.store.Clear(ctx, sessionKey)
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, sessionKey, data)
}

func (s *GRPCClient) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	resp, err := s.client.SignUp(ctx, &api.SignUpRequest{Email: email, Password: password})
	if err != nil {
		return nil, mapError(err)
	}

	if resp.ConfirmationRequired || resp.AccessToken == "" {
		return nil, nil
	}

	sess := sessionFromAuth(resp)
	s.setSession(ctx, sess, models.AuthSignedIn)
	return sess.Clone(), nil
}

func (s *GRPCClient) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	resp, err := s.client.SignIn(ctx, &api.SignInRequest{Email: email, Password: password})
	if err != nil {
		return nil, mapError(err)
	}

	sess := sessionFromAuth(resp)
	s.setSession(ctx, sess, models.AuthSignedIn)
	return sess.Clone(), nil
}

// SignOut revokes the refresh token on the server and forgets the session.
// The local session is dropped even when the server call fails.
func (s *GRPCClient) SignOut(ctx context.Context) error {
	s.mu.Lock()
	cur := s.session.Clone()
	s.mu.Unlock()

	if cur == nil {
		return nil
	}

	cctx, cancel := s.callCtx(ctx)
	defer cancel()

	_, err := s.client.SignOut(cctx, &api.SignOutRequest{RefreshToken: cur.RefreshToken})

	s.setSession(ctx, nil, models.AuthSignedOut)

	return mapError(err)
}

func (s *GRPCClient) GetSession(ctx context.Context) (*models.Session, error) {
	s.mu.Lock()
	if s.loaded {
		defer s.mu.Unlock()
		return s.session.Clone(), nil
	}
	s.mu.Unlock()

	raw, err := s.store.Get(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("error reading session: %w", err)
	}

	var restored *models.Session
	if raw != nil {
		restored = &models.Session{}
		if err := json.Unmarshal(raw, restored); err != nil {
			return nil, fmt.Errorf("error decoding session: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		s.session = restored
		s.loaded = true
	}
	return s.session.Clone(), nil
}

func (s *GRPCClient) OnAuthStateChange(fn AuthListener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

var errUserFilterRequired = fmt.Errorf("%w: user_id filter is required", ErrInvalidArgument)

func toTask(t api.Task) models.Task {
	return models.Task{
		ID:         t.ID,
		UserID:     t.UserID,
		TaskText:   t.TaskText,
		IsComplete: t.IsComplete,
		CreatedAt:  t.CreatedAt,
	}
}

// SelectTasks lists the tasks matching f. Rows the filter does not match are
// dropped even if the server returned them.
func (s *GRPCClient) SelectTasks(ctx context.Context, f models.Filter, o models.Order) ([]models.Task, error) {
	if f.UserID == "" {
		return nil, errUserFilterRequired
	}

	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	resp, err := s.client.ListTasks(ctx, &api.ListTasksRequest{UserID: f.UserID})
	if err != nil {
		return nil, mapError(err)
	}

	tasks := make([]models.Task, 0, len(resp.Tasks))
	for _, t := range resp.Tasks {
		task := toTask(t)
		if f.Match(task) {
			tasks = append(tasks, task)
		}
	}
	models.SortTasks(tasks, o)
	return tasks, nil
}

func (s *GRPCClient) InsertTask(ctx context.Context, t models.NewTask) error {
	if t.UserID == "" {
		return errUserFilterRequired
	}

	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	_, err := s.client.InsertTask(ctx, &api.InsertTaskRequest{UserID: t.UserID, TaskText: t.TaskText})
	return mapError(err)
}

func (s *GRPCClient) UpdateTask(ctx context.Context, f models.Filter, p models.TaskPatch) error {
	if f.UserID == "" || f.ID == "" {
		return fmt.Errorf("%w: user_id and id filters are required", ErrInvalidArgument)
	}

	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	_, err := s.client.UpdateTask(ctx, &api.UpdateTaskRequest{ID: f.ID, UserID: f.UserID, IsComplete: p.IsComplete})
	return mapError(err)
}

func (s *GRPCClient) DeleteTask(ctx context.Context, f models.Filter) error {
	if f.UserID == "" || f.ID == "" {
		return fmt.Errorf("%w: user_id and id filters are required", ErrInvalidArgument)
	}

	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	_, err := s.client.DeleteTask(ctx, &api.DeleteTaskRequest{ID: f.ID, UserID: f.UserID})
	return mapError(err)
}
