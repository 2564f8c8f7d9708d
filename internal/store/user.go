// Package store holds the client-side state stores: the session store owns
// identity and VIP entitlement, the fortune and vip stores orchestrate
// multi-call workflows on top of the backend client. Each store persists a
// snapshot of its state on every mutation and restores it at construction.
package store

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/adam936936/bagua-ai/internal/backend"
	"github.com/adam936936/bagua-ai/internal/storage"
)

const defaultAnalysisCount = 3

// SessionState is the session store's persisted state.
type SessionState struct {
	UserID   int64  `json:"userId"`
	OpenID   string `json:"openId"`
	Token    string `json:"token"`
	IsLogin  bool   `json:"isLogin"`
	NickName string `json:"nickName"`
	Avatar   string `json:"avatar"`

	IsVip                  bool   `json:"isVip"`
	VipLevel               int    `json:"vipLevel"`
	VipExpireTime          string `json:"vipExpireTime"`
	RemainingAnalysisCount int    `json:"remainingAnalysisCount"`
	TotalAnalysisCount     int    `json:"totalAnalysisCount"`
}

// Session owns identity, token and entitlement counters. Shared by the
// fortune and vip stores.
type Session struct {
	api   *backend.Client
	store storage.Storage
	log   zerolog.Logger
	clock func() time.Time

	mu    sync.Mutex
	state SessionState
}

func NewSession(api *backend.Client, store storage.Storage, log zerolog.Logger) *Session {
	s := &Session{
		api:   api,
		store: store,
		log:   log,
		clock: time.Now,
		state: defaultSessionState(),
	}
	s.restore()
	return s
}

func defaultSessionState() SessionState {
	return SessionState{RemainingAnalysisCount: defaultAnalysisCount}
}

func (s *Session) restore() {
	if raw, ok := s.store.Get(storage.SnapshotKey("user")); ok {
		var st SessionState
		if err := json.Unmarshal([]byte(raw), &st); err == nil {
			s.state = st
		} else {
			s.log.Warn().Err(err).Msg("discarding corrupt session snapshot")
		}
	}

	// Identity keys take precedence over the snapshot so a token written by
	// an older build is still honored.
	if v, ok := s.store.Get(storage.KeyUserID); ok {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id != 0 {
			s.state.UserID = id
		}
	}
	if v, ok := s.store.Get(storage.KeyToken); ok && v != "" {
		s.state.Token = v
		s.state.IsLogin = true
	}
	if v, ok := s.store.Get(storage.KeyOpenID); ok && v != "" {
		s.state.OpenID = v
	}
}

func (s *Session) saveLocked() {
	raw, err := json.Marshal(s.state)
	if err != nil {
		s.log.Error().Err(err).Msg("encode session snapshot")
		return
	}
	if err := s.store.Set(storage.SnapshotKey("user"), string(raw)); err != nil {
		s.log.Error().Err(err).Msg("persist session snapshot")
	}
}

// EnsureSessionID mints a provisional user id on first access and persists
// it, so anonymous calls have a stable identity across restarts. Minting
// happens at most once; later calls are pure reads.
func (s *Session) EnsureSessionID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureIDLocked()
}

func (s *Session) ensureIDLocked() int64 {
	if s.state.UserID != 0 {
		return s.state.UserID
	}

	if v, ok := s.store.Get(storage.KeyUserID); ok {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id != 0 {
			s.state.UserID = id
			s.saveLocked()
			return id
		}
	}

	id := s.clock().UnixNano()
	s.state.UserID = id
	if err := s.store.Set(storage.KeyUserID, strconv.FormatInt(id, 10)); err != nil {
		s.log.Error().Err(err).Msg("persist minted user id")
	}
	s.saveLocked()
	s.log.Debug().Int64("user_id", id).Msg("minted provisional user id")
	return id
}

// CurrentUserID returns the stable user id, minting one if none exists yet.
func (s *Session) CurrentUserID() int64 {
	return s.EnsureSessionID()
}

// Login exchanges the external auth code for identity and token. On exchange
// failure the session is left untouched. New users with profile fields get an
// immediate profile push; profile and VIP state are then refreshed
// best-effort.
func (s *Session) Login(ctx context.Context, code, nickName, avatar string) error {
	result, err := s.api.Login(ctx, backend.LoginRequest{
		Code:     code,
		NickName: nickName,
		Avatar:   avatar,
	})
	if err != nil {
		return &AuthError{Err: err}
	}

	s.mu.Lock()
	s.state.UserID = result.UserID
	s.state.OpenID = result.OpenID
	s.state.Token = result.Token
	s.state.IsLogin = true
	s.persistIdentityLocked()
	s.saveLocked()
	s.mu.Unlock()

	if result.IsNewUser && (nickName != "" || avatar != "") {
		if err := s.UpdateProfile(ctx, nickName, avatar); err != nil {
			s.log.Warn().Err(err).Msg("initial profile push failed")
		}
	}

	s.FetchProfile(ctx)
	s.FetchVipStatus(ctx)
	return nil
}

func (s *Session) persistIdentityLocked() {
	if err := s.store.Set(storage.KeyUserID, strconv.FormatInt(s.state.UserID, 10)); err != nil {
		s.log.Error().Err(err).Msg("persist user id")
	}
	if err := s.store.Set(storage.KeyToken, s.state.Token); err != nil {
		s.log.Error().Err(err).Msg("persist token")
	}
	if err := s.store.Set(storage.KeyOpenID, s.state.OpenID); err != nil {
		s.log.Error().Err(err).Msg("persist open id")
	}
}

// FetchProfile refreshes the cached profile. Best-effort: on failure the
// cached state stays as-is and the condition is only logged.
func (s *Session) FetchProfile(ctx context.Context) {
	profile, err := s.api.Profile(ctx, s.CurrentUserID())
	if err != nil {
		s.log.Warn().Err(err).Msg("profile refresh failed, keeping cached profile")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.NickName = profile.NickName
	s.state.Avatar = profile.Avatar
	s.state.IsVip = profile.IsVip
	s.state.VipExpireTime = profile.VipExpireTime
	s.state.TotalAnalysisCount = profile.TotalAnalysisCount
	s.saveLocked()
}

// FetchVipStatus refreshes the entitlement counters from the backend, which
// is the source of truth; local optimistic decrements are overwritten here.
// Best-effort like FetchProfile.
func (s *Session) FetchVipStatus(ctx context.Context) {
	status, err := s.api.VipStatus(ctx, s.CurrentUserID())
	if err != nil {
		s.log.Warn().Err(err).Msg("vip status refresh failed, keeping cached state")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsVip = status.IsVip
	s.state.VipLevel = status.VipLevel
	s.state.VipExpireTime = status.VipExpireTime
	s.state.RemainingAnalysisCount = status.RemainingAnalysisCount
	s.state.TotalAnalysisCount = status.TotalAnalysisCount
	s.saveLocked()
}

// UpdateProfile pushes new profile fields and mirrors them locally.
func (s *Session) UpdateProfile(ctx context.Context, nickName, avatar string) error {
	if err := s.api.UpdateProfile(ctx, s.CurrentUserID(), nickName, avatar); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if nickName != "" {
		s.state.NickName = nickName
	}
	if avatar != "" {
		s.state.Avatar = avatar
	}
	s.saveLocked()
	return nil
}

// UpgradeVip upgrades the user's VIP level, then reconciles with the server.
func (s *Session) UpgradeVip(ctx context.Context, level int) error {
	if err := s.api.UpgradeVip(ctx, s.CurrentUserID(), level); err != nil {
		return err
	}
	s.FetchVipStatus(ctx)
	return nil
}

// ConsumeAnalysisCount applies the local optimistic mirror of server-side
// entitlement accounting: VIP users are exempt, the remaining count never
// goes below zero, the lifetime total always increments. Reconciled on the
// next FetchVipStatus.
func (s *Session) ConsumeAnalysisCount() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.IsVip && s.state.RemainingAnalysisCount > 0 {
		s.state.RemainingAnalysisCount--
	}
	s.state.TotalAnalysisCount++
	s.saveLocked()
}

// CanAnalyze reports whether a calculation may be started.
func (s *Session) CanAnalyze() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsVip || s.state.RemainingAnalysisCount > 0
}

// Logout resets all fields to their initial defaults and erases the
// persisted identity. Purely local; the next CurrentUserID mints a fresh id.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = defaultSessionState()
	s.store.Remove(storage.KeyUserID)
	s.store.Remove(storage.KeyToken)
	s.store.Remove(storage.KeyOpenID)
	s.store.Remove(storage.SnapshotKey("user"))
}

// State returns a copy of the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) IsLogin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsLogin
}

func (s *Session) OpenID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.OpenID
}
