package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/adam936936/bagua-ai/internal/backend"
	"github.com/adam936936/bagua-ai/internal/notify"
	"github.com/adam936936/bagua-ai/internal/storage"
)

const (
	defaultPageSize     = 10
	defaultTodayFortune = "今日运势良好，万事如意！"
	defaultSurname      = "李"

	toastNoAnalysisLeft = "分析次数已用完，请开通会员"
)

// FortuneState is the fortune store's persisted state. Result and the name
// list are transient UI state but survive restarts with the snapshot, same
// as the host framework's store persistence.
type FortuneState struct {
	UserName  string `json:"userName"`
	BirthDate string `json:"birthDate"`
	BirthTime string `json:"birthTime"`
	Gender    int    `json:"gender"`

	Result           *backend.FortuneResult       `json:"result"`
	TodayFortune     string                       `json:"todayFortune"`
	TodayDate        string                       `json:"todayDate"`
	History          backend.HistoryPage          `json:"history"`
	RecommendedNames []backend.NameRecommendation `json:"recommendedNames"`
}

// Fortune orchestrates the calculate / today-fortune / history /
// name-recommendation workflows.
type Fortune struct {
	api      *backend.Client
	session  *Session
	store    storage.Storage
	notifier notify.Notifier
	log      zerolog.Logger
	clock    func() time.Time

	// calcMu serializes Calculate so overlapping invocations cannot
	// interleave their writes to Result.
	calcMu sync.Mutex

	mu    sync.Mutex
	state FortuneState
}

func NewFortune(api *backend.Client, session *Session, store storage.Storage, notifier notify.Notifier, log zerolog.Logger) *Fortune {
	f := &Fortune{
		api:      api,
		session:  session,
		store:    store,
		notifier: notifier,
		log:      log,
		clock:    time.Now,
	}
	f.restore()
	return f
}

func (f *Fortune) restore() {
	raw, ok := f.store.Get(storage.SnapshotKey("fortune"))
	if !ok {
		return
	}
	var st FortuneState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		f.log.Warn().Err(err).Msg("discarding corrupt fortune snapshot")
		return
	}
	f.state = st
}

func (f *Fortune) saveLocked() {
	raw, err := json.Marshal(f.state)
	if err != nil {
		f.log.Error().Err(err).Msg("encode fortune snapshot")
		return
	}
	if err := f.store.Set(storage.SnapshotKey("fortune"), string(raw)); err != nil {
		f.log.Error().Err(err).Msg("persist fortune snapshot")
	}
}

// SetInput records the form fields the next Calculate will submit.
func (f *Fortune) SetInput(userName, birthDate, birthTime string, gender int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.UserName = userName
	f.state.BirthDate = birthDate
	f.state.BirthTime = birthTime
	f.state.Gender = gender
	f.saveLocked()
}

// CanCalculate reports whether all required form fields are present.
func (f *Fortune) CanCalculate() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.UserName != "" && f.state.BirthDate != "" && f.state.BirthTime != ""
}

// Calculate runs the main analysis workflow: validate, check entitlement,
// call the backend, and only on a successful envelope store the result,
// consume one entitlement unit and refresh history page 1. On failure the
// result is cleared and the error propagated so the UI can react.
func (f *Fortune) Calculate(ctx context.Context) (*backend.FortuneResult, error) {
	f.calcMu.Lock()
	defer f.calcMu.Unlock()

	f.mu.Lock()
	input := f.state
	f.mu.Unlock()

	if err := validateInput(input); err != nil {
		return nil, err
	}

	if !f.session.CanAnalyze() {
		f.notifier.Toast(toastNoAnalysisLeft)
		return nil, ErrNoAnalysisLeft
	}

	result, err := f.api.Calculate(ctx, backend.BirthInfo{
		UserID:    f.session.CurrentUserID(),
		UserName:  input.UserName,
		BirthDate: input.BirthDate,
		BirthTime: input.BirthTime,
		Gender:    input.Gender,
	})
	if err != nil {
		f.mu.Lock()
		f.state.Result = nil
		f.saveLocked()
		f.mu.Unlock()
		return nil, err
	}

	// Keep a private copy so the caller-owned result can be decorated for
	// display without aliasing store state.
	stored := *result
	f.mu.Lock()
	f.state.Result = &stored
	f.saveLocked()
	f.mu.Unlock()

	f.session.ConsumeAnalysisCount()

	if err := f.LoadHistory(ctx, 1, defaultPageSize); err != nil {
		f.log.Warn().Err(err).Msg("history refresh after calculate failed")
	}

	return result, nil
}

func validateInput(input FortuneState) error {
	switch {
	case input.UserName == "":
		return &ValidationError{Field: "userName", Message: "name is required"}
	case input.BirthDate == "":
		return &ValidationError{Field: "birthDate", Message: "birth date is required"}
	case input.BirthTime == "":
		return &ValidationError{Field: "birthTime", Message: "birth time is required"}
	}
	return nil
}

// TodayFortune returns the daily fortune, cached per calendar day. A failed
// fetch caches the fixed default for the day, so this low-stakes feature
// never surfaces an error.
func (f *Fortune) TodayFortune(ctx context.Context) string {
	today := f.clock().Format("2006-01-02")

	f.mu.Lock()
	if f.state.TodayDate == today && f.state.TodayFortune != "" {
		cached := f.state.TodayFortune
		f.mu.Unlock()
		return cached
	}
	f.mu.Unlock()

	text, err := f.api.TodayFortune(ctx)
	if err != nil || text == "" {
		if err != nil {
			f.log.Warn().Err(err).Msg("today fortune fetch failed, using default")
		}
		text = defaultTodayFortune
	}

	f.mu.Lock()
	f.state.TodayFortune = text
	f.state.TodayDate = today
	f.saveLocked()
	f.mu.Unlock()

	return text
}

// LoadHistory replaces the history list and pagination block wholesale with
// the server's page contents.
func (f *Fortune) LoadHistory(ctx context.Context, page, size int) error {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}

	result, err := f.api.History(ctx, f.session.CurrentUserID(), page, size)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.state.History = *result
	f.saveLocked()
	f.mu.Unlock()
	return nil
}

// RecommendNames fetches AI name suggestions for the current result.
// Best-effort auxiliary content: no prior result is a no-op, and a failed
// fetch stores an empty list rather than an error.
func (f *Fortune) RecommendNames(ctx context.Context) []backend.NameRecommendation {
	f.mu.Lock()
	result := f.state.Result
	userName := f.state.UserName
	gender := f.state.Gender
	f.mu.Unlock()

	if result == nil || result.WuXingLack == "" {
		return nil
	}

	surname := defaultSurname
	if userName != "" {
		surname = string([]rune(userName)[0])
	}

	names, err := f.api.RecommendNames(ctx, backend.NameRecommendRequest{
		UserID:     f.session.CurrentUserID(),
		Surname:    surname,
		Gender:     gender,
		WuXingLack: result.WuXingLack,
		GanZhi:     result.GanZhi,
	})
	if err != nil {
		f.log.Warn().Err(err).Msg("name recommendation failed, storing empty list")
		names = []backend.NameRecommendation{}
	}

	f.mu.Lock()
	f.state.RecommendedNames = names
	f.saveLocked()
	f.mu.Unlock()
	return names
}

// Reset clears inputs, result and recommendations. The today-fortune cache
// and history survive.
func (f *Fortune) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.UserName = ""
	f.state.BirthDate = ""
	f.state.BirthTime = ""
	f.state.Gender = 0
	f.state.Result = nil
	f.state.RecommendedNames = nil
	f.saveLocked()
}

// State returns a copy of the current fortune state.
func (f *Fortune) State() FortuneState {
	f.mu.Lock()
	defer f.mu.Unlock()
	state := f.state
	if state.Result != nil {
		result := *state.Result
		state.Result = &result
	}
	return state
}

// Result returns a copy of the active calculation result, nil if none.
func (f *Fortune) Result() *backend.FortuneResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.Result == nil {
		return nil
	}
	result := *f.state.Result
	return &result
}
