package core

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"pokemontodo/pkg/domain"
)

// ToastKind classifies a toast notification.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
	ToastWarning ToastKind = "warning"
	ToastInfo    ToastKind = "info"
)

// DefaultDuration is how long a toast of this kind stays visible.
func (k ToastKind) DefaultDuration() time.Duration {
	switch k {
	case ToastError:
		return 5 * time.Second
	case ToastWarning:
		return 4 * time.Second
	default:
		return 3 * time.Second
	}
}

// Toast is a transient notification.
type Toast struct {
	ID        string        `json:"id"`
	Kind      ToastKind     `json:"type"`
	Message   string        `json:"message"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"createdAt"`
}

// ToastOption customises ShowToast.
type ToastOption func(*Toast)

// WithDuration overrides the kind's default duration.
func WithDuration(d time.Duration) ToastOption {
	return func(t *Toast) {
		if d > 0 {
			t.Duration = d
		}
	}
}

// Persistent keeps the toast until it is removed explicitly.
func Persistent() ToastOption {
	return func(t *Toast) { t.Duration = 0 }
}

// ModalKind names the single modal slot's content.
type ModalKind string

const (
	ModalNone          ModalKind = ""
	ModalCreatePokemon ModalKind = "createPokemon"
	ModalCreateMove    ModalKind = "createMove"
	ModalEditPokemon   ModalKind = "editPokemon"
	ModalEditMove      ModalKind = "editMove"
	ModalConfirmDelete ModalKind = "confirmDelete"
)

// Banner is the persistent notice shown while a collection fetch keeps failing.
type Banner struct {
	Source  string    `json:"source"`
	Message string    `json:"message"`
	Since   time.Time `json:"since"`
}

// ThemeTarget reflects the dark-mode flag onto the presentation layer.
type ThemeTarget interface {
	ApplyTheme(dark bool)
}

// ThemeFunc adapts a function to ThemeTarget.
type ThemeFunc func(dark bool)

func (f ThemeFunc) ApplyTheme(dark bool) { f(dark) }

// UIStore holds transient presentation state. It implements Notifier so the
// entity stores can raise toasts and fetch banners without importing it.
type UIStore struct {
	listeners

	mu          sync.RWMutex
	toasts      []Toast
	timers      map[string]Timer
	modal       ModalKind
	modalData   map[string]any
	globalLoad  bool
	taskLoading map[string]bool
	formErrors  map[string]string
	sidebarOpen bool
	activeTab   string
	darkMode    bool
	banner      *Banner

	seq     atomic.Uint64
	storage domain.StateStorage
	theme   ThemeTarget
	obs     observer
}

// NewUIStore constructs the UI store. storage persists the theme and may be
// nil; theme may be nil.
func NewUIStore(storage domain.StateStorage, theme ThemeTarget, opts ...StoreOption) *UIStore {
	return &UIStore{
		timers:      make(map[string]Timer),
		taskLoading: make(map[string]bool),
		formErrors:  make(map[string]string),
		sidebarOpen: true,
		activeTab:   "pokemon",
		storage:     storage,
		theme:       theme,
		obs:         buildObserver(opts),
	}
}

func (s *UIStore) update(fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()
	s.emit()
}

// ShowToast appends a toast and schedules its removal after its duration.
func (s *UIStore) ShowToast(kind ToastKind, message string, opts ...ToastOption) Toast {
	now := s.obs.clock.Now()
	t := Toast{
		ID:        fmt.Sprintf("toast-%d-%d", now.UnixMilli(), s.seq.Add(1)),
		Kind:      kind,
		Message:   message,
		Duration:  kind.DefaultDuration(),
		CreatedAt: now,
	}
	for _, opt := range opts {
		opt(&t)
	}
	s.update(func() {
		s.toasts = append(s.toasts, t)
		if t.Duration > 0 {
			id := t.ID
			s.timers[id] = s.obs.clock.AfterFunc(t.Duration, func() { s.RemoveToast(id) })
		}
	})
	return t
}

// Notify implements Notifier.
func (s *UIStore) Notify(kind ToastKind, message string) {
	if message == "" {
		return
	}
	s.ShowToast(kind, message)
}

// FetchStatus implements Notifier by raising or clearing the banner.
func (s *UIStore) FetchStatus(source, errMsg string) {
	s.update(func() {
		if errMsg == "" {
			if s.banner != nil && s.banner.Source == source {
				s.banner = nil
			}
			return
		}
		since := s.obs.clock.Now()
		if s.banner != nil && s.banner.Source == source {
			since = s.banner.Since
		}
		s.banner = &Banner{Source: source, Message: errMsg, Since: since}
	})
}

func (s *UIStore) RemoveToast(id string) {
	s.update(func() {
		if t, ok := s.timers[id]; ok {
			t.Stop()
			delete(s.timers, id)
		}
		for i, t := range s.toasts {
			if t.ID == id {
				s.toasts = append(s.toasts[:i:i], s.toasts[i+1:]...)
				return
			}
		}
	})
}

func (s *UIStore) ClearToasts() {
	s.update(func() {
		for id, t := range s.timers {
			t.Stop()
			delete(s.timers, id)
		}
		s.toasts = nil
	})
}

// Toasts returns the visible toasts, oldest first.
func (s *UIStore) Toasts() []Toast {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Toast(nil), s.toasts...)
}

// OpenModal replaces whatever modal is open.
func (s *UIStore) OpenModal(kind ModalKind, data map[string]any) {
	s.update(func() {
		s.modal = kind
		s.modalData = copyMap(data)
	})
}

func (s *UIStore) CloseModal() {
	s.update(func() {
		s.modal = ModalNone
		s.modalData = nil
	})
}

func (s *UIStore) Modal() (ModalKind, map[string]any) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modal, copyMap(s.modalData)
}

func copyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s *UIStore) SetGlobalLoading(loading bool) { s.update(func() { s.globalLoad = loading }) }

func (s *UIStore) SetTaskLoading(taskID string, loading bool) {
	s.update(func() { s.taskLoading[taskID] = loading })
}

func (s *UIStore) ClearTaskLoading(taskID string) {
	s.update(func() { delete(s.taskLoading, taskID) })
}

// IsLoading reports the loading flag of taskID, or the global flag when
// taskID is empty.
func (s *UIStore) IsLoading(taskID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if taskID == "" {
		return s.globalLoad
	}
	return s.taskLoading[taskID]
}

func (s *UIStore) SetFormError(field, message string) {
	s.update(func() { s.formErrors[field] = message })
}

// SetFormErrors replaces the form error map, e.g. with domain.ValidationErrors.
func (s *UIStore) SetFormErrors(errs map[string]string) {
	s.update(func() {
		s.formErrors = make(map[string]string, len(errs))
		for k, v := range errs {
			s.formErrors[k] = v
		}
	})
}

func (s *UIStore) ClearFormError(field string) {
	s.update(func() { delete(s.formErrors, field) })
}

func (s *UIStore) ClearAllFormErrors() {
	s.update(func() { s.formErrors = make(map[string]string) })
}

func (s *UIStore) FormError(field string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.formErrors[field]
	return msg, ok
}

// FormErrorFields returns the fields with errors, sorted.
func (s *UIStore) FormErrorFields() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fields := make([]string, 0, len(s.formErrors))
	for f := range s.formErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func (s *UIStore) HasFormErrors() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.formErrors) > 0
}

func (s *UIStore) ToggleSidebar() { s.update(func() { s.sidebarOpen = !s.sidebarOpen }) }

func (s *UIStore) SetSidebarOpen(open bool) { s.update(func() { s.sidebarOpen = open }) }

func (s *UIStore) SidebarOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sidebarOpen
}

func (s *UIStore) SetActiveTab(tab string) { s.update(func() { s.activeTab = tab }) }

func (s *UIStore) ActiveTab() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeTab
}

func (s *UIStore) DarkMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.darkMode
}

// ToggleDarkMode flips the theme, applies it and persists it.
func (s *UIStore) ToggleDarkMode(ctx context.Context) error {
	s.mu.RLock()
	next := !s.darkMode
	s.mu.RUnlock()
	return s.SetDarkMode(ctx, next)
}

// SetDarkMode applies dark to the ThemeTarget and persists it under
// domain.StorageTheme. The in-memory flag changes even if persisting fails.
func (s *UIStore) SetDarkMode(ctx context.Context, dark bool) error {
	s.update(func() { s.darkMode = dark })
	if s.theme != nil {
		s.theme.ApplyTheme(dark)
	}
	if s.storage == nil {
		return nil
	}
	if err := s.storage.SetItem(ctx, domain.StorageTheme, []byte(strconv.FormatBool(dark))); err != nil {
		s.obs.log.Warn("persist theme failed", "error", err)
		return fmt.Errorf("persist theme: %w", err)
	}
	return nil
}

// InitTheme loads the persisted theme, falling back to the system
// preference when nothing valid is stored, and applies it.
func (s *UIStore) InitTheme(ctx context.Context, systemPrefersDark bool) (bool, error) {
	dark := systemPrefersDark
	var loadErr error
	if s.storage != nil {
		raw, ok, err := s.storage.GetItem(ctx, domain.StorageTheme)
		switch {
		case err != nil:
			loadErr = fmt.Errorf("load theme: %w", err)
		case ok:
			if v, perr := strconv.ParseBool(string(raw)); perr == nil {
				dark = v
			}
		}
	}
	s.update(func() { s.darkMode = dark })
	if s.theme != nil {
		s.theme.ApplyTheme(dark)
	}
	return dark, loadErr
}

// Banner returns the current fetch-failure banner, or nil.
func (s *UIStore) Banner() *Banner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.banner == nil {
		return nil
	}
	b := *s.banner
	return &b
}

func (s *UIStore) DismissBanner() { s.update(func() { s.banner = nil }) }
