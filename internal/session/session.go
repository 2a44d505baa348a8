// Package session tracks where a user is in the upload → analyze → results
// flow of the browser UI.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spigell/resume-analyzer/internal/analyzer"
)

type State int

const (
	AwaitingInput State = iota
	Uploaded
	Analyzing
	ShowingResults
)

func (s State) String() string {
	switch s {
	case AwaitingInput:
		return "awaiting_input"
	case Uploaded:
		return "uploaded"
	case Analyzing:
		return "analyzing"
	case ShowingResults:
		return "showing_results"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrNotFound          = errors.New("session not found")
)

// Session is the per-browser context passed to every handler. Methods are
// safe for concurrent use.
type Session struct {
	ID string

	mu             sync.Mutex
	state          State
	resumePath     string
	resumeName     string
	resumePages    int
	jobDescription string
	analysis       *analyzer.Analysis
	lastErr        string
	touched        time.Time
}

// Snapshot is a consistent read-only copy of a session.
type Snapshot struct {
	ID             string
	State          State
	ResumePath     string
	ResumeName     string
	ResumePages    int
	JobDescription string
	Analysis       *analyzer.Analysis
	Error          string
}

func newSession(id string) *Session {
	return &Session{ID: id, state: AwaitingInput, touched: time.Now()}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:             s.ID,
		State:          s.state,
		ResumePath:     s.resumePath,
		ResumeName:     s.resumeName,
		ResumePages:    s.resumePages,
		JobDescription: s.jobDescription,
		Analysis:       s.analysis,
		Error:          s.lastErr,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// transition moves from one of the allowed states to next and runs apply
// under the lock. An apply error leaves the state unchanged.
func (s *Session) transition(next State, apply func() error, allowed ...State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range allowed {
		if s.state == st {
			if apply != nil {
				if err := apply(); err != nil {
					return err
				}
			}
			s.state = next
			s.touched = time.Now()
			return nil
		}
	}

	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, next)
}

// Upload records a validated résumé file. Uploading again replaces it.
func (s *Session) Upload(path, name string, pages int) error {
	return s.UploadFile(path, name, pages, nil)
}

// UploadFile is Upload with a commit step, such as moving the file to path,
// that runs under the session lock only when an upload is allowed. The
// session is unchanged when commit fails.
func (s *Session) UploadFile(path, name string, pages int, commit func() error) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("resume path is required")
	}

	return s.transition(Uploaded, func() error {
		if commit != nil {
			if err := commit(); err != nil {
				return err
			}
		}
		s.resumePath = path
		s.resumeName = name
		s.resumePages = pages
		s.lastErr = ""
		return nil
	}, AwaitingInput, Uploaded)
}

// RemoveResume forgets the uploaded file and returns to the input screen.
func (s *Session) RemoveResume() error {
	return s.transition(AwaitingInput, func() error {
		s.resumePath = ""
		s.resumeName = ""
		s.resumePages = 0
		s.lastErr = ""
		return nil
	}, Uploaded)
}

// SetError shows msg on the next render without changing state.
func (s *Session) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = msg
}

// SetJobDescription keeps the typed text so it survives page reloads.
func (s *Session) SetJobDescription(jd string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobDescription = jd
}

// BeginAnalysis requires an uploaded résumé and a non-empty job description.
func (s *Session) BeginAnalysis(jobDescription string) error {
	if strings.TrimSpace(jobDescription) == "" {
		return analyzer.ErrEmptyJobDescription
	}

	return s.transition(Analyzing, func() error {
		s.jobDescription = jobDescription
		s.analysis = nil
		s.lastErr = ""
		return nil
	}, Uploaded)
}

func (s *Session) Complete(analysis *analyzer.Analysis) error {
	return s.transition(ShowingResults, func() error {
		s.analysis = analysis
		return nil
	}, Analyzing)
}

// Fail returns to the uploaded state, keeping the résumé for another try.
func (s *Session) Fail(err error) error {
	return s.transition(Uploaded, func() error {
		if err != nil {
			s.lastErr = err.Error()
		}
		return nil
	}, Analyzing)
}

// Back leaves the results screen. The résumé stays uploaded.
func (s *Session) Back() error {
	return s.transition(Uploaded, nil, ShowingResults)
}

// Manager owns all live sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	newID    func() string
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		newID:    uuid.NewString,
	}
}

func (m *Manager) Create() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := newSession(m.newID())
	m.sessions[s.ID] = s
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// GetOrCreate returns the session for id or a fresh one when id is unknown.
func (m *Manager) GetOrCreate(id string) *Session {
	if id != "" {
		if s, err := m.Get(id); err == nil {
			return s
		}
	}
	return m.Create()
}

// Expire drops sessions idle for longer than ttl and returns their ids.
// Sessions in the middle of an analysis are kept.
func (m *Manager) Expire(ttl time.Duration) []string {
	cutoff := time.Now().Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	var expired []string
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := s.touched.Before(cutoff) && s.state != Analyzing
		s.mu.Unlock()

		if idle {
			delete(m.sessions, id)
			expired = append(expired, id)
		}
	}
	return expired
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
