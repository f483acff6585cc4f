// Package profile tracks the parent's subscription plan through a watched
// JSON file. It is the tier source of the quota ledger.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/helpdevoir/hdq/internal/logger"
	"github.com/helpdevoir/hdq/internal/models"
)

// Event represents a profile service event.
type Event struct {
	Error   error
	Profile models.Profile
	Type    EventType
}

// EventType defines the type of profile event.
type EventType int

const (
	EventProfileLoaded EventType = iota
	EventProfileChanged
	EventPlanChanged
	EventError
)

// Service holds the current profile and reloads it when the file changes.
type Service struct {
	profile       models.Profile
	now           func() time.Time
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
	filePath      string
	mu            sync.RWMutex
	closeOnce     sync.Once
}

// defaultProfilePath returns the default profile file path.
func defaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "helpdevoir", "profile.json")
}

// New creates a profile service and starts file watching. A missing file is
// created with a freemium profile.
func New(filePath string) (*Service, error) {
	if filePath == "" {
		filePath = defaultProfilePath()
	}

	s := &Service{
		profile:   models.Profile{SubscriptionPlan: models.TierFreemium},
		now:       time.Now,
		filePath:  filePath,
		eventChan: make(chan Event, 100),
		stopChan:  make(chan struct{}),
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}

	if err := s.load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}
		s.profile.UpdatedAt = s.now()
		if err := s.save(); err != nil {
			return nil, fmt.Errorf("failed to create profile file: %w", err)
		}
	}

	if err := s.startWatcher(); err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}

	s.sendEvent(Event{Type: EventProfileLoaded, Profile: s.Profile()})

	return s, nil
}

// Events returns the event channel for subscribing to profile changes.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Path returns the watched file path.
func (s *Service) Path() string {
	return s.filePath
}

// Profile returns a copy of the current profile.
func (s *Service) Profile() models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Tier returns the current subscription tier. Unknown plans resolve to freemium.
func (s *Service) Tier() models.SubscriptionTier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Tier()
}

// SetPlan changes the subscription plan and persists the profile.
func (s *Service) SetPlan(tier models.SubscriptionTier) error {
	if !tier.IsValid() {
		return fmt.Errorf("unknown plan: %s", tier)
	}

	s.mu.Lock()
	previous := s.profile
	s.profile.SubscriptionPlan = tier
	s.profile.UpdatedAt = s.now()

	if err := s.saveLocked(); err != nil {
		s.profile = previous
		s.mu.Unlock()
		return fmt.Errorf("failed to save profile: %w", err)
	}
	current := s.profile
	s.mu.Unlock()

	if previous.Tier() != current.Tier() {
		s.sendEvent(Event{Type: EventPlanChanged, Profile: current})
	}
	return nil
}

// parseProfile accepts the flat profile format and the nested
// {"subscription": {"plan": ...}} shape of exported parent accounts.
func parseProfile(data []byte) (models.Profile, error) {
	var raw struct {
		UpdatedAt        time.Time `json:"updatedAt"`
		ParentName       string    `json:"parentName"`
		SubscriptionPlan string    `json:"subscriptionPlan"`
		FirstName        string    `json:"firstName"`
		Subscription     *struct {
			Plan string `json:"plan"`
		} `json:"subscription"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return models.Profile{}, fmt.Errorf("failed to parse profile file: %w", err)
	}

	p := models.Profile{
		UpdatedAt:        raw.UpdatedAt,
		ParentName:       raw.ParentName,
		SubscriptionPlan: models.SubscriptionTier(raw.SubscriptionPlan),
	}
	if p.ParentName == "" {
		p.ParentName = raw.FirstName
	}
	if p.SubscriptionPlan == "" && raw.Subscription != nil {
		p.SubscriptionPlan = models.SubscriptionTier(raw.Subscription.Plan)
	}
	p.SubscriptionPlan = models.ParseTier(string(p.SubscriptionPlan))

	return p, nil
}

// load reads the profile from disk, replacing the in-memory copy.
func (s *Service) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	p, err := parseProfile(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()
	return nil
}

func (s *Service) save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// saveLocked writes the profile atomically (must hold lock).
func (s *Service) saveLocked() error {
	data, err := json.MarshalIndent(s.profile, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpFile, s.filePath); err != nil {
		if removeErr := os.Remove(tmpFile); removeErr != nil {
			logger.Error("failed to remove temp file", "error", removeErr)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// startWatcher watches the profile's directory so replacements by rename are seen.
func (s *Service) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	go s.watchLoop()
	return nil
}

// watchLoop handles file system events with debouncing.
func (s *Service) watchLoop() {
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(s.filePath) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				s.mu.Lock()
				if s.debounceTimer != nil {
					s.debounceTimer.Stop()
				}
				s.debounceTimer = time.AfterFunc(debounceInterval, s.handleFileChange)
				s.mu.Unlock()
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

// handleFileChange reloads the profile after an external change.
func (s *Service) handleFileChange() {
	before := s.Tier()

	if err := s.load(); err != nil {
		logger.Warn("failed to reload profile", "path", s.filePath, "error", err)
		s.sendEvent(Event{Type: EventError, Error: err})
		return
	}

	current := s.Profile()
	s.sendEvent(Event{Type: EventProfileChanged, Profile: current})
	if current.Tier() != before {
		logger.Info("subscription plan changed", "from", before, "to", current.Tier())
		s.sendEvent(Event{Type: EventPlanChanged, Profile: current})
	}
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the file watcher and cleans up resources.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopChan)

		s.mu.Lock()
		if s.debounceTimer != nil {
			s.debounceTimer.Stop()
		}
		s.mu.Unlock()

		if s.watcher != nil {
			err = s.watcher.Close()
		}
	})
	return err
}
