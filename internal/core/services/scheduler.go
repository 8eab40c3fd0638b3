package services

import (
	"sync"
	"time"
)

// Scheduler runs f once after d. There is no way to cancel a scheduled call.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

type SystemScheduler struct{}

func (SystemScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

// StatusLine is a transient message that clears itself after a delay.
type StatusLine struct {
	mu        sync.RWMutex
	message   string
	delay     time.Duration
	scheduler Scheduler
}

func NewStatusLine(scheduler Scheduler, delay time.Duration) *StatusLine {
	return &StatusLine{scheduler: scheduler, delay: delay}
}

func (s *StatusLine) Post(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()

	s.scheduler.AfterFunc(s.delay, func() {
		s.mu.Lock()
		s.message = ""
		s.mu.Unlock()
	})
}

func (s *StatusLine) Message() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.message
}
