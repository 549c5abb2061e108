package workqueue

import "sync"

// ConcurrencyStrategy controls how many LLM and data tasks may run at once.
// The strategy tracks running tasks and answers admission checks.
type ConcurrencyStrategy interface {
	CanStartLLM() bool
	CanStartData() bool
	OnStartLLM()
	OnStartData()
	OnCompleteLLM()
	OnCompleteData()
}

// SerializedStrategy runs at most one LLM task and one data task at a time.
// An LLM task and a data task may still run in parallel with each other.
type SerializedStrategy struct {
	mu          sync.Mutex
	llmRunning  bool
	dataRunning bool
}

// NewSerializedStrategy creates the default one-of-each strategy.
func NewSerializedStrategy() *SerializedStrategy {
	return &SerializedStrategy{}
}

func (s *SerializedStrategy) CanStartLLM() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.llmRunning
}

func (s *SerializedStrategy) CanStartData() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.dataRunning
}

func (s *SerializedStrategy) OnStartLLM() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.llmRunning = true
}

func (s *SerializedStrategy) OnStartData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataRunning = true
}

func (s *SerializedStrategy) OnCompleteLLM() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.llmRunning = false
}

func (s *SerializedStrategy) OnCompleteData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataRunning = false
}

// ThrottledLLMStrategy allows up to maxConcurrent LLM tasks in parallel.
// Data tasks remain serialized.
type ThrottledLLMStrategy struct {
	mu            sync.Mutex
	maxConcurrent int
	llmRunning    int
	dataRunning   bool
}

// NewThrottledLLMStrategy creates a strategy admitting up to maxConcurrent
// concurrent LLM tasks.
func NewThrottledLLMStrategy(maxConcurrent int) *ThrottledLLMStrategy {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &ThrottledLLMStrategy{
		maxConcurrent: maxConcurrent,
	}
}

func (s *ThrottledLLMStrategy) CanStartLLM() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.llmRunning < s.maxConcurrent
}

func (s *ThrottledLLMStrategy) CanStartData() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.dataRunning
}

func (s *ThrottledLLMStrategy) OnStartLLM() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.llmRunning++
}

func (s *ThrottledLLMStrategy) OnStartData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataRunning = true
}

func (s *ThrottledLLMStrategy) OnCompleteLLM() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.llmRunning > 0 {
		s.llmRunning--
	}
}

func (s *ThrottledLLMStrategy) OnCompleteData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataRunning = false
}
