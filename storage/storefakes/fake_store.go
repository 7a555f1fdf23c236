package storefakes

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/shoplane/storefront-core/storage"
)

var _ storage.DurableStore = (*FakeStore)(nil)

// FakeStore is an in-memory DurableStore for tests. WriteDelay lets tests
// simulate the gap between a write being issued and becoming readable, and
// FailReads/FailWrites inject transient storage faults.
type FakeStore struct {
	lock    sync.Mutex
	values  map[string]string
	pending map[string]int // reads remaining before a written value becomes visible

	WriteDelay int   // number of reads a fresh write stays invisible for
	FailReads  int   // next N reads return ReadErr
	FailWrites int   // next N writes return WriteErr
	ReadErr    error
	WriteErr   error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		values:  make(map[string]string),
		pending: make(map[string]int),
	}
}

func (s *FakeStore) Get(_ context.Context, key string) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.FailReads > 0 {
		s.FailReads--
		if s.ReadErr != nil {
			return "", s.ReadErr
		}
		return "", errors.New("injected read failure")
	}
	if remaining, ok := s.pending[key]; ok {
		if remaining > 0 {
			s.pending[key] = remaining - 1
			return "", storage.NotFoundErr
		}
		delete(s.pending, key)
	}
	value, ok := s.values[key]
	if !ok {
		return "", storage.NotFoundErr
	}
	return value, nil
}

func (s *FakeStore) Set(_ context.Context, key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.FailWrites > 0 {
		s.FailWrites--
		if s.WriteErr != nil {
			return s.WriteErr
		}
		return errors.New("injected write failure")
	}
	s.values[key] = value
	if s.WriteDelay > 0 {
		s.pending[key] = s.WriteDelay
	}
	return nil
}

func (s *FakeStore) Delete(_ context.Context, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.values, key)
	delete(s.pending, key)
	return nil
}

func (s *FakeStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	keys := make([]string, 0)
	for k := range s.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (s *FakeStore) DeletePrefix(_ context.Context, prefix string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	for k := range s.values {
		if strings.HasPrefix(k, prefix) {
			delete(s.values, k)
			delete(s.pending, k)
		}
	}
	return nil
}

// Has reports whether key is currently stored, ignoring visibility delays.
func (s *FakeStore) Has(key string) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	_, ok := s.values[key]
	return ok
}
