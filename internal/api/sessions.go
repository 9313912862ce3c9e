package api

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prontuario/odonto/internal/orcamento"
)

var errSessionNotFound = errors.New("session not found")

// Sessões abandonadas (aba fechada sem descartar) são removidas depois deste tempo sem uso.
const sessionIdleTimeout = 2 * time.Hour

// session é um assistente de orçamento aberto. Um único editor por sessão; mu serializa as
// requisições que chegam em paralelo para o mesmo assistente.
type session struct {
	mu        sync.Mutex
	id        string
	companyID string
	patientID string
	life      *orcamento.Lifecycle
	touched   time.Time
}

type sessionStore struct {
	mu sync.Mutex
	m  map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{m: make(map[string]*session)}
}

func (s *sessionStore) add(companyID, patientID string, life *orcamento.Lifecycle, now time.Time) *session {
	sess := &session{
		id:        uuid.NewString(),
		companyID: companyID,
		patientID: patientID,
		life:      life,
		touched:   now,
	}
	s.mu.Lock()
	s.m[sess.id] = sess
	s.mu.Unlock()
	return sess
}

// get devolve a sessão apenas para a empresa que a abriu.
func (s *sessionStore) get(id, companyID string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[id]
	if !ok || sess.companyID != companyID {
		return nil, errSessionNotFound
	}
	return sess, nil
}

func (s *sessionStore) remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[id]; !ok {
		return false
	}
	delete(s.m, id)
	return true
}

// sweep descarta sessões ociosas e devolve quantas foram removidas.
func (s *sessionStore) sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.m {
		if !sess.mu.TryLock() {
			continue
		}
		idle := now.Sub(sess.touched) > sessionIdleTimeout
		sess.mu.Unlock()
		if idle {
			delete(s.m, id)
			n++
		}
	}
	return n
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
