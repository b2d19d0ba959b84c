package blackboard

// store.go — persistencia del blackboard en un único documento JSON.
//
// El original compartía el archivo entre procesos sin ningún locking
// (last-writer-wins). Aquí todos los agentes viven en el mismo proceso y
// mutan a través de Update, que serializa load→mutate→save bajo un mutex.
// El save es un overwrite atómico completo: temp file + rename, nunca un
// documento a medio escribir en disco.

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/alejandrodnm/hivebot/internal/domain"
)

// Store implementa ports.BlackboardStore sobre un archivo JSON.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore crea un Store sobre la ruta dada. No lee ni crea el archivo:
// el primer Load lo hará (y devolverá el esqueleto si no existe).
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load lee el documento persistido. Nunca falla: cualquier error de lectura
// o parseo devuelve el esqueleto por defecto, porque los agentes deben poder
// arrancar sobre un blackboard ausente o corrupto.
func (s *Store) Load() *domain.Blackboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() *domain.Blackboard {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("blackboard unreadable, using default skeleton", "path", s.path, "err", err)
		}
		return domain.NewBlackboard()
	}

	b := domain.NewBlackboard()
	if err := json.Unmarshal(data, b); err != nil {
		slog.Warn("blackboard corrupt, using default skeleton", "path", s.path, "err", err)
		return domain.NewBlackboard()
	}
	if !b.RiskState.Valid() {
		b.RiskState = domain.RiskHealthy
	}
	return b
}

// Save sobreescribe el documento completo de forma atómica.
func (s *Store) Save(b *domain.Blackboard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(b)
}

func (s *Store) save(b *domain.Blackboard) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("blackboard.Save: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("blackboard.Save: mkdir %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".blackboard-*.json")
	if err != nil {
		return fmt.Errorf("blackboard.Save: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("blackboard.Save: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("blackboard.Save: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("blackboard.Save: close: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("blackboard.Save: rename: %w", err)
	}
	return nil
}

// Update ejecuta load→mutate→save como una sección crítica. Si fn devuelve
// error el documento no se persiste y el error se propaga tal cual.
func (s *Store) Update(fn func(b *domain.Blackboard) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.load()
	if err := fn(b); err != nil {
		return err
	}
	return s.save(b)
}

// View da acceso de solo-lectura al documento bajo el lock. fn no debe
// retener referencias al blackboard más allá de la llamada.
func (s *Store) View(fn func(b *domain.Blackboard)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.load())
}
