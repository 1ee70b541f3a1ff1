package instrument

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrNotFound = errors.New("instrument not found")

// Registry manages instruments in a thread-safe manner.
// Instruments are keyed by ISIN and can also be looked up by TSETMC code.
type Registry struct {
	mu          sync.RWMutex
	instruments map[string]*Instrument // isin -> instrument
	byCode      map[string]string      // tsetmc code -> isin
}

func NewRegistry() *Registry {
	return &Registry{
		instruments: make(map[string]*Instrument),
		byCode:      make(map[string]string),
	}
}

// Register adds an instrument.
// Returns error if an instrument with the same ISIN already exists.
func (r *Registry) Register(in *Instrument) error {
	if in == nil {
		return fmt.Errorf("cannot register nil instrument")
	}
	isin := in.Identification.ISIN
	if isin == "" {
		return fmt.Errorf("cannot register instrument without isin")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.instruments[isin]; exists {
		return fmt.Errorf("instrument %s already registered", isin)
	}
	r.instruments[isin] = in
	if code := in.Identification.TsetmcCode; code != "" {
		r.byCode[code] = isin
	}
	return nil
}

// Get retrieves an instrument by ISIN
func (r *Registry) Get(isin string) (*Instrument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	in, exists := r.instruments[isin]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, isin)
	}
	return in, nil
}

// GetByTsetmcCode retrieves an instrument by its TSETMC code
func (r *Registry) GetByTsetmcCode(code string) (*Instrument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	isin, ok := r.byCode[code]
	if !ok {
		return nil, fmt.Errorf("%w: tsetmc code %s", ErrNotFound, code)
	}
	return r.instruments[isin], nil
}

// List returns all registered instruments sorted by ticker
func (r *Registry) List() []*Instrument {
	r.mu.RLock()
	out := make([]*Instrument, 0, len(r.instruments))
	for _, in := range r.instruments {
		out = append(out, in)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Identification, out[j].Identification
		if a.Ticker != b.Ticker {
			return a.Ticker < b.Ticker
		}
		return a.ISIN < b.ISIN
	})
	return out
}

// Remove unregisters an instrument. Unknown ISINs are ignored.
func (r *Registry) Remove(isin string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	in, ok := r.instruments[isin]
	if !ok {
		return
	}
	delete(r.byCode, in.Identification.TsetmcCode)
	delete(r.instruments, isin)
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instruments)
}

func (r *Registry) Exists(isin string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.instruments[isin]
	return ok
}
