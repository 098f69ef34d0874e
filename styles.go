package hxmount

import "sync"

// StyleRegistry records which style payloads have been injected, one
// identifier per component kind. Injecting an identifier twice is a no-op.
type StyleRegistry struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

// NewStyleRegistry creates an empty registry.
func NewStyleRegistry() *StyleRegistry {
	return &StyleRegistry{ids: make(map[string]struct{})}
}

// Inject inserts css through inj unless id was already injected. It reports
// whether an insertion happened. A failed insertion is not recorded, so a
// later call may retry it. Empty payloads are recorded without insertion.
func (s *StyleRegistry) Inject(inj StyleInjector, css, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; ok {
		return false, nil
	}
	if css == "" || inj == nil {
		s.ids[id] = struct{}{}
		return false, nil
	}
	if err := inj.Inject(css, InjectOptions{ID: id}); err != nil {
		return false, err
	}
	s.ids[id] = struct{}{}
	return true, nil
}

// Has reports whether id was injected.
func (s *StyleRegistry) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of recorded identifiers.
func (s *StyleRegistry) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// StyleOrdering keeps injected <style> elements in front of the first
// external stylesheet link of a document, so that page stylesheets keep
// overriding component styles.
type StyleOrdering struct {
	mu   sync.Mutex
	docs map[Document]func()
}

// NewStyleOrdering creates an ordering keeper.
func NewStyleOrdering() *StyleOrdering {
	return &StyleOrdering{docs: make(map[Document]func())}
}

// Ensure installs the keeper on doc. It runs at most once per document and
// reports whether this call installed it. The first stylesheet link is
// captured at install time; every style inserted afterwards is moved in
// front of it for as long as the keeper lives.
func (o *StyleOrdering) Ensure(doc Document) bool {
	if doc == nil {
		return false
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.docs[doc]; ok {
		return false
	}
	link := doc.FirstStylesheetLink()
	o.docs[doc] = doc.ObserveStyles(func(style Node) {
		if link != nil {
			doc.InsertBefore(style, link)
		}
	})
	return true
}

// Installed reports whether the keeper runs on doc.
func (o *StyleOrdering) Installed(doc Document) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.docs[doc]
	return ok
}
