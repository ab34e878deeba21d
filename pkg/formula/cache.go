package formula

import "sync"

// Cache memoizes parsed ASTs by exact source text. Repeated interpretation
// of byte-identical text reuses the same AST instance, so lexing and
// parsing are paid at most once per distinct formula for the lifetime of
// the cache. Only ASTs are memoized; evaluation results and
// environment-provided values never are. The cache is unbounded and safe
// for concurrent use.
type Cache struct {
	mu   sync.Mutex
	asts map[string]Node
}

// NewCache creates an empty AST cache.
func NewCache() *Cache {
	return &Cache{asts: make(map[string]Node)}
}

// Interpret evaluates text against env, parsing only if text has not been
// seen before. A text that fails to parse leaves the cache unchanged.
func (c *Cache) Interpret(text string, env *Env) (int32, error) {
	node, err := c.load(text)
	if err != nil {
		return 0, err
	}
	return Evaluate(node, env)
}

// Get returns the cached AST for text, if present.
func (c *Cache) Get(text string) (Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.asts[text]
	return n, ok
}

// Len returns the number of cached ASTs.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.asts)
}

// load is the atomic get-or-parse step. Holding the lock across the parse
// guarantees that concurrent first-time interpretations of the same text
// resolve to a single shared AST.
func (c *Cache) load(text string) (Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.asts[text]; ok {
		return n, nil
	}
	n, err := Parse(text)
	if err != nil {
		return nil, err
	}
	c.asts[text] = n
	return n, nil
}
