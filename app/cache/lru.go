package cache

// LRUList maintains cache eviction order

type LRUList struct {
	head  *lruNode
	tail  *lruNode
	nodes map[string]*lruNode
	size  int
}

type lruNode struct {
	key        string
	prev, next *lruNode
}

// NewLRUList creates a new LRU list
func NewLRUList() *LRUList {
	head := &lruNode{}
	tail := &lruNode{}
	head.next = tail
	tail.prev = head

	return &LRUList{
		head:  head,
		tail:  tail,
		nodes: make(map[string]*lruNode),
	}
}

// AddToFront adds a key to the front of the LRU list
func (l *LRUList) AddToFront(key string) {
	if node, exists := l.nodes[key]; exists {
		l.moveToFront(node)
		return
	}

	node := &lruNode{key: key}
	l.nodes[key] = node

	node.next = l.head.next
	node.prev = l.head
	l.head.next.prev = node
	l.head.next = node

	l.size++
}

// MoveToFront moves an existing key to the front
func (l *LRUList) MoveToFront(key string) {
	if node, exists := l.nodes[key]; exists {
		l.moveToFront(node)
	}
}

// Remove removes a key from the LRU list
func (l *LRUList) Remove(key string) {
	if node, exists := l.nodes[key]; exists {
		l.removeNode(node)
		delete(l.nodes, key)
		l.size--
	}
}

// RemoveOldest removes and returns the least recently used key
func (l *LRUList) RemoveOldest() (string, bool) {
	if l.size == 0 {
		return "", false
	}

	oldest := l.tail.prev
	l.removeNode(oldest)
	delete(l.nodes, oldest.key)
	l.size--
	return oldest.key, true
}

// Len returns the number of keys tracked
func (l *LRUList) Len() int {
	return l.size
}

func (l *LRUList) moveToFront(node *lruNode) {
	l.removeNode(node)

	node.next = l.head.next
	node.prev = l.head
	l.head.next.prev = node
	l.head.next = node
}

func (l *LRUList) removeNode(node *lruNode) {
	node.prev.next = node.next
	node.next.prev = node.prev
}
