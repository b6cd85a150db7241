package memory

// SlotCount número de claves con semáforo vivo.
func (l *Locker) SlotCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
