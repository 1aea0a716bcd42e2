package relay

// Pending returns the number of envelopes queued for user.
func (s *Server) Pending(user string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queues[user])
}
