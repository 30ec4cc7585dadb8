package entity

// SweepStats reports what a retention sweep removed.
type SweepStats struct {
	Messages  int64 `json:"messages"`
	Rooms     int64 `json:"rooms"`
	Customers int64 `json:"customers"`
}

func (s SweepStats) Empty() bool {
	return s.Messages == 0 && s.Rooms == 0 && s.Customers == 0
}

func (s *SweepStats) Add(other SweepStats) {
	s.Messages += other.Messages
	s.Rooms += other.Rooms
	s.Customers += other.Customers
}
